package store

import "errors"

var (
	// ErrLessonNotFound is returned for unknown or stale lesson ids.
	ErrLessonNotFound = errors.New("lesson not found")

	// ErrSlotTaken is returned when booking a lesson that is no longer
	// available, typically because another student got there first.
	ErrSlotTaken = errors.New("lesson is no longer available")

	// ErrAlreadyCanceled is returned when canceling an already canceled lesson.
	ErrAlreadyCanceled = errors.New("lesson is already canceled")

	// ErrNotBooked is returned by Change when the lesson to reschedule has
	// no booking to carry over.
	ErrNotBooked = errors.New("lesson is not booked")

	// ErrNoReplacementSlot is returned by Change when no available lesson
	// exists at the requested date for the instructor.
	ErrNoReplacementSlot = errors.New("no available lesson at the requested time")
)
