package models

import (
	"strings"
	"time"
)

// Lesson statuses as reported by the lesson service.
const (
	StatusAvailable = "available"
	StatusBooked    = "booked"
	StatusCanceled  = "canceled"
)

// Lesson types. Type affects labeling only; the booking rules are identical.
const (
	TypeLesson = "lesson"
	TypeExam   = "exam"
)

// LessonDuration is the fixed length of every lesson block. It is not
// stored on the record; slot labels derive the end time from it.
const LessonDuration = 2 * time.Hour

// Person is a minimal reference to an instructor or student.
type Person struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// DisplayName returns "First Last". A record with no usable name falls
// back to "Unknown" so group headers are never blank.
func (p Person) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return "Unknown"
	}
	return name
}

// Lesson is the central entity. Records are created and mutated only by
// the lesson service; the client reads snapshots and requests mutations.
type Lesson struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	Status     string    `json:"status"`
	Type       string    `json:"type"`
	Instructor Person    `json:"instructor"`
	Student    *Person   `json:"student,omitempty"`
}

// DayKey returns the lesson's calendar day in the lesson's own zone,
// formatted as "2006-01-02". Calendar marking and date selection key on it.
func (l Lesson) DayKey() string {
	return l.Date.Format("2006-01-02")
}

// TimeKey returns the composite date+time selection key for the lesson.
func (l Lesson) TimeKey() string {
	return l.Date.Format("2006-01-02 15:04")
}

// SlotLabel renders the displayed time window, e.g. "09:00 - 11:00".
func (l Lesson) SlotLabel() string {
	return l.Date.Format("15:04") + " - " + l.Date.Add(LessonDuration).Format("15:04")
}
