package models

// CancelResult is the lesson service's refund decision for a cancellation.
// The refund window is server policy; the client reports the decision and
// never recomputes it locally.
type CancelResult struct {
	Refunded    bool    `json:"refunded"`
	HoursBefore float64 `json:"hoursBefore"`
}

// ChangeResult is returned by the reschedule commit: the replacement
// lesson plus the record it atomically canceled.
type ChangeResult struct {
	NewLesson Lesson `json:"newLesson"`
	OldLesson Lesson `json:"oldLesson"`
}

// BookRequest is the body of POST /lessons/book.
type BookRequest struct {
	LessonID string `json:"lessonId"`
}

// CancelRequest is the body of POST /lessons/cancel.
type CancelRequest struct {
	LessonID string `json:"lessonId"`
}

// ChangeRequest is the body of POST /lessons/change. NewDate is the
// RFC3339 start time of the accepted offer.
type ChangeRequest struct {
	OldLessonID string `json:"oldLessonId"`
	NewDate     string `json:"newDate"`
}
