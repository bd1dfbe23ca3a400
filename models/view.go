package models

// Role of the signed-in party, carried in the bearer token's role claim.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

// ViewMode selects which derived view a session drives.
type ViewMode string

const (
	// ModeBooking is the student slot-shopping view across all instructors.
	ModeBooking ViewMode = "booking"
	// ModeSchedule is the own-schedule view for either role.
	ModeSchedule ViewMode = "schedule"
)

// InstructorAll is the instructor filter value meaning "no filter".
const InstructorAll = "all"

// Selection is the ephemeral per-screen selection state. It is owned by
// the session controller and never persisted.
type Selection struct {
	InstructorID string `json:"instructorId"` // "all", an instructor id, or ""
	Date         string `json:"date"`         // "2006-01-02" or ""
	TimeSlot     string `json:"timeSlot"`     // "2006-01-02 15:04" or ""
}

// CalendarMark describes how a single calendar day is drawn. Selection
// styling is merged onto an existing dot marker, never replacing it.
type CalendarMark struct {
	Marked        bool   `json:"marked,omitempty"`
	DotColor      string `json:"dotColor,omitempty"`
	Selected      bool   `json:"selected,omitempty"`
	SelectedColor string `json:"selectedColor,omitempty"`
}

// TimeEntry is one bookable or scheduled slot inside a group. StudentName
// and InstructorName are filled only by the schedule view, which shows the
// opposite party to whoever is looking.
type TimeEntry struct {
	Label          string `json:"label"`
	Value          string `json:"value"`   // selection key, "2006-01-02 15:04"
	SortKey        int64  `json:"sortKey"` // lesson start, unix millis
	LessonID       string `json:"lessonId"`
	LessonType     string `json:"lessonType,omitempty"`
	StudentName    string `json:"studentName,omitempty"`
	InstructorName string `json:"instructorName,omitempty"`
}

// InstructorGroup is a booking-view slot group for one instructor.
type InstructorGroup struct {
	InstructorID   string      `json:"instructorId"`
	InstructorName string      `json:"instructorName"`
	Times          []TimeEntry `json:"times"`
}

// StatusGroup is a schedule-view slot group for one lesson status.
type StatusGroup struct {
	Status string      `json:"status"` // capitalized, e.g. "Booked"
	Times  []TimeEntry `json:"times"`
}

// BookingView is everything the booking screen needs to render.
type BookingView struct {
	Marked map[string]CalendarMark `json:"marked"`
	Groups []InstructorGroup       `json:"groups"`
}

// ScheduleView is everything the schedule screen needs to render.
type ScheduleView struct {
	Marked map[string]CalendarMark `json:"marked"`
	Groups []StatusGroup           `json:"groups"`
}

// RenderSection is an opaque layout token consumed by a linear renderer.
type RenderSection string

const (
	SectionHeader           RenderSection = "header"
	SectionInstructorPicker RenderSection = "instructor-picker"
	SectionCalendar         RenderSection = "calendar"
	SectionSlotList         RenderSection = "slot-list"
	SectionActionButton     RenderSection = "action-button"
	SectionSummary          RenderSection = "summary"
)
