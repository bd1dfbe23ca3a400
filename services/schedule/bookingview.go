package schedule

import (
	"sort"
	"strings"

	"driveon/models"
)

// Calendar colors shared with the mobile renderer.
const (
	dotAvailable  = "#50C878"
	dotBooked     = "#db4242ff"
	selectedColor = "#007AFF"
)

// DeriveBookingView turns a lesson snapshot plus the current instructor
// filter and date selection into calendar marks and per-instructor slot
// groups. It is pure: no I/O, no clock, identical output for identical
// input.
//
// Marks cover every calendar day with at least one available lesson. The
// selected day gets selection styling merged on top of its dot marker, so
// selecting a marked day never erases the dot.
func DeriveBookingView(lessons []models.Lesson, instructorID, selectedDate string) models.BookingView {
	marked := make(map[string]models.CalendarMark)

	for _, lesson := range lessons {
		if lesson.Status != models.StatusAvailable {
			continue
		}
		marked[lesson.DayKey()] = models.CalendarMark{
			Marked:        true,
			DotColor:      dotAvailable,
			SelectedColor: dotAvailable,
		}
	}

	if selectedDate != "" {
		mark := marked[selectedDate]
		mark.Selected = true
		mark.SelectedColor = selectedColor
		marked[selectedDate] = mark
	}

	return models.BookingView{
		Marked: marked,
		Groups: groupByInstructor(lessons, instructorID, selectedDate),
	}
}

func groupByInstructor(lessons []models.Lesson, instructorID, selectedDate string) []models.InstructorGroup {
	groups := []models.InstructorGroup{}
	if selectedDate == "" {
		return groups
	}

	byInstructor := make(map[string]*models.InstructorGroup)
	for _, lesson := range lessons {
		if lesson.Status != models.StatusAvailable || lesson.DayKey() != selectedDate {
			continue
		}
		if instructorID != models.InstructorAll && instructorID != "" && lesson.Instructor.ID != instructorID {
			continue
		}

		group, ok := byInstructor[lesson.Instructor.ID]
		if !ok {
			group = &models.InstructorGroup{
				InstructorID:   lesson.Instructor.ID,
				InstructorName: lesson.Instructor.DisplayName(),
			}
			byInstructor[lesson.Instructor.ID] = group
		}
		group.Times = append(group.Times, models.TimeEntry{
			Label:    lesson.SlotLabel(),
			Value:    lesson.TimeKey(),
			SortKey:  lesson.Date.UnixMilli(),
			LessonID: lesson.ID,
		})
	}

	for _, group := range byInstructor {
		sortTimes(group.Times)
		groups = append(groups, *group)
	}

	// Ties on display name fall back to the id so equal names (two
	// "Unknown" instructors) still order identically on every call.
	sort.Slice(groups, func(i, j int) bool {
		a, b := strings.ToLower(groups[i].InstructorName), strings.ToLower(groups[j].InstructorName)
		if a != b {
			return a < b
		}
		return groups[i].InstructorID < groups[j].InstructorID
	})

	return groups
}

// sortTimes orders entries by start time, breaking ties on the lesson id
// so output order is a pure function of the input.
func sortTimes(times []models.TimeEntry) {
	sort.Slice(times, func(i, j int) bool {
		if times[i].SortKey != times[j].SortKey {
			return times[i].SortKey < times[j].SortKey
		}
		return times[i].LessonID < times[j].LessonID
	})
}
