package schedule

import (
	"strings"

	"driveon/models"
)

// DeriveScheduleView turns a lesson snapshot plus the current date
// selection into the own-schedule calendar marks and per-status slot
// groups. Unlike the booking view it applies no status filter: canceled
// lessons are included and suppressed later by RenderStatusGroups.
//
// A day holding any booked lesson gets the booked dot color. Booked is the
// dominant visual signal since it implies commitment.
func DeriveScheduleView(lessons []models.Lesson, selectedDate string) models.ScheduleView {
	marked := make(map[string]models.CalendarMark)

	for _, lesson := range lessons {
		day := lesson.DayKey()
		mark, ok := marked[day]
		if !ok {
			mark = models.CalendarMark{
				Marked:        true,
				DotColor:      dotAvailable,
				SelectedColor: dotAvailable,
			}
		}
		if lesson.Status == models.StatusBooked {
			mark.DotColor = dotBooked
			mark.SelectedColor = dotBooked
		}
		marked[day] = mark
	}

	if selectedDate != "" {
		mark := marked[selectedDate]
		mark.Selected = true
		mark.SelectedColor = selectedColor
		marked[selectedDate] = mark
	}

	return models.ScheduleView{
		Marked: marked,
		Groups: groupByStatus(lessons, selectedDate),
	}
}

func groupByStatus(lessons []models.Lesson, selectedDate string) []models.StatusGroup {
	groups := []models.StatusGroup{}
	if selectedDate == "" {
		return groups
	}

	// Group order follows first appearance in the snapshot.
	index := make(map[string]int)
	for _, lesson := range lessons {
		if lesson.DayKey() != selectedDate {
			continue
		}

		entry := models.TimeEntry{
			Label:          lesson.SlotLabel(),
			Value:          lesson.TimeKey(),
			SortKey:        lesson.Date.UnixMilli(),
			LessonID:       lesson.ID,
			LessonType:     lesson.Type,
			InstructorName: lesson.Instructor.DisplayName(),
		}
		if lesson.Student != nil {
			entry.StudentName = lesson.Student.DisplayName()
		}

		i, ok := index[lesson.Status]
		if !ok {
			i = len(groups)
			index[lesson.Status] = i
			groups = append(groups, models.StatusGroup{Status: capitalize(lesson.Status)})
		}
		groups[i].Times = append(groups[i].Times, entry)
	}

	for i := range groups {
		sortTimes(groups[i].Times)
	}

	return groups
}

// RenderStatusGroups is the render-time presentation filter: it drops the
// Canceled group from a schedule view. The aggregator itself never filters
// by status, so this must be applied exactly once, at the render boundary.
func RenderStatusGroups(groups []models.StatusGroup) []models.StatusGroup {
	visible := make([]models.StatusGroup, 0, len(groups))
	for _, group := range groups {
		if group.Status == capitalize(models.StatusCanceled) {
			continue
		}
		visible = append(visible, group)
	}
	return visible
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
