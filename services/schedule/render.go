package schedule

import "driveon/models"

// BuildRenderSequence produces the ordered section tokens that drive the
// linear screen layout for a role and view mode. It carries no booking
// semantics; renderers map each token to a widget.
//
// Booking (student only): header, instructor picker and calendar are
// always present. Picking an instructor and a date reveals the slot list
// and the summary; picking a time additionally reveals the action button,
// placed before the summary.
//
// Schedule (either role): header and calendar, plus the slot list once a
// date is selected.
func BuildRenderSequence(role models.Role, mode models.ViewMode, sel models.Selection) []models.RenderSection {
	switch {
	case role == models.RoleStudent && mode == models.ModeBooking:
		sections := []models.RenderSection{
			models.SectionHeader,
			models.SectionInstructorPicker,
			models.SectionCalendar,
		}
		if sel.InstructorID != "" && sel.Date != "" {
			sections = append(sections, models.SectionSlotList)
			if sel.TimeSlot != "" {
				sections = append(sections, models.SectionActionButton)
			}
			sections = append(sections, models.SectionSummary)
		}
		return sections

	case role == models.RoleStudent && mode == models.ModeSchedule,
		role == models.RoleInstructor && mode == models.ModeSchedule:
		sections := []models.RenderSection{
			models.SectionHeader,
			models.SectionCalendar,
		}
		if sel.Date != "" {
			sections = append(sections, models.SectionSlotList)
		}
		return sections
	}

	return nil
}
