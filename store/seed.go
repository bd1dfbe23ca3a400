package store

import (
	"time"

	"driveon/models"
)

// Seed fills the store with a development fixture: two instructors, a week
// of open slots at 09:00, 11:00 and 13:00, and one booked exam to make the
// schedule views non-trivial out of the box.
func Seed(s *LessonStore) {
	instructors := []models.Person{
		{ID: "inst-anna", FirstName: "Anna", LastName: "Kowalska"},
		{ID: "inst-marek", FirstName: "Marek", LastName: "Nowak"},
	}
	student := models.Person{ID: "stud-jan", FirstName: "Jan", LastName: "Wisniewski"}

	start := time.Now().Truncate(24 * time.Hour).Add(24 * time.Hour)
	hours := []int{9, 11, 13}

	for day := 0; day < 7; day++ {
		for _, instructor := range instructors {
			for _, hour := range hours {
				s.Add(models.Lesson{
					Date:       start.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour),
					Status:     models.StatusAvailable,
					Type:       models.TypeLesson,
					Instructor: instructor,
				})
			}
		}
	}

	s.Add(models.Lesson{
		Date:       start.AddDate(0, 0, 2).Add(15 * time.Hour),
		Status:     models.StatusBooked,
		Type:       models.TypeExam,
		Instructor: instructors[0],
		Student:    &student,
	})
}
