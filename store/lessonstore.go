package store

import (
	"sort"
	"sync"
	"time"

	"driveon/models"

	"github.com/google/uuid"
)

// LessonStore is the in-memory lesson table behind the reference service.
// It owns the policies the client only ever observes: booking exclusivity,
// the cancellation refund window, offer generation, and the atomic
// reschedule. A single mutex serializes every mutation, so two students
// racing for one slot cannot both win.
type LessonStore struct {
	mu           sync.Mutex
	lessons      map[string]*models.Lesson
	refundWindow time.Duration
	now          func() time.Time
}

// NewLessonStore creates an empty store with the given refund window: a
// cancellation at least that long before the lesson start is refunded.
func NewLessonStore(refundWindow time.Duration) *LessonStore {
	return &LessonStore{
		lessons:      make(map[string]*models.Lesson),
		refundWindow: refundWindow,
		now:          time.Now,
	}
}

// Add inserts a lesson, minting an id when the record has none.
func (s *LessonStore) Add(lesson models.Lesson) models.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lesson.ID == "" {
		lesson.ID = uuid.New().String()
	}
	s.lessons[lesson.ID] = &lesson
	return lesson
}

// Get returns a copy of the lesson, or ErrLessonNotFound.
func (s *LessonStore) Get(lessonID string) (models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lesson, ok := s.lessons[lessonID]
	if !ok {
		return models.Lesson{}, ErrLessonNotFound
	}
	return *lesson, nil
}

// List returns lessons matching the optional type and status filters,
// ascending by date.
func (s *LessonStore) List(lessonType, status string) []models.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collectLocked(func(l *models.Lesson) bool {
		if lessonType != "" && l.Type != lessonType {
			return false
		}
		if status != "" && l.Status != status {
			return false
		}
		return true
	})
}

// ForInstructor returns the instructor's own lessons, ascending by date.
func (s *LessonStore) ForInstructor(instructorID string) []models.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collectLocked(func(l *models.Lesson) bool {
		return l.Instructor.ID == instructorID
	})
}

// ForStudent returns the student's own lessons, ascending by date.
func (s *LessonStore) ForStudent(studentID string) []models.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collectLocked(func(l *models.Lesson) bool {
		return l.Student != nil && l.Student.ID == studentID
	})
}

func (s *LessonStore) collectLocked(keep func(*models.Lesson) bool) []models.Lesson {
	out := []models.Lesson{}
	for _, lesson := range s.lessons {
		if keep(lesson) {
			out = append(out, *lesson)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Book transitions an available lesson to booked for the student. A
// lesson in any other status fails with ErrSlotTaken: whoever booked
// first keeps the slot.
func (s *LessonStore) Book(lessonID string, student models.Person) (models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lesson, ok := s.lessons[lessonID]
	if !ok {
		return models.Lesson{}, ErrLessonNotFound
	}
	if lesson.Status != models.StatusAvailable {
		return models.Lesson{}, ErrSlotTaken
	}

	lesson.Status = models.StatusBooked
	lesson.Student = &student
	return *lesson, nil
}

// Cancel cancels a lesson and decides the refund from the configured
// window against the time remaining before the lesson starts.
func (s *LessonStore) Cancel(lessonID string) (models.CancelResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lesson, ok := s.lessons[lessonID]
	if !ok {
		return models.CancelResult{}, ErrLessonNotFound
	}
	if lesson.Status == models.StatusCanceled {
		return models.CancelResult{}, ErrAlreadyCanceled
	}

	hoursBefore := lesson.Date.Sub(s.now()).Hours()
	lesson.Status = models.StatusCanceled

	return models.CancelResult{
		Refunded:    hoursBefore >= s.refundWindow.Hours(),
		HoursBefore: hoursBefore,
	}, nil
}

// Offer returns the instructor's earliest future available lesson, or nil
// when none exists. Offers are stateless: nothing is reserved until the
// caller commits via Change.
func (s *LessonStore) Offer(instructorID string) *models.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var best *models.Lesson
	for _, lesson := range s.lessons {
		if lesson.Instructor.ID != instructorID || lesson.Status != models.StatusAvailable {
			continue
		}
		if !lesson.Date.After(now) {
			continue
		}
		if best == nil || lesson.Date.Before(best.Date) {
			best = lesson
		}
	}
	if best == nil {
		return nil
	}
	offer := *best
	return &offer
}

// Change reschedules atomically: the old lesson is canceled and the
// instructor's available lesson at newDate is booked for the same student.
// Either both transitions happen or neither does.
func (s *LessonStore) Change(oldLessonID string, newDate time.Time) (models.ChangeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.lessons[oldLessonID]
	if !ok {
		return models.ChangeResult{}, ErrLessonNotFound
	}
	if old.Status == models.StatusCanceled {
		return models.ChangeResult{}, ErrAlreadyCanceled
	}
	if old.Status != models.StatusBooked {
		return models.ChangeResult{}, ErrNotBooked
	}

	var replacement *models.Lesson
	for _, lesson := range s.lessons {
		if lesson.Instructor.ID == old.Instructor.ID &&
			lesson.Status == models.StatusAvailable &&
			lesson.Date.Equal(newDate) {
			replacement = lesson
			break
		}
	}
	if replacement == nil {
		return models.ChangeResult{}, ErrNoReplacementSlot
	}

	replacement.Status = models.StatusBooked
	replacement.Student = old.Student
	old.Status = models.StatusCanceled

	return models.ChangeResult{
		NewLesson: *replacement,
		OldLesson: *old,
	}, nil
}
