package lesson

import (
	"context"
	"sort"
	"sync"

	"driveon/models"
	"driveon/services/schedule"

	"go.uber.org/zap"
)

// Session owns the client-side booking state for one signed-in screen: the
// lesson snapshot, the ephemeral selection, and any pending reschedule
// offer. All collaborators are injected; a session holds no ambient
// globals, which keeps it testable in isolation.
//
// The snapshot is authoritative only between refreshes. Every mutating
// call is followed by a wholesale refetch before success is reported, so
// the derived views never mix a local patch with unknown server state.
type Session struct {
	api    API
	role   models.Role
	mode   models.ViewMode
	logger *zap.Logger

	mu            sync.Mutex
	lessons       []models.Lesson
	selection     models.Selection
	offer         *models.Lesson
	offerLessonID string
	inflight      map[string]struct{}
}

// NewSession creates a session for the given role and view mode.
func NewSession(api API, role models.Role, mode models.ViewMode, logger *zap.Logger) *Session {
	return &Session{
		api:       api,
		role:      role,
		mode:      mode,
		logger:    logger,
		selection: initialSelection(mode),
		inflight:  make(map[string]struct{}),
	}
}

func initialSelection(mode models.ViewMode) models.Selection {
	sel := models.Selection{}
	if mode == models.ModeBooking {
		sel.InstructorID = models.InstructorAll
	}
	return sel
}

// Refresh refetches the full lesson list for the session's role and view
// mode and replaces the snapshot wholesale. Called on view entry and after
// every mutation; patching in place would drift from concurrent
// server-side changes.
func (s *Session) Refresh(ctx context.Context) error {
	var (
		lessons []models.Lesson
		err     error
	)
	switch {
	case s.mode == models.ModeBooking:
		lessons, err = s.api.ListLessons(ctx, "", "")
	case s.role == models.RoleInstructor:
		lessons, err = s.api.InstructorLessons(ctx)
	default:
		lessons, err = s.api.StudentLessons(ctx)
	}
	if err != nil {
		return err
	}

	sortLessons(lessons)

	s.mu.Lock()
	s.lessons = lessons
	s.mu.Unlock()
	return nil
}

// Lessons returns a copy of the current snapshot.
func (s *Session) Lessons() []models.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Lesson, len(s.lessons))
	copy(out, s.lessons)
	return out
}

// Selection returns the current selection state.
func (s *Session) Selection() models.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// SelectDate selects a calendar day. A day with no qualifying lesson under
// the active filter is rejected with no state change so the caller can
// notify the user. Selecting a day clears any chosen time and, in booking
// mode, resets the instructor filter to "all".
func (s *Session) SelectDate(date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dayHasLessonsLocked(date) {
		return NewValidationError("No lessons available. Please select another date.")
	}

	s.selection.Date = date
	s.selection.TimeSlot = ""
	if s.mode == models.ModeBooking {
		s.selection.InstructorID = models.InstructorAll
	}
	return nil
}

func (s *Session) dayHasLessonsLocked(date string) bool {
	for _, l := range s.lessons {
		if l.DayKey() != date {
			continue
		}
		if s.mode == models.ModeBooking && l.Status != models.StatusAvailable {
			continue
		}
		return true
	}
	return false
}

// SelectInstructor sets the instructor filter ("all" or an id).
func (s *Session) SelectInstructor(instructorID string) {
	s.mu.Lock()
	s.selection.InstructorID = instructorID
	s.mu.Unlock()
}

// SelectTime picks a time slot key from the current grouped-times view.
func (s *Session) SelectTime(timeSlot string) {
	s.mu.Lock()
	s.selection.TimeSlot = timeSlot
	s.mu.Unlock()
}

// ClearSelection resets the selection to its initial state.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.selection = initialSelection(s.mode)
	s.mu.Unlock()
}

// Book books the lesson the current selection resolves to. The client-side
// precondition is advisory; the server remains authoritative, and a
// conflict (someone else booked first) is an expected failure that forces
// a refresh and clears the stale time selection.
func (s *Session) Book(ctx context.Context) (*models.Lesson, error) {
	s.mu.Lock()
	target, err := s.resolveSelectedLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !s.beginLocked(target.ID) {
		s.mu.Unlock()
		return nil, ErrRequestInFlight
	}
	s.mu.Unlock()
	defer s.end(target.ID)

	booked, err := s.api.Book(ctx, target.ID)
	if err != nil {
		if IsConflict(err) || IsNotFound(err) {
			s.mu.Lock()
			s.selection.TimeSlot = ""
			s.mu.Unlock()
			if rerr := s.Refresh(ctx); rerr != nil {
				s.logger.Warn("refresh after booking conflict failed", zap.Error(rerr))
			}
		}
		return nil, err
	}

	s.mu.Lock()
	s.removeLocked(target.ID)
	s.selection = initialSelection(s.mode)
	s.mu.Unlock()

	if rerr := s.Refresh(ctx); rerr != nil {
		s.logger.Warn("refresh after booking failed", zap.Error(rerr))
	}
	return booked, nil
}

// resolveSelectedLocked finds the single available lesson matching the
// selected instructor and time.
func (s *Session) resolveSelectedLocked() (*models.Lesson, error) {
	instructorID := s.selection.InstructorID
	timeSlot := s.selection.TimeSlot
	if timeSlot == "" || instructorID == "" || instructorID == models.InstructorAll {
		return nil, NewValidationError("Please select a time and instructor.")
	}

	var match *models.Lesson
	for i := range s.lessons {
		l := s.lessons[i]
		if l.Status != models.StatusAvailable || l.Instructor.ID != instructorID || l.TimeKey() != timeSlot {
			continue
		}
		if match != nil {
			return nil, NewValidationError("Selected time is ambiguous. Please pick it again.")
		}
		match = &s.lessons[i]
	}
	if match == nil {
		return nil, NewValidationError("Selected time is no longer available.")
	}
	lesson := *match
	return &lesson, nil
}

// Cancel requests cancellation of a lesson and returns the server's refund
// decision unchanged. The refund window lives server-side only, so client
// and server policy cannot drift.
func (s *Session) Cancel(ctx context.Context, lessonID string) (*models.CancelResult, error) {
	s.mu.Lock()
	if !s.beginLocked(lessonID) {
		s.mu.Unlock()
		return nil, ErrRequestInFlight
	}
	s.mu.Unlock()
	defer s.end(lessonID)

	result, err := s.api.Cancel(ctx, lessonID)
	if err != nil {
		if IsConflict(err) || IsNotFound(err) {
			if rerr := s.Refresh(ctx); rerr != nil {
				s.logger.Warn("refresh after cancel conflict failed", zap.Error(rerr))
			}
		}
		return nil, err
	}

	s.mu.Lock()
	s.removeLocked(lessonID)
	s.mu.Unlock()

	if rerr := s.Refresh(ctx); rerr != nil {
		s.logger.Warn("refresh after cancel failed", zap.Error(rerr))
	}
	return result, nil
}

// RequestOffer asks the server to propose the next free slot as a
// replacement for lessonID. A nil result means no alternative exists;
// neither the snapshot nor the selection is touched in that case. Offers
// are stateless server-side and may be regenerated any number of times.
func (s *Session) RequestOffer(ctx context.Context, lessonID string) (*models.Lesson, error) {
	offered, err := s.api.Offer(ctx)
	if err != nil {
		return nil, err
	}
	if offered == nil {
		return nil, nil
	}

	s.mu.Lock()
	s.offer = offered
	s.offerLessonID = lessonID
	s.mu.Unlock()

	offer := *offered
	return &offer, nil
}

// Offer returns the pending reschedule offer, if any.
func (s *Session) Offer() *models.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offer == nil {
		return nil
	}
	offer := *s.offer
	return &offer
}

// RejectOffer discards the pending offer. Nothing was committed
// server-side, so there is nothing else to undo.
func (s *Session) RejectOffer() {
	s.mu.Lock()
	s.offer = nil
	s.offerLessonID = ""
	s.mu.Unlock()
}

// AcceptOffer commits the pending offer: the server atomically cancels the
// old lesson and creates the replacement. The old record is spliced out
// for the new one with ascending date order preserved, then a refresh
// reconciles with any concurrent server-side changes.
func (s *Session) AcceptOffer(ctx context.Context) (*models.ChangeResult, error) {
	s.mu.Lock()
	if s.offer == nil {
		s.mu.Unlock()
		return nil, ErrNoOffer
	}
	oldID := s.offerLessonID
	newDate := s.offer.Date
	if !s.beginLocked(oldID) {
		s.mu.Unlock()
		return nil, ErrRequestInFlight
	}
	s.mu.Unlock()
	defer s.end(oldID)

	result, err := s.api.Change(ctx, oldID, newDate)
	if err != nil {
		if IsConflict(err) || IsNotFound(err) {
			if rerr := s.Refresh(ctx); rerr != nil {
				s.logger.Warn("refresh after reschedule conflict failed", zap.Error(rerr))
			}
		}
		return nil, err
	}

	s.mu.Lock()
	s.removeLocked(oldID)
	s.lessons = append(s.lessons, result.NewLesson)
	sortLessons(s.lessons)
	s.offer = nil
	s.offerLessonID = ""
	s.selection.TimeSlot = ""
	s.mu.Unlock()

	if rerr := s.Refresh(ctx); rerr != nil {
		s.logger.Warn("refresh after reschedule failed", zap.Error(rerr))
	}
	return result, nil
}

// BookingView derives the booking screen data from the current snapshot
// and selection.
func (s *Session) BookingView() models.BookingView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schedule.DeriveBookingView(s.lessons, s.selection.InstructorID, s.selection.Date)
}

// ScheduleView derives the own-schedule screen data from the current
// snapshot and selection.
func (s *Session) ScheduleView() models.ScheduleView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schedule.DeriveScheduleView(s.lessons, s.selection.Date)
}

// RenderSequence derives the ordered layout sections for the session's
// role, view mode and selection.
func (s *Session) RenderSequence() []models.RenderSection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return schedule.BuildRenderSequence(s.role, s.mode, s.selection)
}

// beginLocked marks a lesson as having a mutating request in flight.
func (s *Session) beginLocked(lessonID string) bool {
	if _, busy := s.inflight[lessonID]; busy {
		return false
	}
	s.inflight[lessonID] = struct{}{}
	return true
}

func (s *Session) end(lessonID string) {
	s.mu.Lock()
	delete(s.inflight, lessonID)
	s.mu.Unlock()
}

func (s *Session) removeLocked(lessonID string) {
	for i := range s.lessons {
		if s.lessons[i].ID == lessonID {
			s.lessons = append(s.lessons[:i], s.lessons[i+1:]...)
			return
		}
	}
}

func sortLessons(lessons []models.Lesson) {
	sort.Slice(lessons, func(i, j int) bool {
		return lessons[i].Date.Before(lessons[j].Date)
	})
}
