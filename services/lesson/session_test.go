package lesson

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"driveon/models"

	"go.uber.org/zap"
)

// fakeAPI is a scripted API implementation. Each field, when set, overrides
// the default canned answer.
type fakeAPI struct {
	mu sync.Mutex

	lessons    []models.Lesson
	listErr    error
	bookFn     func(lessonID string) (*models.Lesson, error)
	cancelFn   func(lessonID string) (*models.CancelResult, error)
	offerFn    func() (*models.Lesson, error)
	changeFn   func(oldLessonID string, newDate time.Time) (*models.ChangeResult, error)
	listCalls  int
	bookGate   chan struct{}
	bookEnter  chan struct{}
}

func (f *fakeAPI) snapshot() []models.Lesson {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Lesson, len(f.lessons))
	copy(out, f.lessons)
	return out
}

func (f *fakeAPI) ListLessons(ctx context.Context, lessonType, status string) ([]models.Lesson, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.snapshot(), nil
}

func (f *fakeAPI) InstructorLessons(ctx context.Context) ([]models.Lesson, error) {
	return f.ListLessons(ctx, "", "")
}

func (f *fakeAPI) StudentLessons(ctx context.Context) ([]models.Lesson, error) {
	return f.ListLessons(ctx, "", "")
}

func (f *fakeAPI) Book(ctx context.Context, lessonID string) (*models.Lesson, error) {
	if f.bookEnter != nil {
		f.bookEnter <- struct{}{}
	}
	if f.bookGate != nil {
		<-f.bookGate
	}
	if f.bookFn != nil {
		return f.bookFn(lessonID)
	}
	return &models.Lesson{ID: lessonID, Status: models.StatusBooked}, nil
}

func (f *fakeAPI) Cancel(ctx context.Context, lessonID string) (*models.CancelResult, error) {
	if f.cancelFn != nil {
		return f.cancelFn(lessonID)
	}
	return &models.CancelResult{Refunded: true, HoursBefore: 48}, nil
}

func (f *fakeAPI) Offer(ctx context.Context) (*models.Lesson, error) {
	if f.offerFn != nil {
		return f.offerFn()
	}
	return nil, nil
}

func (f *fakeAPI) Change(ctx context.Context, oldLessonID string, newDate time.Time) (*models.ChangeResult, error) {
	if f.changeFn != nil {
		return f.changeFn(oldLessonID, newDate)
	}
	return nil, errors.New("change not scripted")
}

var (
	anna = models.Person{ID: "inst-anna", FirstName: "Anna", LastName: "Kowalska"}
	jan  = models.Person{ID: "stu-jan", FirstName: "Jan", LastName: "Wisniewski"}
)

func slot(id string, day, hour int, status string) models.Lesson {
	return models.Lesson{
		ID:         id,
		Date:       time.Date(2024, 6, day, hour, 0, 0, 0, time.UTC),
		Status:     status,
		Type:       models.TypeLesson,
		Instructor: anna,
	}
}

func newBookingSession(api API) *Session {
	return NewSession(api, models.RoleStudent, models.ModeBooking, zap.NewNop())
}

func TestRefreshSortsAndReplaces(t *testing.T) {
	api := &fakeAPI{lessons: []models.Lesson{
		slot("l3", 3, 9, models.StatusAvailable),
		slot("l1", 1, 9, models.StatusAvailable),
		slot("l2", 2, 9, models.StatusAvailable),
	}}
	s := newBookingSession(api)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	got := s.Lessons()
	wantOrder := []string{"l1", "l2", "l3"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("lessons[%d].ID = %q, want %q (ascending by date)", i, got[i].ID, id)
		}
	}

	api.mu.Lock()
	api.lessons = []models.Lesson{slot("l9", 9, 9, models.StatusAvailable)}
	api.mu.Unlock()
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	got = s.Lessons()
	if len(got) != 1 || got[0].ID != "l9" {
		t.Errorf("Lessons() after second refresh = %+v, want wholesale replacement", got)
	}
}

func TestRefreshErrorKeepsSnapshot(t *testing.T) {
	api := &fakeAPI{lessons: []models.Lesson{slot("l1", 1, 9, models.StatusAvailable)}}
	s := newBookingSession(api)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	api.listErr = NewTransportError("connection refused")
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() error = nil, want transport error")
	}
	if got := s.Lessons(); len(got) != 1 || got[0].ID != "l1" {
		t.Errorf("Lessons() after failed refresh = %+v, want previous snapshot intact", got)
	}
}

func TestSelectDate(t *testing.T) {
	api := &fakeAPI{lessons: []models.Lesson{
		slot("l1", 1, 9, models.StatusAvailable),
		slot("l2", 2, 9, models.StatusBooked),
	}}
	s := newBookingSession(api)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if err := s.SelectDate("2024-06-01"); err != nil {
		t.Fatalf("SelectDate() error = %v", err)
	}
	if sel := s.Selection(); sel.Date != "2024-06-01" || sel.InstructorID != models.InstructorAll {
		t.Errorf("Selection() = %+v, want date set and instructor reset to all", sel)
	}

	// Day 2 has only a booked lesson; booking mode rejects it.
	err := s.SelectDate("2024-06-02")
	if !IsValidation(err) {
		t.Fatalf("SelectDate() error = %v, want validation error", err)
	}
	if sel := s.Selection(); sel.Date != "2024-06-01" {
		t.Errorf("Selection().Date = %q, want unchanged after rejected day", sel.Date)
	}
}

func TestSelectDateClearsTime(t *testing.T) {
	api := &fakeAPI{lessons: []models.Lesson{
		slot("l1", 1, 9, models.StatusAvailable),
		slot("l2", 2, 9, models.StatusAvailable),
	}}
	s := newBookingSession(api)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	s.SelectDate("2024-06-01")
	s.SelectInstructor(anna.ID)
	s.SelectTime("2024-06-01 09:00")
	if err := s.SelectDate("2024-06-02"); err != nil {
		t.Fatalf("SelectDate() error = %v", err)
	}
	sel := s.Selection()
	if sel.TimeSlot != "" {
		t.Errorf("Selection().TimeSlot = %q, want cleared on date change", sel.TimeSlot)
	}
	if sel.InstructorID != models.InstructorAll {
		t.Errorf("Selection().InstructorID = %q, want reset to all", sel.InstructorID)
	}
}

func TestBookRequiresResolvableSelection(t *testing.T) {
	api := &fakeAPI{lessons: []models.Lesson{slot("l1", 1, 9, models.StatusAvailable)}}
	s := newBookingSession(api)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	// No time chosen.
	if _, err := s.Book(context.Background()); !IsValidation(err) {
		t.Errorf("Book() with no selection: error = %v, want validation", err)
	}

	// Instructor still "all".
	s.SelectDate("2024-06-01")
	s.SelectTime("2024-06-01 09:00")
	if _, err := s.Book(context.Background()); !IsValidation(err) {
		t.Errorf("Book() with instructor all: error = %v, want validation", err)
	}

	// Time no longer present.
	s.SelectInstructor(anna.ID)
	s.SelectTime("2024-06-01 13:00")
	if _, err := s.Book(context.Background()); !IsValidation(err) {
		t.Errorf("Book() with stale time: error = %v, want validation", err)
	}
}

func TestBookSuccess(t *testing.T) {
	api := &fakeAPI{lessons: []models.Lesson{
		slot("l1", 1, 9, models.StatusAvailable),
		slot("l2", 1, 11, models.StatusAvailable),
	}}
	api.bookFn = func(lessonID string) (*models.Lesson, error) {
		api.mu.Lock()
		defer api.mu.Unlock()
		for i := range api.lessons {
			if api.lessons[i].ID == lessonID {
				api.lessons[i].Status = models.StatusBooked
				api.lessons[i].Student = &jan
				booked := api.lessons[i]
				return &booked, nil
			}
		}
		return nil, NewNotFoundError("lesson not found")
	}
	s := newBookingSession(api)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	s.SelectDate("2024-06-01")
	s.SelectInstructor(anna.ID)
	s.SelectTime("2024-06-01 09:00")

	booked, err := s.Book(context.Background())
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	if booked.ID != "l1" || booked.Status != models.StatusBooked {
		t.Errorf("Book() = %+v, want l1 booked", booked)
	}
	if sel := s.Selection(); sel.Date != "" || sel.TimeSlot != "" || sel.InstructorID != models.InstructorAll {
		t.Errorf("Selection() = %+v, want reset after booking", sel)
	}

	// The post-mutation refresh pulled the server's state, where l1 is
	// now booked.
	for _, l := range s.Lessons() {
		if l.ID == "l1" && l.Status != models.StatusBooked {
			t.Errorf("lesson l1 status = %q after refresh, want booked", l.Status)
		}
	}
}

func TestBookConflictClearsTimeAndRefreshes(t *testing.T) {
	api := &fakeAPI{lessons: []models.Lesson{slot("l1", 1, 9, models.StatusAvailable)}}
	api.bookFn = func(string) (*models.Lesson, error) {
		return nil, NewConflictError("lesson is no longer available")
	}
	s := newBookingSession(api)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	s.SelectDate("2024-06-01")
	s.SelectInstructor(anna.ID)
	s.SelectTime("2024-06-01 09:00")

	api.mu.Lock()
	callsBefore := api.listCalls
	api.mu.Unlock()

	_, err := s.Book(context.Background())
	if !IsConflict(err) {
		t.Fatalf("Book() error = %v, want conflict", err)
	}
	sel := s.Selection()
	if sel.TimeSlot != "" {
		t.Errorf("Selection().TimeSlot = %q, want cleared after conflict", sel.TimeSlot)
	}
	if sel.Date != "2024-06-01" {
		t.Errorf("Selection().Date = %q, want kept after conflict", sel.Date)
	}
	api.mu.Lock()
	callsAfter := api.listCalls
	api.mu.Unlock()
	if callsAfter != callsBefore+1 {
		t.Errorf("list calls = %d, want forced refresh after conflict", callsAfter-callsBefore)
	}
}

func TestBookTransportErrorLeavesSelection(t *testing.T) {
	api := &fakeAPI{lessons: []models.Lesson{slot("l1", 1, 9, models.StatusAvailable)}}
	api.bookFn = func(string) (*models.Lesson, error) {
		return nil, NewTransportError("connection refused")
	}
	s := newBookingSession(api)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	s.SelectDate("2024-06-01")
	s.SelectInstructor(anna.ID)
	s.SelectTime("2024-06-01 09:00")

	_, err := s.Book(context.Background())
	if !IsTransport(err) {
		t.Fatalf("Book() error = %v, want transport", err)
	}
	if sel := s.Selection(); sel.TimeSlot != "2024-06-01 09:00" {
		t.Errorf("Selection().TimeSlot = %q, want retained so the user can retry", sel.TimeSlot)
	}
}

func TestBookInFlightGuard(t *testing.T) {
	api := &fakeAPI{
		lessons:   []models.Lesson{slot("l1", 1, 9, models.StatusAvailable)},
		bookGate:  make(chan struct{}),
		bookEnter: make(chan struct{}, 1),
	}
	s := newBookingSession(api)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	s.SelectDate("2024-06-01")
	s.SelectInstructor(anna.ID)
	s.SelectTime("2024-06-01 09:00")

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Book(context.Background())
		firstDone <- err
	}()
	<-api.bookEnter

	if _, err := s.Book(context.Background()); !errors.Is(err, ErrRequestInFlight) {
		t.Errorf("second Book() error = %v, want ErrRequestInFlight", err)
	}

	close(api.bookGate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first Book() error = %v", err)
	}

	// The guard is released once the request settles.
	s.SelectDate("2024-06-01")
	s.SelectInstructor(anna.ID)
	s.SelectTime("2024-06-01 09:00")
	api.bookEnter = nil
	api.bookGate = nil
	if _, err := s.Book(context.Background()); errors.Is(err, ErrRequestInFlight) {
		t.Errorf("Book() after completion: error = %v, want guard released", err)
	}
}

func TestCancelPassesRefundDecisionThrough(t *testing.T) {
	tests := []struct {
		name   string
		result models.CancelResult
	}{
		{"inside window, no refund", models.CancelResult{Refunded: false, HoursBefore: 2}},
		{"outside window, refunded", models.CancelResult{Refunded: true, HoursBefore: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{lessons: []models.Lesson{slot("l1", 1, 9, models.StatusBooked)}}
			api.cancelFn = func(string) (*models.CancelResult, error) {
				result := tt.result
				return &result, nil
			}
			s := NewSession(api, models.RoleStudent, models.ModeSchedule, zap.NewNop())
			if err := s.Refresh(context.Background()); err != nil {
				t.Fatalf("Refresh() error = %v", err)
			}

			result, err := s.Cancel(context.Background(), "l1")
			if err != nil {
				t.Fatalf("Cancel() error = %v", err)
			}
			if result.Refunded != tt.result.Refunded || result.HoursBefore != tt.result.HoursBefore {
				t.Errorf("Cancel() = %+v, want %+v unchanged", result, tt.result)
			}
		})
	}
}

func TestRequestOfferNilMeansNoAlternative(t *testing.T) {
	api := &fakeAPI{lessons: []models.Lesson{slot("l1", 1, 9, models.StatusBooked)}}
	s := NewSession(api, models.RoleInstructor, models.ModeSchedule, zap.NewNop())
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	offered, err := s.RequestOffer(context.Background(), "l1")
	if err != nil {
		t.Fatalf("RequestOffer() error = %v", err)
	}
	if offered != nil {
		t.Errorf("RequestOffer() = %+v, want nil when no slot is free", offered)
	}
	if s.Offer() != nil {
		t.Error("Offer() != nil, want no pending offer stored")
	}
	if got := s.Lessons(); len(got) != 1 || got[0].ID != "l1" {
		t.Errorf("Lessons() = %+v, want snapshot untouched", got)
	}
}

func TestRequestOfferTransportError(t *testing.T) {
	api := &fakeAPI{}
	api.offerFn = func() (*models.Lesson, error) {
		return nil, NewTransportError("connection refused")
	}
	s := NewSession(api, models.RoleInstructor, models.ModeSchedule, zap.NewNop())

	_, err := s.RequestOffer(context.Background(), "l1")
	if !IsTransport(err) {
		t.Errorf("RequestOffer() error = %v, want transport, distinct from nil offer", err)
	}
}

func TestOfferRegenerateAndReject(t *testing.T) {
	replacement := slot("l5", 5, 9, models.StatusAvailable)
	api := &fakeAPI{}
	api.offerFn = func() (*models.Lesson, error) {
		offered := replacement
		return &offered, nil
	}
	s := NewSession(api, models.RoleInstructor, models.ModeSchedule, zap.NewNop())

	for i := 0; i < 2; i++ {
		offered, err := s.RequestOffer(context.Background(), "l1")
		if err != nil {
			t.Fatalf("RequestOffer() #%d error = %v", i+1, err)
		}
		if offered == nil || offered.ID != "l5" {
			t.Fatalf("RequestOffer() #%d = %+v, want l5", i+1, offered)
		}
	}

	s.RejectOffer()
	if s.Offer() != nil {
		t.Error("Offer() != nil after reject, want cleared")
	}
	if _, err := s.AcceptOffer(context.Background()); !errors.Is(err, ErrNoOffer) {
		t.Errorf("AcceptOffer() after reject: error = %v, want ErrNoOffer", err)
	}
}

func TestAcceptOfferSplicesAndRefreshes(t *testing.T) {
	old := slot("l1", 1, 9, models.StatusBooked)
	mid := slot("l2", 3, 9, models.StatusBooked)
	replacement := slot("l5", 5, 9, models.StatusAvailable)

	api := &fakeAPI{lessons: []models.Lesson{old, mid}}
	api.offerFn = func() (*models.Lesson, error) {
		offered := replacement
		return &offered, nil
	}
	api.changeFn = func(oldLessonID string, newDate time.Time) (*models.ChangeResult, error) {
		if oldLessonID != "l1" {
			t.Errorf("Change oldLessonID = %q, want l1", oldLessonID)
		}
		if !newDate.Equal(replacement.Date) {
			t.Errorf("Change newDate = %v, want %v", newDate, replacement.Date)
		}
		booked := replacement
		booked.Status = models.StatusBooked
		canceled := old
		canceled.Status = models.StatusCanceled
		api.mu.Lock()
		api.lessons = []models.Lesson{canceled, mid, booked}
		api.mu.Unlock()
		return &models.ChangeResult{NewLesson: booked, OldLesson: canceled}, nil
	}
	s := NewSession(api, models.RoleInstructor, models.ModeSchedule, zap.NewNop())
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if _, err := s.RequestOffer(context.Background(), "l1"); err != nil {
		t.Fatalf("RequestOffer() error = %v", err)
	}
	result, err := s.AcceptOffer(context.Background())
	if err != nil {
		t.Fatalf("AcceptOffer() error = %v", err)
	}
	if result.NewLesson.ID != "l5" || result.OldLesson.ID != "l1" {
		t.Errorf("AcceptOffer() = %+v, want new l5 and old l1", result)
	}
	if s.Offer() != nil {
		t.Error("Offer() != nil after accept, want cleared")
	}

	got := s.Lessons()
	for i := 1; i < len(got); i++ {
		if got[i].Date.Before(got[i-1].Date) {
			t.Fatalf("lessons out of order at %d: %v after %v", i, got[i].Date, got[i-1].Date)
		}
	}
}

func TestAcceptOfferSpliceOrderWithoutRefresh(t *testing.T) {
	// The refresh after the change fails, so the list shows the local
	// splice: old removed, replacement inserted in date order.
	old := slot("l1", 1, 9, models.StatusBooked)
	mid := slot("l2", 3, 9, models.StatusBooked)
	replacement := slot("l5", 2, 9, models.StatusAvailable)

	api := &fakeAPI{lessons: []models.Lesson{old, mid}}
	api.offerFn = func() (*models.Lesson, error) {
		offered := replacement
		return &offered, nil
	}
	api.changeFn = func(oldLessonID string, newDate time.Time) (*models.ChangeResult, error) {
		booked := replacement
		booked.Status = models.StatusBooked
		canceled := old
		canceled.Status = models.StatusCanceled
		api.mu.Lock()
		api.listErr = NewTransportError("connection refused")
		api.mu.Unlock()
		return &models.ChangeResult{NewLesson: booked, OldLesson: canceled}, nil
	}
	s := NewSession(api, models.RoleInstructor, models.ModeSchedule, zap.NewNop())
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if _, err := s.RequestOffer(context.Background(), "l1"); err != nil {
		t.Fatalf("RequestOffer() error = %v", err)
	}

	if _, err := s.AcceptOffer(context.Background()); err != nil {
		t.Fatalf("AcceptOffer() error = %v", err)
	}
	got := s.Lessons()
	wantOrder := []string{"l5", "l2"}
	if len(got) != len(wantOrder) {
		t.Fatalf("Lessons() = %+v, want %v", got, wantOrder)
	}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Errorf("lessons[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
}
