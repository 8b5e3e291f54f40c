package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingomarket/lingomarket-api/internal/models"
	"github.com/lingomarket/lingomarket-api/internal/repository"
	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
)

type fakeSessionRepo struct {
	created    *models.Session
	createErr  error
	session    *models.Session
	updateErr  error
	lastStatus models.SessionStatus
}

func (f *fakeSessionRepo) CreateWithBookings(ctx context.Context, session *models.Session, bookingIDs []string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = session
	return nil
}

func (f *fakeSessionRepo) FindByID(ctx context.Context, id string) (*models.Session, error) {
	s := *f.session
	return &s, nil
}

func (f *fakeSessionRepo) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.lastStatus = status
	f.session.Status = status
	return nil
}

func (f *fakeSessionRepo) ListForTrainer(ctx context.Context, trainerID string) ([]models.Session, error) {
	return nil, nil
}

func (f *fakeSessionRepo) ListForStudent(ctx context.Context, studentID string) ([]models.Session, error) {
	return nil, nil
}

type fakeSessionBookings struct {
	bookings []models.Booking
	err      error
}

func (f *fakeSessionBookings) FindAllByIDs(ctx context.Context, ids []string) ([]models.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bookings, nil
}

type fakeStats struct {
	trainerID string
	earnings  float64
	calls     int
}

func (f *fakeStats) RecordCompletedSession(ctx context.Context, trainerID string, earnings float64) error {
	f.trainerID = trainerID
	f.earnings = earnings
	f.calls++
	return nil
}

func paidBooking(id, studentID string) models.Booking {
	return models.Booking{
		ID:            id,
		StudentID:     studentID,
		TrainerID:     "t1",
		PaymentStatus: models.PaymentStatusCompleted,
		Amount:        25,
	}
}

func validSessionRequest(bookingIDs []string) CreateSessionRequest {
	return CreateSessionRequest{
		BookingIDs:    bookingIDs,
		Title:         "Conversational Spanish",
		Duration:      60,
		ScheduledDate: time.Now().Add(24 * time.Hour),
		Language:      "spanish",
		Level:         "intermediate",
	}
}

func TestSessionCreateBuildsMeetingLink(t *testing.T) {
	repo := &fakeSessionRepo{}
	bookings := &fakeSessionBookings{bookings: []models.Booking{paidBooking("b1", "s1"), paidBooking("b2", "s2")}}
	svc := NewSessionService(repo, bookings, &fakeStats{}, "https://meet.jit.si/", nil, nil)

	session, err := svc.Create(context.Background(), "t1", validSessionRequest([]string{"b1", "b2"}))
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusScheduled, session.Status)
	assert.ElementsMatch(t, []string{"s1", "s2"}, []string(session.StudentIDs))
	assert.NotEmpty(t, session.MeetingRoomID)
	assert.Equal(t, "https://meet.jit.si/"+session.MeetingRoomID, session.MeetingLink)
	assert.Equal(t, 2, session.MaxStudents)
}

func TestSessionCreateRejectsForeignBooking(t *testing.T) {
	other := paidBooking("b1", "s1")
	other.TrainerID = "someone-else"
	bookings := &fakeSessionBookings{bookings: []models.Booking{other}}
	svc := NewSessionService(&fakeSessionRepo{}, bookings, &fakeStats{}, "https://meet.jit.si", nil, nil)

	_, err := svc.Create(context.Background(), "t1", validSessionRequest([]string{"b1"}))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSessionCreateRejectsUnpaidBooking(t *testing.T) {
	unpaid := paidBooking("b1", "s1")
	unpaid.PaymentStatus = models.PaymentStatusPending
	bookings := &fakeSessionBookings{bookings: []models.Booking{unpaid}}
	svc := NewSessionService(&fakeSessionRepo{}, bookings, &fakeStats{}, "https://meet.jit.si", nil, nil)

	_, err := svc.Create(context.Background(), "t1", validSessionRequest([]string{"b1"}))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSessionCreateRejectsAttachedBooking(t *testing.T) {
	attached := paidBooking("b1", "s1")
	sessionID := "existing"
	attached.SessionID = &sessionID
	bookings := &fakeSessionBookings{bookings: []models.Booking{attached}}
	svc := NewSessionService(&fakeSessionRepo{}, bookings, &fakeStats{}, "https://meet.jit.si", nil, nil)

	_, err := svc.Create(context.Background(), "t1", validSessionRequest([]string{"b1"}))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSessionCreateRejectsMissingBooking(t *testing.T) {
	bookings := &fakeSessionBookings{bookings: []models.Booking{paidBooking("b1", "s1")}}
	svc := NewSessionService(&fakeSessionRepo{}, bookings, &fakeStats{}, "https://meet.jit.si", nil, nil)

	_, err := svc.Create(context.Background(), "t1", validSessionRequest([]string{"b1", "b2"}))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSessionCreateMapsConcurrentClaim(t *testing.T) {
	repo := &fakeSessionRepo{createErr: repository.ErrBookingsUnavailable}
	bookings := &fakeSessionBookings{bookings: []models.Booking{paidBooking("b1", "s1")}}
	svc := NewSessionService(repo, bookings, &fakeStats{}, "https://meet.jit.si", nil, nil)

	_, err := svc.Create(context.Background(), "t1", validSessionRequest([]string{"b1"}))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSessionStatusFollowsStateMachine(t *testing.T) {
	repo := &fakeSessionRepo{session: &models.Session{
		ID:         "sess1",
		TrainerID:  "t1",
		StudentIDs: []string{"s1"},
		BookingIDs: []string{"b1"},
		Status:     models.SessionStatusScheduled,
	}}
	stats := &fakeStats{}
	bookings := &fakeSessionBookings{bookings: []models.Booking{paidBooking("b1", "s1")}}
	svc := NewSessionService(repo, bookings, stats, "https://meet.jit.si", nil, nil)

	session, err := svc.UpdateStatus(context.Background(), "sess1", "t1", UpdateSessionStatusRequest{Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusActive, session.Status)

	session, err = svc.UpdateStatus(context.Background(), "sess1", "t1", UpdateSessionStatusRequest{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, session.Status)
	assert.Equal(t, 1, stats.calls)
	assert.Equal(t, 25.0, stats.earnings)

	_, err = svc.UpdateStatus(context.Background(), "sess1", "t1", UpdateSessionStatusRequest{Status: "cancelled"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestSessionStatusRejectsSkippedState(t *testing.T) {
	repo := &fakeSessionRepo{session: &models.Session{ID: "sess1", TrainerID: "t1", Status: models.SessionStatusScheduled}}
	svc := NewSessionService(repo, &fakeSessionBookings{}, &fakeStats{}, "https://meet.jit.si", nil, nil)

	_, err := svc.UpdateStatus(context.Background(), "sess1", "t1", UpdateSessionStatusRequest{Status: "completed"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestSessionStatusRejectsForeignTrainer(t *testing.T) {
	repo := &fakeSessionRepo{session: &models.Session{ID: "sess1", TrainerID: "t1", Status: models.SessionStatusScheduled}}
	svc := NewSessionService(repo, &fakeSessionBookings{}, &fakeStats{}, "https://meet.jit.si", nil, nil)

	_, err := svc.UpdateStatus(context.Background(), "sess1", "intruder", UpdateSessionStatusRequest{Status: "active"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSessionGetVisibility(t *testing.T) {
	repo := &fakeSessionRepo{session: &models.Session{
		ID:         "sess1",
		TrainerID:  "t1",
		StudentIDs: []string{"s1"},
		Status:     models.SessionStatusScheduled,
	}}
	svc := NewSessionService(repo, &fakeSessionBookings{}, &fakeStats{}, "https://meet.jit.si", nil, nil)

	_, err := svc.Get(context.Background(), "sess1", "t1")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "sess1", "s1")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "sess1", "outsider")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
