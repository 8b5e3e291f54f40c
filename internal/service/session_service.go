package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lingomarket/lingomarket-api/internal/models"
	"github.com/lingomarket/lingomarket-api/internal/repository"
	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
)

type sessionRepository interface {
	CreateWithBookings(ctx context.Context, session *models.Session, bookingIDs []string) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error
	ListForTrainer(ctx context.Context, trainerID string) ([]models.Session, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.Session, error)
}

type sessionBookingReader interface {
	FindAllByIDs(ctx context.Context, ids []string) ([]models.Booking, error)
}

type sessionStatsWriter interface {
	RecordCompletedSession(ctx context.Context, trainerID string, earnings float64) error
}

// CreateSessionRequest describes the session creation payload.
type CreateSessionRequest struct {
	BookingIDs    []string  `json:"booking_ids" validate:"required,min=1,dive,required"`
	Title         string    `json:"title" validate:"required,max=200"`
	Description   string    `json:"description" validate:"omitempty,max=2000"`
	Duration      int       `json:"duration" validate:"required,gt=0"`
	MaxStudents   int       `json:"max_students" validate:"omitempty,gt=0"`
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
	Language      string    `json:"language" validate:"required"`
	Level         string    `json:"level" validate:"required,oneof=beginner intermediate advanced"`
}

// UpdateSessionStatusRequest moves a session through its lifecycle.
type UpdateSessionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active completed cancelled"`
}

// SessionService schedules sessions over paid bookings and drives the
// session state machine.
type SessionService struct {
	repo        sessionRepository
	bookings    sessionBookingReader
	stats       sessionStatsWriter
	roomBaseURL string
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSessionService constructs SessionService. roomBaseURL is the meeting
// provider base, e.g. https://meet.jit.si.
func NewSessionService(repo sessionRepository, bookings sessionBookingReader, stats sessionStatsWriter, roomBaseURL string, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		repo:        repo,
		bookings:    bookings,
		stats:       stats,
		roomBaseURL: strings.TrimRight(roomBaseURL, "/"),
		validator:   validate,
		logger:      logger,
	}
}

// Create schedules a session covering the given bookings. Every booking must
// belong to the calling trainer, be paid, and not yet attached to another
// session; the insert and the booking attachment commit atomically.
func (s *SessionService) Create(ctx context.Context, trainerID string, req CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if hasDuplicates(req.BookingIDs) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "booking ids must be unique")
	}

	bookings, err := s.bookings.FindAllByIDs(ctx, req.BookingIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}
	if len(bookings) != len(req.BookingIDs) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more bookings do not exist")
	}
	studentIDs := make([]string, 0, len(bookings))
	for _, b := range bookings {
		if b.TrainerID != trainerID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "booking belongs to a different trainer")
		}
		if b.PaymentStatus != models.PaymentStatusCompleted {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("booking %s is not paid", b.ID))
		}
		if b.SessionID != nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("booking %s is already scheduled", b.ID))
		}
		studentIDs = append(studentIDs, b.StudentID)
	}

	maxStudents := req.MaxStudents
	if maxStudents == 0 {
		maxStudents = len(studentIDs)
	}
	if len(studentIDs) > maxStudents {
		return nil, appErrors.Clone(appErrors.ErrValidation, "bookings exceed the session capacity")
	}

	session := &models.Session{
		ID:            uuid.NewString(),
		TrainerID:     trainerID,
		StudentIDs:    studentIDs,
		BookingIDs:    req.BookingIDs,
		Title:         req.Title,
		Description:   req.Description,
		Status:        models.SessionStatusScheduled,
		Duration:      req.Duration,
		MaxStudents:   maxStudents,
		ScheduledDate: req.ScheduledDate.UTC(),
		Language:      req.Language,
		Level:         models.SessionLevel(req.Level),
	}
	session.MeetingRoomID = meetingRoomID(session.ID)
	session.MeetingLink = fmt.Sprintf("%s/%s", s.roomBaseURL, session.MeetingRoomID)

	if err := s.repo.CreateWithBookings(ctx, session, req.BookingIDs); err != nil {
		if errors.Is(err, repository.ErrBookingsUnavailable) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "one or more bookings were claimed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	return session, nil
}

// Get returns a session visible to the caller: its trainer or one of its
// students.
func (s *SessionService) Get(ctx context.Context, sessionID, callerID string) (*models.Session, error) {
	session, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sessionVisibleTo(session, callerID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "session belongs to a different user")
	}
	return session, nil
}

// UpdateStatus moves a session along its lifecycle. Only the owning trainer
// may do so, and only transitions the state machine allows succeed. A
// completion also credits the trainer's stats with the attached earnings.
func (s *SessionService) UpdateStatus(ctx context.Context, sessionID, trainerID string, req UpdateSessionStatusRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	session, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TrainerID != trainerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "session belongs to a different trainer")
	}

	next := models.SessionStatus(req.Status)
	if !session.Status.CanTransitionTo(next) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move session from %s to %s", session.Status, next))
	}

	if err := s.repo.UpdateStatus(ctx, sessionID, next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session status")
	}
	session.Status = next
	session.UpdatedAt = time.Now().UTC()

	if next == models.SessionStatusCompleted {
		earnings, err := s.sessionEarnings(ctx, session)
		if err != nil {
			s.logger.Warn("failed to compute session earnings", zap.String("session_id", sessionID), zap.Error(err))
		} else if err := s.stats.RecordCompletedSession(ctx, trainerID, earnings); err != nil {
			s.logger.Warn("failed to record completed session", zap.String("trainer_id", trainerID), zap.Error(err))
		}
	}
	return session, nil
}

// ListForTrainer returns every session owned by the trainer.
func (s *SessionService) ListForTrainer(ctx context.Context, trainerID string) ([]models.Session, error) {
	sessions, err := s.repo.ListForTrainer(ctx, trainerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

// ListForStudent returns every session the student participates in.
func (s *SessionService) ListForStudent(ctx context.Context, studentID string) ([]models.Session, error) {
	sessions, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

func (s *SessionService) find(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

func (s *SessionService) sessionEarnings(ctx context.Context, session *models.Session) (float64, error) {
	bookings, err := s.bookings.FindAllByIDs(ctx, session.BookingIDs)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, b := range bookings {
		total += b.Amount
	}
	return total, nil
}

func sessionVisibleTo(session *models.Session, userID string) bool {
	if session.TrainerID == userID {
		return true
	}
	for _, id := range session.StudentIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// meetingRoomID derives a stable, URL-safe room name from the session id.
func meetingRoomID(sessionID string) string {
	return "lingomarket-" + strings.ReplaceAll(sessionID, "-", "")
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
