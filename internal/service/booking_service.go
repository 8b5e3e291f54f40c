package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lingomarket/lingomarket-api/internal/models"
	"github.com/lingomarket/lingomarket-api/internal/payments"
	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
)

type bookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	MarkPaymentStatus(ctx context.Context, id string, status models.PaymentStatus, paymentID string, details *models.PaymentDetails) (int64, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.BookingDetail, error)
	ListForTrainer(ctx context.Context, trainerID string) ([]models.BookingDetail, error)
}

type bookingUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	IncrementBookingCount(ctx context.Context, trainerID string) error
}

type paymentVerifier interface {
	Verify(ctx context.Context, method models.PaymentMethod, paymentID string) (*payments.Verification, error)
}

// CreateBookingRequest describes the booking creation payload.
type CreateBookingRequest struct {
	TrainerID     string  `json:"trainer_id" validate:"required"`
	PaymentMethod string  `json:"payment_method" validate:"required,oneof=card mock"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Notes         string  `json:"notes" validate:"omitempty,max=1000"`
}

// MarkPaymentRequest reports the client-side payment outcome. The server
// treats it as a hint and re-verifies settlement with the provider.
type MarkPaymentRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=completed failed"`
	PaymentID     string `json:"payment_id" validate:"required"`
}

// BookingService owns booking creation and payment-status transitions.
type BookingService struct {
	repo      bookingRepository
	users     bookingUserReader
	payments  paymentVerifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookingService constructs BookingService.
func NewBookingService(repo bookingRepository, users bookingUserReader, payments paymentVerifier, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{repo: repo, users: users, payments: payments, validator: validate, logger: logger}
}

// Create records a pending booking for the calling student. The amount is a
// snapshot of the agreed rate and is never recomputed afterwards.
func (s *BookingService) Create(ctx context.Context, studentID, studentName string, req CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	trainer, err := s.users.FindByID(ctx, req.TrainerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "trainer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainer")
	}
	if trainer.Role != models.RoleTrainer || !trainer.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "referenced user is not an active trainer")
	}

	booking := &models.Booking{
		StudentID:     studentID,
		TrainerID:     req.TrainerID,
		StudentName:   studentName,
		Status:        models.BookingStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: models.PaymentMethod(req.PaymentMethod),
		Amount:        req.Amount,
		Notes:         req.Notes,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	if err := s.users.IncrementBookingCount(ctx, req.TrainerID); err != nil {
		s.logger.Warn("failed to bump trainer booking count", zap.String("trainer_id", req.TrainerID), zap.Error(err))
	}

	return booking, nil
}

// MarkPayment settles a booking's payment exactly once. For completions the
// provider is asked for the settlement state first; an unsettled payment is
// rejected regardless of what the client claims.
func (s *BookingService) MarkPayment(ctx context.Context, bookingID, callerID string, req MarkPaymentRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment update payload")
	}

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	if booking.StudentID != callerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "booking belongs to a different student")
	}
	if booking.PaymentStatus != models.PaymentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "payment status already settled")
	}

	status := models.PaymentStatus(req.PaymentStatus)
	var details *models.PaymentDetails
	if status == models.PaymentStatusCompleted {
		verification, err := s.payments.Verify(ctx, booking.PaymentMethod, req.PaymentID)
		if err != nil {
			return nil, err
		}
		if !verification.Settled {
			return nil, appErrors.Clone(appErrors.ErrPaymentProvider, "payment is not settled with the provider")
		}
		amount := verification.Amount
		if amount == 0 {
			amount = booking.Amount
		}
		details = &models.PaymentDetails{
			Amount:      amount,
			Currency:    verification.Currency,
			Status:      verification.Status,
			ReceiptURL:  verification.ReceiptURL,
			ProcessedAt: time.Now().UTC(),
		}
	}

	affected, err := s.repo.MarkPaymentStatus(ctx, bookingID, status, req.PaymentID, details)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment status")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "payment status already settled")
	}

	updated, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload booking")
	}
	return updated, nil
}

// ListForStudent returns the calling student's bookings.
func (s *BookingService) ListForStudent(ctx context.Context, studentID string) ([]models.BookingDetail, error) {
	bookings, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	return bookings, nil
}

// ListForTrainer returns the calling trainer's bookings.
func (s *BookingService) ListForTrainer(ctx context.Context, trainerID string) ([]models.BookingDetail, error) {
	bookings, err := s.repo.ListForTrainer(ctx, trainerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	return bookings, nil
}
