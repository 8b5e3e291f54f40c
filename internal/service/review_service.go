package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lingomarket/lingomarket-api/internal/models"
	"github.com/lingomarket/lingomarket-api/internal/repository"
	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
)

type reviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ExistsForSession(ctx context.Context, studentID, sessionID string) (bool, error)
	ListForTrainer(ctx context.Context, trainerID string) ([]models.Review, error)
	ListForSession(ctx context.Context, sessionID string) ([]models.Review, error)
	AverageRating(ctx context.Context, trainerID string) (float64, error)
}

type reviewSessionReader interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

type reviewBookingReader interface {
	FindAllByIDs(ctx context.Context, ids []string) ([]models.Booking, error)
}

type reviewRatingWriter interface {
	UpdateRating(ctx context.Context, trainerID string, rating float64) error
}

// CreateReviewRequest describes the review creation payload.
type CreateReviewRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"omitempty,max=500"`
}

// ReviewService gates review creation behind the attendance preconditions
// and keeps the trainer's aggregate rating in sync.
type ReviewService struct {
	repo      reviewRepository
	sessions  reviewSessionReader
	bookings  reviewBookingReader
	ratings   reviewRatingWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReviewService constructs ReviewService.
func NewReviewService(repo reviewRepository, sessions reviewSessionReader, bookings reviewBookingReader, ratings reviewRatingWriter, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		repo:      repo,
		sessions:  sessions,
		bookings:  bookings,
		ratings:   ratings,
		validator: validate,
		logger:    logger,
	}
}

// Create records a student's review of a completed session. The student must
// hold a paid booking inside the session, the session must be completed, and
// only one review per (student, session) pair is accepted.
func (s *ReviewService) Create(ctx context.Context, studentID, studentName string, req CreateReviewRequest) (*models.Review, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	session, err := s.sessions.FindByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Status != models.SessionStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrSessionNotCompleted, "session has not been completed yet")
	}

	booking, err := s.studentBooking(ctx, session, studentID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "caller did not attend this session")
	}
	if booking.PaymentStatus != models.PaymentStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "booking for this session is not paid")
	}

	// The unique index still backstops concurrent submissions.
	exists, err := s.repo.ExistsForSession(ctx, studentID, session.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing review")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateReview, "session already reviewed by this student")
	}

	review := &models.Review{
		StudentID:   studentID,
		TrainerID:   session.TrainerID,
		SessionID:   session.ID,
		BookingID:   booking.ID,
		Rating:      req.Rating,
		Comment:     req.Comment,
		StudentName: studentName,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateReview, "session already reviewed by this student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create review")
	}

	s.refreshTrainerRating(ctx, session.TrainerID)
	return review, nil
}

// ListForTrainer returns a trainer's reviews, newest first. Public.
func (s *ReviewService) ListForTrainer(ctx context.Context, trainerID string) ([]models.Review, error) {
	reviews, err := s.repo.ListForTrainer(ctx, trainerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	return reviews, nil
}

// ListForSession returns the reviews left on one session.
func (s *ReviewService) ListForSession(ctx context.Context, sessionID string) ([]models.Review, error) {
	reviews, err := s.repo.ListForSession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	return reviews, nil
}

// Summary aggregates a trainer's reviews into an average and a per-star
// histogram.
func (s *ReviewService) Summary(ctx context.Context, trainerID string) (*models.ReviewSummary, error) {
	reviews, err := s.repo.ListForTrainer(ctx, trainerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}

	summary := &models.ReviewSummary{
		TrainerID: trainerID,
		Histogram: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	var total int
	for _, r := range reviews {
		summary.Histogram[r.Rating]++
		total += r.Rating
	}
	summary.TotalReviews = len(reviews)
	if summary.TotalReviews > 0 {
		summary.AverageRating = float64(total) / float64(summary.TotalReviews)
	}
	return summary, nil
}

func (s *ReviewService) studentBooking(ctx context.Context, session *models.Session, studentID string) (*models.Booking, error) {
	bookings, err := s.bookings.FindAllByIDs(ctx, session.BookingIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session bookings")
	}
	for i := range bookings {
		if bookings[i].StudentID == studentID {
			return &bookings[i], nil
		}
	}
	return nil, nil
}

// refreshTrainerRating recomputes the stored average after a new review. A
// failure here never fails the review itself.
func (s *ReviewService) refreshTrainerRating(ctx context.Context, trainerID string) {
	avg, err := s.repo.AverageRating(ctx, trainerID)
	if err != nil {
		s.logger.Warn("failed to compute trainer rating", zap.String("trainer_id", trainerID), zap.Error(err))
		return
	}
	if err := s.ratings.UpdateRating(ctx, trainerID, avg); err != nil {
		s.logger.Warn("failed to store trainer rating", zap.String("trainer_id", trainerID), zap.Error(err))
	}
}
