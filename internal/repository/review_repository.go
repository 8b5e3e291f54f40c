package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lingomarket/lingomarket-api/internal/models"
)

const reviewColumns = `id, student_id, trainer_id, session_id, booking_id, rating, comment, student_name, created_at`

// ErrDuplicateReview surfaces the (student_id, session_id) unique index.
var ErrDuplicateReview = fmt.Errorf("review already exists")

// ReviewRepository handles persistence of reviews.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. The reviews table carries a unique index on
// (student_id, session_id); a violation maps to ErrDuplicateReview.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO reviews (id, student_id, trainer_id, session_id, booking_id, rating, comment, student_name, created_at)
        VALUES (:id, :student_id, :trainer_id, :session_id, :booking_id, :rating, :comment, :student_name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateReview
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// ExistsForSession reports whether the student already reviewed the session.
func (r *ReviewRepository) ExistsForSession(ctx context.Context, studentID, sessionID string) (bool, error) {
	const query = `SELECT 1 FROM reviews WHERE student_id = $1 AND session_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check review exists: %w", err)
	}
	return true, nil
}

// ListForTrainer returns a trainer's reviews, newest first.
func (r *ReviewRepository) ListForTrainer(ctx context.Context, trainerID string) ([]models.Review, error) {
	query := fmt.Sprintf("SELECT %s FROM reviews WHERE trainer_id = $1 ORDER BY created_at DESC", reviewColumns)
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, trainerID); err != nil {
		return nil, fmt.Errorf("list trainer reviews: %w", err)
	}
	return reviews, nil
}

// ListForSession returns the reviews left on a session, newest first.
func (r *ReviewRepository) ListForSession(ctx context.Context, sessionID string) ([]models.Review, error) {
	query := fmt.Sprintf("SELECT %s FROM reviews WHERE session_id = $1 ORDER BY created_at DESC", reviewColumns)
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, sessionID); err != nil {
		return nil, fmt.Errorf("list session reviews: %w", err)
	}
	return reviews, nil
}

// AverageRating computes the trainer's current average across all reviews.
func (r *ReviewRepository) AverageRating(ctx context.Context, trainerID string) (float64, error) {
	const query = `SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE trainer_id = $1`
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, trainerID); err != nil {
		return 0, fmt.Errorf("average rating: %w", err)
	}
	return avg, nil
}
