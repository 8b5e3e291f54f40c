package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lingomarket/lingomarket-api/internal/models"
)

const sessionColumns = `id, trainer_id, student_ids, booking_ids, title, description, meeting_link, meeting_room_id,
        status, duration, max_students, scheduled_date, language, level, created_at, updated_at`

// ErrBookingsUnavailable signals that at least one booking could not be
// attached: wrong trainer, unpaid, or already part of another session.
var ErrBookingsUnavailable = fmt.Errorf("one or more bookings are not attachable")

// SessionRepository handles persistence of sessions and their booking links.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateWithBookings inserts the session and attaches every booking in a
// single transaction. The attachment UPDATE re-checks ownership, settled
// payment and unattached state row by row; if any booking fails the check
// the whole transaction rolls back and ErrBookingsUnavailable is returned.
func (r *SessionRepository) CreateWithBookings(ctx context.Context, session *models.Session, bookingIDs []string) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = models.SessionStatusScheduled
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin session tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO sessions (id, trainer_id, student_ids, booking_ids, title, description,
        meeting_link, meeting_room_id, status, duration, max_students, scheduled_date, language, level, created_at, updated_at)
        VALUES (:id, :trainer_id, :student_ids, :booking_ids, :title, :description,
        :meeting_link, :meeting_room_id, :status, :duration, :max_students, :scheduled_date, :language, :level, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, session); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	const attach = `UPDATE bookings SET session_id = $1, status = $2, updated_at = $3
        WHERE id = ANY($4) AND trainer_id = $5 AND payment_status = $6 AND session_id IS NULL`
	res, err := tx.ExecContext(ctx, attach, session.ID, models.BookingStatusConfirmed, now,
		pq.Array(bookingIDs), session.TrainerID, models.PaymentStatusCompleted)
	if err != nil {
		return fmt.Errorf("attach bookings: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach bookings rows: %w", err)
	}
	if affected != int64(len(bookingIDs)) {
		return ErrBookingsUnavailable
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session tx: %w", err)
	}
	return nil
}

// FindByID returns a session by its identifier.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE id = $1", sessionColumns)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	return &session, nil
}

// UpdateStatus moves the session to a new status and propagates the terminal
// statuses to the attached bookings in the same transaction.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const update = `UPDATE sessions SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, id, status, now); err != nil {
		return fmt.Errorf("update session status: %w", err)
	}

	var bookingStatus models.BookingStatus
	switch status {
	case models.SessionStatusCompleted:
		bookingStatus = models.BookingStatusCompleted
	case models.SessionStatusCancelled:
		bookingStatus = models.BookingStatusCancelled
	}
	if bookingStatus != "" {
		const propagate = `UPDATE bookings SET status = $2, updated_at = $3 WHERE session_id = $1`
		if _, err := tx.ExecContext(ctx, propagate, id, bookingStatus, now); err != nil {
			return fmt.Errorf("propagate session status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status tx: %w", err)
	}
	return nil
}

// ListForTrainer returns every session owned by a trainer, newest first.
func (r *SessionRepository) ListForTrainer(ctx context.Context, trainerID string) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE trainer_id = $1 ORDER BY scheduled_date DESC", sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, trainerID); err != nil {
		return nil, fmt.Errorf("list trainer sessions: %w", err)
	}
	return sessions, nil
}

// ListForStudent returns sessions covering the student, newest first.
func (r *SessionRepository) ListForStudent(ctx context.Context, studentID string) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE $1 = ANY(student_ids) ORDER BY scheduled_date DESC", sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, studentID); err != nil {
		return nil, fmt.Errorf("list student sessions: %w", err)
	}
	return sessions, nil
}
