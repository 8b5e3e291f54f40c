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

const bookingColumns = `id, student_id, trainer_id, student_name, status, payment_status, payment_method,
        amount, payment_id, session_id, notes, paid_amount, paid_currency, provider_status, receipt_url,
        payment_settled_at, created_at, updated_at`

// BookingRepository handles persistence of bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create persists a new booking with pending status.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.Status == "" {
		booking.Status = models.BookingStatusPending
	}
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = models.PaymentStatusPending
	}
	const query = `INSERT INTO bookings (id, student_id, trainer_id, student_name, status, payment_status, payment_method,
        amount, payment_id, session_id, notes, created_at, updated_at)
        VALUES (:id, :student_id, :trainer_id, :student_name, :status, :payment_status, :payment_method,
        :amount, :payment_id, :session_id, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// FindByID returns a booking by its identifier.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE id = $1", bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find booking by id: %w", err)
	}
	return &booking, nil
}

// MarkPaymentStatus transitions payment_status away from pending and freezes
// the settlement snapshot. The WHERE clause makes the transition a
// compare-and-swap: it returns the number of rows moved, zero meaning the
// booking was missing or no longer pending.
func (r *BookingRepository) MarkPaymentStatus(ctx context.Context, id string, status models.PaymentStatus, paymentID string, details *models.PaymentDetails) (int64, error) {
	const query = `UPDATE bookings SET payment_status = $2, payment_id = $3,
        paid_amount = $4, paid_currency = $5, provider_status = $6, receipt_url = $7,
        payment_settled_at = $8, updated_at = $9
        WHERE id = $1 AND payment_status = $10`

	var (
		paidAmount     interface{}
		paidCurrency   interface{}
		providerStatus interface{}
		receiptURL     interface{}
		settledAt      interface{}
	)
	if details != nil {
		paidAmount = details.Amount
		paidCurrency = details.Currency
		providerStatus = details.Status
		if details.ReceiptURL != "" {
			receiptURL = details.ReceiptURL
		}
		settledAt = details.ProcessedAt
	}

	res, err := r.db.ExecContext(ctx, query, id, status, paymentID,
		paidAmount, paidCurrency, providerStatus, receiptURL, settledAt,
		time.Now().UTC(), models.PaymentStatusPending)
	if err != nil {
		return 0, fmt.Errorf("mark payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark payment status rows: %w", err)
	}
	return affected, nil
}

// ListForStudent returns a student's bookings, newest first.
func (r *BookingRepository) ListForStudent(ctx context.Context, studentID string) ([]models.BookingDetail, error) {
	query := fmt.Sprintf(`SELECT %s, u.full_name AS trainer_name
        FROM bookings b LEFT JOIN users u ON u.id = b.trainer_id
        WHERE b.student_id = $1 ORDER BY b.created_at DESC`, prefixColumns("b", bookingColumns))
	var bookings []models.BookingDetail
	if err := r.db.SelectContext(ctx, &bookings, query, studentID); err != nil {
		return nil, fmt.Errorf("list student bookings: %w", err)
	}
	return bookings, nil
}

// ListForTrainer returns a trainer's bookings, newest first.
func (r *BookingRepository) ListForTrainer(ctx context.Context, trainerID string) ([]models.BookingDetail, error) {
	query := fmt.Sprintf(`SELECT %s, u.full_name AS trainer_name
        FROM bookings b LEFT JOIN users u ON u.id = b.trainer_id
        WHERE b.trainer_id = $1 ORDER BY b.created_at DESC`, prefixColumns("b", bookingColumns))
	var bookings []models.BookingDetail
	if err := r.db.SelectContext(ctx, &bookings, query, trainerID); err != nil {
		return nil, fmt.Errorf("list trainer bookings: %w", err)
	}
	return bookings, nil
}

// FindAllByIDs loads the bookings for the provided identifiers.
func (r *BookingRepository) FindAllByIDs(ctx context.Context, ids []string) ([]models.Booking, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE id = ANY($1)", bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find bookings by ids: %w", err)
	}
	return bookings, nil
}

// ListPaidEarnings returns payment-completed bookings for a trainer, oldest
// first, for statement exports.
func (r *BookingRepository) ListPaidEarnings(ctx context.Context, trainerID string) ([]models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE trainer_id = $1 AND payment_status = $2 ORDER BY created_at ASC`, bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, trainerID, models.PaymentStatusCompleted); err != nil {
		return nil, fmt.Errorf("list paid earnings: %w", err)
	}
	return bookings, nil
}
