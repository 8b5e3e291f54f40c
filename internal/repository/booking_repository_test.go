package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingomarket/lingomarket-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func bookingRows(id, studentID, trainerID string, paymentStatus models.PaymentStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "student_id", "trainer_id", "student_name", "status", "payment_status", "payment_method",
		"amount", "payment_id", "session_id", "notes", "paid_amount", "paid_currency", "provider_status",
		"receipt_url", "payment_settled_at", "created_at", "updated_at",
	}).AddRow(id, studentID, trainerID, "Student", string(models.BookingStatusPending), string(paymentStatus),
		string(models.PaymentMethodMock), 25.0, nil, nil, "", nil, nil, nil, nil, nil, now, now)
}

func TestBookingCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(1, 1))

	booking := &models.Booking{
		StudentID:     "s1",
		TrainerID:     "t1",
		StudentName:   "Student",
		PaymentMethod: models.PaymentMethodMock,
		Amount:        25,
	}
	err := repo.Create(context.Background(), booking)
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Equal(t, models.PaymentStatusPending, booking.PaymentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1").
		WithArgs("b1").
		WillReturnRows(bookingRows("b1", "s1", "t1", models.PaymentStatusPending))

	booking, err := repo.FindByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", booking.ID)
	assert.Equal(t, models.PaymentStatusPending, booking.PaymentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaymentStatusMovesPendingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("UPDATE bookings SET payment_status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	details := &models.PaymentDetails{Amount: 25, Currency: "usd", Status: "succeeded", ProcessedAt: time.Now()}
	affected, err := repo.MarkPaymentStatus(context.Background(), "b1", models.PaymentStatusCompleted, "mock_pay_1", details)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaymentStatusIgnoresSettledRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("UPDATE bookings SET payment_status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.MarkPaymentStatus(context.Background(), "b1", models.PaymentStatusFailed, "mock_pay_1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAllByIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id = ANY\\(\\$1\\)").
		WillReturnRows(bookingRows("b1", "s1", "t1", models.PaymentStatusCompleted))

	bookings, err := repo.FindAllByIDs(context.Background(), []string{"b1"})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAllByIDsEmptyInput(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	bookings, err := repo.FindAllByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, bookings)
}

func TestListPaidEarnings(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE trainer_id = \\$1 AND payment_status = \\$2").
		WithArgs("t1", string(models.PaymentStatusCompleted)).
		WillReturnRows(bookingRows("b1", "s1", "t1", models.PaymentStatusCompleted))

	bookings, err := repo.ListPaidEarnings(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
