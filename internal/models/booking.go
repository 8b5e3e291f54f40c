package models

import "time"

// BookingStatus represents the engagement lifecycle of a booking.
type BookingStatus string

// Possible booking statuses. Confirmed means the booking has been
// grouped into a session; completed and cancelled follow the session.
const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// PaymentStatus tracks settlement of a booking's payment.
// Transitions only pending -> completed or pending -> failed.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentMethod identifies which payment path settled a booking.
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodMock PaymentMethod = "mock"
)

// Booking records a single paid engagement between one student and one trainer.
// Amount is a snapshot of the trainer's rate at booking time and is never
// recomputed.
type Booking struct {
	ID            string        `db:"id" json:"id"`
	StudentID     string        `db:"student_id" json:"student_id"`
	TrainerID     string        `db:"trainer_id" json:"trainer_id"`
	StudentName   string        `db:"student_name" json:"student_name"`
	Status        BookingStatus `db:"status" json:"status"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"payment_method"`
	Amount        float64       `db:"amount" json:"amount"`
	PaymentID     *string       `db:"payment_id" json:"payment_id,omitempty"`
	SessionID     *string       `db:"session_id" json:"session_id,omitempty"`
	Notes         string        `db:"notes" json:"notes,omitempty"`

	PaidAmount       *float64   `db:"paid_amount" json:"paid_amount,omitempty"`
	PaidCurrency     *string    `db:"paid_currency" json:"paid_currency,omitempty"`
	ProviderStatus   *string    `db:"provider_status" json:"provider_status,omitempty"`
	ReceiptURL       *string    `db:"receipt_url" json:"receipt_url,omitempty"`
	PaymentSettledAt *time.Time `db:"payment_settled_at" json:"payment_settled_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PaymentDetails is the settlement snapshot frozen onto a booking when its
// payment status leaves pending.
type PaymentDetails struct {
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	ReceiptURL  string    `json:"receipt_url,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// BookingDetail enriches Booking with trainer info for list views.
type BookingDetail struct {
	Booking
	TrainerName string `db:"trainer_name" json:"trainer_name"`
}
