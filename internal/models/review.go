package models

import "time"

// Review records one rating+comment per (student, session) pair. A review is
// immutable once created; uniqueness is enforced by the storage layer.
type Review struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	TrainerID   string    `db:"trainer_id" json:"trainer_id"`
	SessionID   string    `db:"session_id" json:"session_id"`
	BookingID   string    `db:"booking_id" json:"booking_id"`
	Rating      int       `db:"rating" json:"rating"`
	Comment     string    `db:"comment" json:"comment,omitempty"`
	StudentName string    `db:"student_name" json:"student_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ReviewSummary aggregates a trainer's reviews for display.
type ReviewSummary struct {
	TrainerID     string      `json:"trainer_id"`
	AverageRating float64     `json:"average_rating"`
	TotalReviews  int         `json:"total_reviews"`
	Histogram     map[int]int `json:"histogram"`
}
