package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the two sides of the marketplace.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTrainer UserRole = "trainer"
)

// User represents an application user stored in the users table.
// Profile and stats columns are flattened into the same row.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`

	Bio             string         `db:"bio" json:"bio"`
	ImageURL        string         `db:"image_url" json:"image_url"`
	Languages       pq.StringArray `db:"languages" json:"languages"`
	Specializations pq.StringArray `db:"specializations" json:"specializations"`
	Experience      int            `db:"experience" json:"experience"`
	HourlyRate      float64        `db:"hourly_rate" json:"hourly_rate"`
	Phone           string         `db:"phone" json:"phone"`
	Location        string         `db:"location" json:"location"`
	TeachingStyle   string         `db:"teaching_style" json:"teaching_style"`
	Available       bool           `db:"available" json:"available"`

	TotalBookings     int     `db:"total_bookings" json:"total_bookings"`
	TotalSessions     int     `db:"total_sessions" json:"total_sessions"`
	CompletedSessions int     `db:"completed_sessions" json:"completed_sessions"`
	TotalEarnings     float64 `db:"total_earnings" json:"total_earnings"`
	Rating            float64 `db:"rating" json:"rating"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TrainerSummary is the discovery projection of a trainer profile.
type TrainerSummary struct {
	ID              string         `db:"id" json:"id"`
	FullName        string         `db:"full_name" json:"full_name"`
	Bio             string         `db:"bio" json:"bio"`
	ImageURL        string         `db:"image_url" json:"image_url"`
	Languages       pq.StringArray `db:"languages" json:"languages"`
	Specializations pq.StringArray `db:"specializations" json:"specializations"`
	Experience      int            `db:"experience" json:"experience"`
	HourlyRate      float64        `db:"hourly_rate" json:"hourly_rate"`
	Location        string         `db:"location" json:"location"`
	TeachingStyle   string         `db:"teaching_style" json:"teaching_style"`
	Available       bool           `db:"available" json:"available"`
	Rating          float64        `db:"rating" json:"rating"`
	TotalBookings   int            `db:"total_bookings" json:"total_bookings"`
}

// TrainerFilter captures trainer discovery criteria.
// Rate bounds are inclusive; string filters match case-insensitive substrings.
type TrainerFilter struct {
	Language       string
	MinRate        *float64
	MaxRate        *float64
	MinExperience  *int
	Specialization string
	MinRating      *float64
	Search         string
	SortBy         string
}

// Recognised sortBy values for trainer discovery.
const (
	SortByRating     = "rating"
	SortByPriceLow   = "price_low"
	SortByPriceHigh  = "price_high"
	SortByExperience = "experience"
)

// UserStats is the dashboard stats projection.
type UserStats struct {
	TotalBookings     int     `db:"total_bookings" json:"total_bookings"`
	TotalSessions     int     `db:"total_sessions" json:"total_sessions"`
	CompletedSessions int     `db:"completed_sessions" json:"completed_sessions"`
	TotalEarnings     float64 `db:"total_earnings" json:"total_earnings"`
	Rating            float64 `db:"rating" json:"rating"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
