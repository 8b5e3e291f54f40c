package models

import (
	"time"

	"github.com/lib/pq"
)

// SessionStatus represents the lifecycle of a scheduled session.
type SessionStatus string

// Transitions run strictly forward: scheduled -> active -> completed.
// Cancellation is allowed from scheduled and active only.
const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// SessionLevel grades the target proficiency of a session.
type SessionLevel string

const (
	SessionLevelBeginner     SessionLevel = "beginner"
	SessionLevelIntermediate SessionLevel = "intermediate"
	SessionLevelAdvanced     SessionLevel = "advanced"
)

// Session is one scheduled meeting owned by a trainer, covering one or more
// paid bookings. Student and booking id sets are denormalised array columns.
type Session struct {
	ID            string         `db:"id" json:"id"`
	TrainerID     string         `db:"trainer_id" json:"trainer_id"`
	StudentIDs    pq.StringArray `db:"student_ids" json:"student_ids"`
	BookingIDs    pq.StringArray `db:"booking_ids" json:"booking_ids"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	MeetingLink   string         `db:"meeting_link" json:"meeting_link"`
	MeetingRoomID string         `db:"meeting_room_id" json:"meeting_room_id"`
	Status        SessionStatus  `db:"status" json:"status"`
	Duration      int            `db:"duration" json:"duration"`
	MaxStudents   int            `db:"max_students" json:"max_students"`
	ScheduledDate time.Time      `db:"scheduled_date" json:"scheduled_date"`
	Language      string         `db:"language" json:"language"`
	Level         SessionLevel   `db:"level" json:"level"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the status admits no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

// CanTransitionTo reports whether the session state machine allows moving
// from s to next.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionStatusScheduled:
		return next == SessionStatusActive || next == SessionStatusCancelled
	case SessionStatusActive:
		return next == SessionStatusCompleted || next == SessionStatusCancelled
	default:
		return false
	}
}
