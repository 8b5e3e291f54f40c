package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lingomarket/lingomarket-api/internal/models"
)

const userColumns = `id, email, password_hash, full_name, role, active, last_login,
        bio, image_url, languages, specializations, experience, hourly_rate, phone, location, teaching_style, available,
        total_bookings, total_sessions, completed_sessions, total_earnings, rating, created_at, updated_at`

// UserRepository provides database access for user accounts and profiles.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = $1 LIMIT 1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1 LIMIT 1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users (id, email, password_hash, full_name, role, active,
        bio, image_url, languages, specializations, experience, hourly_rate, phone, location, teaching_style, available,
        total_bookings, total_sessions, completed_sessions, total_earnings, rating, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :full_name, :role, :active,
        :bio, :image_url, :languages, :specializations, :experience, :hourly_rate, :phone, :location, :teaching_style, :available,
        :total_bookings, :total_sessions, :completed_sessions, :total_earnings, :rating, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateProfile persists the mutable profile attributes of a user.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET full_name = :full_name, bio = :bio, image_url = :image_url,
        languages = :languages, specializations = :specializations, experience = :experience,
        hourly_rate = :hourly_rate, phone = :phone, location = :location, teaching_style = :teaching_style,
        available = :available, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Stats returns the aggregate counters for a user.
func (r *UserRepository) Stats(ctx context.Context, id string) (*models.UserStats, error) {
	const query = `SELECT total_bookings, total_sessions, completed_sessions, total_earnings, rating FROM users WHERE id = $1`
	var stats models.UserStats
	if err := r.db.GetContext(ctx, &stats, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("load user stats: %w", err)
	}
	return &stats, nil
}

// IncrementBookingCount bumps a trainer's booking counter.
func (r *UserRepository) IncrementBookingCount(ctx context.Context, trainerID string) error {
	const query = `UPDATE users SET total_bookings = total_bookings + 1, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, trainerID, time.Now().UTC()); err != nil {
		return fmt.Errorf("increment booking count: %w", err)
	}
	return nil
}

// RecordCompletedSession adds a completed session and its earnings to a trainer.
func (r *UserRepository) RecordCompletedSession(ctx context.Context, trainerID string, earnings float64) error {
	const query = `UPDATE users SET total_sessions = total_sessions + 1,
        completed_sessions = completed_sessions + 1,
        total_earnings = total_earnings + $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, trainerID, earnings, time.Now().UTC()); err != nil {
		return fmt.Errorf("record completed session: %w", err)
	}
	return nil
}

// UpdateRating refreshes a trainer's aggregate rating.
func (r *UserRepository) UpdateRating(ctx context.Context, trainerID string, rating float64) error {
	const query = `UPDATE users SET rating = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, trainerID, rating, time.Now().UTC()); err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	return nil
}

// SearchTrainers returns active trainers matching the discovery criteria.
// Ties on the primary sort key break deterministically on id.
func (r *UserRepository) SearchTrainers(ctx context.Context, filter models.TrainerFilter) ([]models.TrainerSummary, error) {
	base := `FROM users WHERE role = $1 AND active = TRUE`
	args := []interface{}{models.RoleTrainer}
	var conditions []string

	if filter.Language != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(languages) lang WHERE lang ILIKE $%d)", len(args)+1))
		args = append(args, "%"+filter.Language+"%")
	}
	if filter.MinRate != nil {
		conditions = append(conditions, fmt.Sprintf("hourly_rate >= $%d", len(args)+1))
		args = append(args, *filter.MinRate)
	}
	if filter.MaxRate != nil {
		conditions = append(conditions, fmt.Sprintf("hourly_rate <= $%d", len(args)+1))
		args = append(args, *filter.MaxRate)
	}
	if filter.MinExperience != nil {
		conditions = append(conditions, fmt.Sprintf("experience >= $%d", len(args)+1))
		args = append(args, *filter.MinExperience)
	}
	if filter.Specialization != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(specializations) spec WHERE spec ILIKE $%d)", len(args)+1))
		args = append(args, "%"+filter.Specialization+"%")
	}
	if filter.MinRating != nil {
		conditions = append(conditions, fmt.Sprintf("rating >= $%d", len(args)+1))
		args = append(args, *filter.MinRating)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf(`(full_name ILIKE $%d OR bio ILIKE $%d
            OR EXISTS (SELECT 1 FROM unnest(languages) lang WHERE lang ILIKE $%d)
            OR EXISTS (SELECT 1 FROM unnest(specializations) spec WHERE spec ILIKE $%d))`, idx, idx, idx, idx))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := base
	if len(conditions) > 0 {
		clause += " AND " + strings.Join(conditions, " AND ")
	}

	var orderBy string
	switch filter.SortBy {
	case models.SortByPriceLow:
		orderBy = "hourly_rate ASC"
	case models.SortByPriceHigh:
		orderBy = "hourly_rate DESC"
	case models.SortByExperience:
		orderBy = "experience DESC"
	default:
		orderBy = "rating DESC"
	}

	query := fmt.Sprintf(`SELECT id, full_name, bio, image_url, languages, specializations,
        experience, hourly_rate, location, teaching_style, available, rating, total_bookings
        %s ORDER BY %s, id ASC`, clause, orderBy)

	var trainers []models.TrainerSummary
	if err := r.db.SelectContext(ctx, &trainers, query, args...); err != nil {
		return nil, fmt.Errorf("search trainers: %w", err)
	}
	return trainers, nil
}

// RevokeUserRefreshTokens revokes every active refresh token for a user.
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}

// CreateRefreshToken stores a new refresh token session.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	const query = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, revoked, ip_address, user_agent)
        VALUES (:id, :user_id, :token, :expires_at, :created_at, :revoked, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken looks up a refresh token by its value.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent
        FROM refresh_tokens WHERE token = $1 LIMIT 1`
	var stored models.RefreshToken
	if err := r.db.GetContext(ctx, &stored, query, token); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &stored, nil
}

// RevokeRefreshToken marks a single refresh token revoked.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
