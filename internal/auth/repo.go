package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-web/atelier/internal/gate"
	"github.com/atelier-web/atelier/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	RecordLogin(ctx context.Context, tokenID string, userID int64, expiresAt time.Time, ip, ua string) error
	RecordLogout(ctx context.Context, tokenID string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	var role string
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, role, email_verified, is_active, created_at, updated_at
		 FROM users WHERE lower(email) = lower($1)`, email).
		Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &role,
			&user.EmailVerified, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	user.Role = gate.Role(role)
	return &user, nil
}

// RecordLogin persists a session record for auditing.
func (r *PGRepository) RecordLogin(ctx context.Context, tokenID string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (token_id, user_id, created_at, expires_at, ip, user_agent)
		 VALUES ($1, $2, NOW(), $3, NULLIF($4, ''), NULLIF($5, ''))`,
		tokenID, userID, expiresAt.UTC(), ip, ua)
	return err
}

// RecordLogout marks the session record as ended.
func (r *PGRepository) RecordLogout(ctx context.Context, tokenID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions SET revoked_at = NOW() WHERE token_id = $1 AND revoked_at IS NULL`, tokenID)
	return err
}

var _ Repository = (*PGRepository)(nil)
