package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/citsolutions/vpnportal/pkg/models"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password_hash, mfa_enabled, is_active, is_superadmin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, user.MfaEnabled, user.Active, user.Superadmin,
	).Scan(&user.ID)
}

// GetByUsername returns the user regardless of active flag; the caller
// decides how inactive accounts are reported.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE username = $1`
	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, at, id)
	return err
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, hash, id)
	return err
}

// SetMfaSecret stores a pending secret without enabling MFA. The secret
// stays unusable until enrollment is confirmed.
func (r *UserRepository) SetMfaSecret(ctx context.Context, id uuid.UUID, secret string) error {
	query := `UPDATE users SET mfa_secret = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, secret, id)
	return err
}

// EnableMfa flips the enabled flag for a user that already holds a secret.
func (r *UserRepository) EnableMfa(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET mfa_enabled = true WHERE id = $1 AND mfa_secret IS NOT NULL`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// DisableMfa clears the enabled flag and the stored secret together; a
// disabled account never retains the old secret value.
func (r *UserRepository) DisableMfa(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET mfa_enabled = false, mfa_secret = NULL WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *UserRepository) SetSuperadmin(ctx context.Context, id uuid.UUID, superadmin bool) error {
	query := `UPDATE users SET is_superadmin = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, superadmin, id)
	return err
}
