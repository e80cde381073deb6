package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/citsolutions/vpnportal/pkg/models"
)

type SessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Insert(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (token, user_id, issued_at, expires_at, last_active_at,
			idle_timeout_seconds, absolute_timeout_seconds, revoked, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		session.Token, session.UserID, session.IssuedAt, session.ExpiresAt,
		session.LastActiveAt, session.IdleTimeoutSeconds, session.AbsoluteTimeoutSeconds,
		session.Revoked, session.IPAddress, session.UserAgent,
	).Scan(&session.ID)
}

func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	query := `SELECT * FROM sessions WHERE token = $1`
	err := r.db.GetContext(ctx, &session, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Touch(ctx context.Context, token string, at time.Time) error {
	query := `UPDATE sessions SET last_active_at = $1 WHERE token = $2`
	_, err := r.db.ExecContext(ctx, query, at, token)
	return err
}

// Revoke is idempotent: revoking an already-revoked or missing token is not
// an error.
func (r *SessionRepository) Revoke(ctx context.Context, token string) error {
	query := `UPDATE sessions SET revoked = true WHERE token = $1`
	_, err := r.db.ExecContext(ctx, query, token)
	return err
}

// RevokeExpired marks all sessions past their absolute expiry as revoked and
// returns how many rows changed.
func (r *SessionRepository) RevokeExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE sessions SET revoked = true WHERE revoked = false AND expires_at < $1`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
