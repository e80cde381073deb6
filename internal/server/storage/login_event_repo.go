package storage

import (
	"context"
	"time"

	"github.com/citsolutions/vpnportal/pkg/models"
)

// LoginEventRepository appends to and reads the authentication audit ledger.
// Rows are immutable; there are no update or delete methods.
type LoginEventRepository struct {
	db *DB
}

func NewLoginEventRepository(db *DB) *LoginEventRepository {
	return &LoginEventRepository{db: db}
}

func (r *LoginEventRepository) Insert(ctx context.Context, event *models.LoginEvent) error {
	query := `
		INSERT INTO login_events (user_id, username_attempted, success, reason, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		event.UserID, event.UsernameAttempted, event.Success, event.Reason,
		event.IPAddress, event.UserAgent,
	).Scan(&event.ID, &event.CreatedAt)
}

// FailureStats returns the number of failed attempts for a username since
// the given instant, plus the time of the most recent one.
func (r *LoginEventRepository) FailureStats(ctx context.Context, username string, since time.Time) (int, *time.Time, error) {
	var row struct {
		Count int        `db:"count"`
		Last  *time.Time `db:"last"`
	}
	query := `
		SELECT COUNT(*) AS count, MAX(created_at) AS last
		FROM login_events
		WHERE username_attempted = $1 AND success = false AND created_at >= $2
	`
	if err := r.db.GetContext(ctx, &row, query, username, since); err != nil {
		return 0, nil, err
	}
	return row.Count, row.Last, nil
}

func (r *LoginEventRepository) ListRecent(ctx context.Context, limit int) ([]models.LoginEvent, error) {
	var events []models.LoginEvent
	query := `SELECT * FROM login_events ORDER BY created_at DESC LIMIT $1`
	err := r.db.SelectContext(ctx, &events, query, limit)
	return events, err
}
