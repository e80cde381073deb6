package storage

import (
	"context"
	"database/sql"
	"errors"
)

// SettingsRepository reads the settings(k, v) table of JSON-encoded policy
// blobs.
type SettingsRepository struct {
	db *DB
}

func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the raw value for a key and whether the key exists.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	query := `SELECT v FROM settings WHERE k = $1`
	err := r.db.GetContext(ctx, &value, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (k, v) VALUES ($1, $2)
		ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v
	`
	_, err := r.db.ExecContext(ctx, query, key, value)
	return err
}
