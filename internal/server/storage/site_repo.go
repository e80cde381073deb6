package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/citsolutions/vpnportal/pkg/models"
)

type SiteRepository struct {
	db *DB
}

func NewSiteRepository(db *DB) *SiteRepository {
	return &SiteRepository{db: db}
}

func (r *SiteRepository) Create(ctx context.Context, site *models.Site) error {
	query := `INSERT INTO sites (wg_interface_ip) VALUES ($1) RETURNING id`
	return r.db.QueryRowContext(ctx, query, site.WgInterfaceIP).Scan(&site.ID)
}

// GetDefault returns the first configured site, or nil when none exists.
func (r *SiteRepository) GetDefault(ctx context.Context) (*models.Site, error) {
	var site models.Site
	query := `SELECT * FROM sites ORDER BY id ASC LIMIT 1`
	err := r.db.GetContext(ctx, &site, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &site, nil
}

func (r *SiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	var site models.Site
	query := `SELECT * FROM sites WHERE id = $1`
	err := r.db.GetContext(ctx, &site, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &site, nil
}
