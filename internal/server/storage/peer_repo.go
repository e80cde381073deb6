package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/citsolutions/vpnportal/pkg/models"
)

type PeerRepository struct {
	db *DB
}

func NewPeerRepository(db *DB) *PeerRepository {
	return &PeerRepository{db: db}
}

func (r *PeerRepository) Insert(ctx context.Context, peer *models.Peer) error {
	query := `
		INSERT INTO peers (site_id, user_id, label, public_key, preshared_key,
			address_cidr, allowed_ips, dns_servers, persistent_keepalive_s, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, query,
		peer.SiteID, peer.UserID, peer.Label, peer.PublicKey, peer.PresharedKey,
		peer.AddressCIDR, peer.AllowedIPs, peer.DNSServers, peer.PersistentKeepaliveS,
		peer.Enabled,
	).Scan(&peer.ID)
}

func (r *PeerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Peer, error) {
	var peer models.Peer
	query := `SELECT * FROM peers WHERE id = $1`
	err := r.db.GetContext(ctx, &peer, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &peer, nil
}

func (r *PeerRepository) GetByPublicKey(ctx context.Context, publicKey string) (*models.Peer, error) {
	var peer models.Peer
	query := `SELECT * FROM peers WHERE public_key = $1`
	err := r.db.GetContext(ctx, &peer, query, publicKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &peer, nil
}

func (r *PeerRepository) List(ctx context.Context) ([]models.PeerRow, error) {
	var peers []models.PeerRow
	query := `
		SELECT p.*, u.username
		FROM peers p LEFT JOIN users u ON p.user_id = u.id
		ORDER BY p.created_at DESC
	`
	err := r.db.SelectContext(ctx, &peers, query)
	return peers, err
}

// AddressesBySite returns the address_cidr of every peer on a site, the
// input to next-address allocation.
func (r *PeerRepository) AddressesBySite(ctx context.Context, siteID uuid.UUID) ([]string, error) {
	var addresses []string
	query := `SELECT address_cidr FROM peers WHERE site_id = $1`
	err := r.db.SelectContext(ctx, &addresses, query, siteID)
	return addresses, err
}

func (r *PeerRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM peers WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// DeleteByPublicKey is the compensating action for a failed live apply.
func (r *PeerRepository) DeleteByPublicKey(ctx context.Context, publicKey string) error {
	query := `DELETE FROM peers WHERE public_key = $1`
	_, err := r.db.ExecContext(ctx, query, publicKey)
	return err
}
