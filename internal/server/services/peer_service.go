package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/citsolutions/vpnportal/internal/server/wireguard"
	"github.com/citsolutions/vpnportal/pkg/models"
)

const (
	defaultPeerLabel      = "Device"
	defaultAllowedIPs     = "0.0.0.0/0, ::/0"
	allocationMaxAttempts = 3
)

type PeerStore interface {
	Insert(ctx context.Context, peer *models.Peer) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Peer, error)
	List(ctx context.Context) ([]models.PeerRow, error)
	AddressesBySite(ctx context.Context, siteID uuid.UUID) ([]string, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByPublicKey(ctx context.Context, publicKey string) error
}

// WireGuardController is the control surface the provisioning engine drives.
type WireGuardController interface {
	AddPeer(ctx context.Context, publicKey, allowedIPs string, keepalive *int) error
	RemovePeer(ctx context.Context, publicKey string) error
	Status(ctx context.Context) (map[string]wireguard.PeerStatus, error)
	GenerateKeypair(ctx context.Context) (privateKey, publicKey string, err error)
}

// PeerService orchestrates two-phase peer provisioning: desired state goes
// to the datastore first, then to the live interface, with a compensating
// delete when the live apply fails. All operations require a superadmin
// principal.
type PeerService struct {
	peers PeerStore
	sites SiteStore
	pool  *AddressPool
	wg    WireGuardController
}

func NewPeerService(peers PeerStore, sites SiteStore, pool *AddressPool, wg WireGuardController) *PeerService {
	return &PeerService{peers: peers, sites: sites, pool: pool, wg: wg}
}

func requireSuperadmin(principal *models.Principal) error {
	if principal == nil || principal.User == nil || !principal.User.Superadmin {
		return ErrForbidden
	}
	return nil
}

// CreatePeer generates a keypair, allocates an address on the default site,
// commits the desired-state row and applies it live. The private key is
// discarded after the public key is derived; it is never persisted.
func (s *PeerService) CreatePeer(ctx context.Context, principal *models.Principal, label, allowedIPs string, keepalive *int) (*models.Peer, error) {
	if err := requireSuperadmin(principal); err != nil {
		return nil, err
	}

	label = strings.TrimSpace(label)
	if label == "" {
		label = defaultPeerLabel
	}
	allowedIPs = strings.TrimSpace(allowedIPs)
	if allowedIPs == "" {
		allowedIPs = defaultAllowedIPs
	}

	site, err := s.sites.GetDefault(ctx)
	if err != nil {
		return nil, fmt.Errorf("site lookup failed: %w", err)
	}
	if site == nil {
		return nil, ErrNoSite
	}

	_, publicKey, err := s.wg.GenerateKeypair(ctx)
	if err != nil {
		return nil, fmt.Errorf("keypair generation failed: %w", err)
	}

	for attempt := 0; attempt < allocationMaxAttempts; attempt++ {
		address, err := s.pool.NextAddress(ctx, site.ID)
		if err != nil {
			return nil, err
		}

		peer := &models.Peer{
			SiteID:               site.ID,
			Label:                label,
			PublicKey:            publicKey,
			AddressCIDR:          address,
			AllowedIPs:           allowedIPs,
			PersistentKeepaliveS: keepalive,
			Enabled:              true,
		}

		if err := s.peers.Insert(ctx, peer); err != nil {
			if isAddressConflict(err) {
				// A concurrent request took this address; rescan and retry.
				continue
			}
			return nil, fmt.Errorf("failed to store peer: %w", err)
		}

		if err := s.wg.AddPeer(ctx, publicKey, address, keepalive); err != nil {
			// The datastore must never keep a peer that was never applied
			// live: compensate by removing the just-inserted row.
			if derr := s.peers.DeleteByPublicKey(ctx, publicKey); derr != nil {
				log.Printf("Failed to roll back peer %s after live apply failure: %v", peer.ID, derr)
			}
			return nil, fmt.Errorf("failed to apply peer to interface: %w", err)
		}

		return peer, nil
	}

	return nil, fmt.Errorf("address allocation kept conflicting after %d attempts", allocationMaxAttempts)
}

// DeletePeer removes a peer. Live removal is best-effort; the desired-state
// row is deleted regardless so a peer can always be forgotten even when the
// interface is unreachable, at the cost of a possible stale live entry.
func (s *PeerService) DeletePeer(ctx context.Context, principal *models.Principal, peerID uuid.UUID) error {
	if err := requireSuperadmin(principal); err != nil {
		return err
	}

	peer, err := s.peers.GetByID(ctx, peerID)
	if err != nil {
		return fmt.Errorf("peer lookup failed: %w", err)
	}
	if peer == nil {
		return nil
	}

	if err := s.wg.RemovePeer(ctx, peer.PublicKey); err != nil {
		log.Printf("Live removal of peer %s failed, deleting desired state anyway: %v", peerID, err)
	}

	return s.peers.DeleteByID(ctx, peerID)
}

// ListPeers joins desired-state rows with live interface status, keyed by
// public key. Peers absent from the live dump show as provisioned but
// inactive.
func (s *PeerService) ListPeers(ctx context.Context, principal *models.Principal) ([]models.PeerView, error) {
	if err := requireSuperadmin(principal); err != nil {
		return nil, err
	}

	rows, err := s.peers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list peers: %w", err)
	}

	live, err := s.wg.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read interface status: %w", err)
	}

	views := make([]models.PeerView, 0, len(rows))
	for _, row := range rows {
		view := models.PeerView{PeerRow: row}
		if status, ok := live[row.PublicKey]; ok {
			view.Live = true
			view.Endpoint = status.Endpoint
			view.LiveAllowedIPs = status.AllowedIPs
			view.LatestHandshake = status.LatestHandshake
			view.Transfer = status.Transfer
		}
		views = append(views, view)
	}
	return views, nil
}

// isAddressConflict reports whether an insert failed on the
// (site_id, address_cidr) unique constraint.
func isAddressConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, "address")
	}
	return false
}
