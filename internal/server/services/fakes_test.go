package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/citsolutions/vpnportal/internal/server/wireguard"
	"github.com/citsolutions/vpnportal/pkg/models"
)

// In-memory store fakes shared by the service tests.

type memSettings struct {
	data map[string]string
}

func (m *memSettings) Get(_ context.Context, key string) (string, bool, error) {
	if m.data == nil {
		return "", false, nil
	}
	v, ok := m.data[key]
	return v, ok, nil
}

type memEvents struct {
	events []models.LoginEvent
}

func (m *memEvents) Insert(_ context.Context, event *models.LoginEvent) error {
	event.ID = uuid.New()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	m.events = append(m.events, *event)
	return nil
}

func (m *memEvents) FailureStats(_ context.Context, username string, since time.Time) (int, *time.Time, error) {
	count := 0
	var last *time.Time
	for i := range m.events {
		e := m.events[i]
		if e.UsernameAttempted != username || e.Success || e.CreatedAt.Before(since) {
			continue
		}
		count++
		if last == nil || e.CreatedAt.After(*last) {
			t := e.CreatedAt
			last = &t
		}
	}
	return count, last, nil
}

func eventAt(username string, success bool, at time.Time) models.LoginEvent {
	return models.LoginEvent{ID: uuid.New(), UsernameAttempted: username, Success: success, CreatedAt: at}
}

type memUsers struct {
	byName map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byName: make(map[string]*models.User)}
}

func (m *memUsers) add(user *models.User) *models.User {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.byName[user.Username] = user
	return user
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return m.byName[username], nil
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range m.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if u, _ := m.GetByID(ctx, id); u != nil {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *memUsers) SetMfaSecret(ctx context.Context, id uuid.UUID, secret string) error {
	if u, _ := m.GetByID(ctx, id); u != nil {
		u.MfaSecret = &secret
	}
	return nil
}

func (m *memUsers) EnableMfa(ctx context.Context, id uuid.UUID) error {
	if u, _ := m.GetByID(ctx, id); u != nil && u.MfaSecret != nil {
		u.MfaEnabled = true
	}
	return nil
}

func (m *memUsers) DisableMfa(ctx context.Context, id uuid.UUID) error {
	if u, _ := m.GetByID(ctx, id); u != nil {
		u.MfaEnabled = false
		u.MfaSecret = nil
	}
	return nil
}

type memSessions struct {
	byToken map[string]*models.Session
}

func newMemSessions() *memSessions {
	return &memSessions{byToken: make(map[string]*models.Session)}
}

func (m *memSessions) Insert(_ context.Context, session *models.Session) error {
	session.ID = uuid.New()
	stored := *session
	m.byToken[session.Token] = &stored
	return nil
}

func (m *memSessions) GetByToken(_ context.Context, token string) (*models.Session, error) {
	stored, ok := m.byToken[token]
	if !ok {
		return nil, nil
	}
	copied := *stored
	return &copied, nil
}

func (m *memSessions) Touch(_ context.Context, token string, at time.Time) error {
	if stored, ok := m.byToken[token]; ok {
		stored.LastActiveAt = at
	}
	return nil
}

func (m *memSessions) Revoke(_ context.Context, token string) error {
	if stored, ok := m.byToken[token]; ok {
		stored.Revoked = true
	}
	return nil
}

func (m *memSessions) RevokeExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, stored := range m.byToken {
		if !stored.Revoked && now.After(stored.ExpiresAt) {
			stored.Revoked = true
			n++
		}
	}
	return n, nil
}

type memSites struct {
	sites []*models.Site
}

func (m *memSites) GetDefault(_ context.Context) (*models.Site, error) {
	if len(m.sites) == 0 {
		return nil, nil
	}
	return m.sites[0], nil
}

func (m *memSites) GetByID(_ context.Context, id uuid.UUID) (*models.Site, error) {
	for _, s := range m.sites {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

type memPeers struct {
	rows []*models.Peer

	// failConflicts makes the next N inserts fail with a unique-constraint
	// violation, simulating a concurrent allocation.
	failConflicts int
}

func (m *memPeers) Insert(_ context.Context, peer *models.Peer) error {
	if m.failConflicts > 0 {
		m.failConflicts--
		return &pq.Error{Code: "23505", Constraint: "peers_site_id_address_cidr_key"}
	}
	for _, row := range m.rows {
		if row.SiteID == peer.SiteID && row.AddressCIDR == peer.AddressCIDR {
			return &pq.Error{Code: "23505", Constraint: "peers_site_id_address_cidr_key"}
		}
	}
	peer.ID = uuid.New()
	peer.CreatedAt = time.Now().UTC()
	stored := *peer
	m.rows = append(m.rows, &stored)
	return nil
}

func (m *memPeers) GetByID(_ context.Context, id uuid.UUID) (*models.Peer, error) {
	for _, row := range m.rows {
		if row.ID == id {
			copied := *row
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memPeers) List(_ context.Context) ([]models.PeerRow, error) {
	out := make([]models.PeerRow, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, models.PeerRow{Peer: *row})
	}
	return out, nil
}

func (m *memPeers) AddressesBySite(_ context.Context, siteID uuid.UUID) ([]string, error) {
	var out []string
	for _, row := range m.rows {
		if row.SiteID == siteID {
			out = append(out, row.AddressCIDR)
		}
	}
	return out, nil
}

func (m *memPeers) DeleteByID(_ context.Context, id uuid.UUID) error {
	for i, row := range m.rows {
		if row.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memPeers) DeleteByPublicKey(_ context.Context, publicKey string) error {
	for i, row := range m.rows {
		if row.PublicKey == publicKey {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeWG struct {
	added      map[string]string
	keepalives map[string]*int
	removed    []string
	status     map[string]wireguard.PeerStatus

	addErr    error
	removeErr error
	statusErr error
}

func newFakeWG() *fakeWG {
	return &fakeWG{
		added:      make(map[string]string),
		keepalives: make(map[string]*int),
		status:     make(map[string]wireguard.PeerStatus),
	}
}

func (f *fakeWG) AddPeer(_ context.Context, publicKey, allowedIPs string, keepalive *int) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added[publicKey] = allowedIPs
	f.keepalives[publicKey] = keepalive
	return nil
}

func (f *fakeWG) RemovePeer(_ context.Context, publicKey string) error {
	f.removed = append(f.removed, publicKey)
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.added, publicKey)
	return nil
}

func (f *fakeWG) Status(_ context.Context) (map[string]wireguard.PeerStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func (f *fakeWG) GenerateKeypair(_ context.Context) (string, string, error) {
	pub := "pub-" + uuid.NewString()
	return "priv-" + uuid.NewString(), pub, nil
}
