package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/citsolutions/vpnportal/pkg/models"
	"github.com/citsolutions/vpnportal/pkg/utils"
)

const (
	defaultIdleSeconds     = 1500
	defaultAbsoluteSeconds = 1800
)

type SessionStore interface {
	Insert(ctx context.Context, session *models.Session) error
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	Touch(ctx context.Context, token string, at time.Time) error
	Revoke(ctx context.Context, token string) error
	RevokeExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionService issues, enforces and revokes server-side sessions. A
// session is usable iff not revoked, within its absolute lifetime and
// within the idle window since its last activity.
type SessionService struct {
	sessions        SessionStore
	idleSeconds     int
	absoluteSeconds int
	now             func() time.Time
}

func NewSessionService(sessions SessionStore) *SessionService {
	idle := defaultIdleSeconds
	if env := os.Getenv("SESSION_IDLE_SECONDS"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			idle = n
		}
	}

	absolute := defaultAbsoluteSeconds
	if env := os.Getenv("SESSION_ABSOLUTE_SECONDS"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			absolute = n
		}
	}

	// absolute <= idle is a degenerate but permitted configuration; the
	// absolute cap simply dominates.
	return &SessionService{
		sessions:        sessions,
		idleSeconds:     idle,
		absoluteSeconds: absolute,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Create issues a new session and returns its opaque token.
func (s *SessionService) Create(ctx context.Context, userID uuid.UUID, ip, userAgent string) (string, error) {
	token, err := utils.NewSessionToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	session := &models.Session{
		Token:                  token,
		UserID:                 userID,
		IssuedAt:               now,
		ExpiresAt:              now.Add(time.Duration(s.absoluteSeconds) * time.Second),
		LastActiveAt:           now,
		IdleTimeoutSeconds:     s.idleSeconds,
		AbsoluteTimeoutSeconds: s.absoluteSeconds,
		IPAddress:              ip,
		UserAgent:              userAgent,
	}

	if err := s.sessions.Insert(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return token, nil
}

// Enforce validates a bearer token and touches its activity timestamp.
// It returns (nil, nil) for any token that is unknown, revoked or expired;
// a non-nil error only signals a datastore failure.
func (s *SessionService) Enforce(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Revoked {
		return nil, nil
	}

	now := s.now()
	if now.After(session.ExpiresAt) {
		if err := s.sessions.Revoke(ctx, token); err != nil {
			return nil, err
		}
		return nil, nil
	}

	idle := time.Duration(session.IdleTimeoutSeconds) * time.Second
	if now.Sub(session.LastActiveAt) > idle {
		if err := s.sessions.Revoke(ctx, token); err != nil {
			return nil, err
		}
		return nil, nil
	}

	// Two concurrent touches both write "now"; last-write-wins is fine.
	if err := s.sessions.Touch(ctx, token, now); err != nil {
		return nil, err
	}
	session.LastActiveAt = now
	return session, nil
}

// Revoke marks a session revoked. Idempotent on missing or already-revoked
// tokens.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, token)
}

// Sweep revokes sessions past their absolute expiry.
func (s *SessionService) Sweep(ctx context.Context) (int64, error) {
	return s.sessions.RevokeExpired(ctx, s.now())
}
