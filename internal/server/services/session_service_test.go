package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestSessionService(store *memSessions, clock *time.Time) *SessionService {
	return &SessionService{
		sessions:        store,
		idleSeconds:     defaultIdleSeconds,
		absoluteSeconds: defaultAbsoluteSeconds,
		now:             func() time.Time { return *clock },
	}
}

func TestSessionCreateAndEnforce(t *testing.T) {
	store := newMemSessions()
	clock := time.Now().UTC()
	s := newTestSessionService(store, &clock)

	token, err := s.Create(context.Background(), uuid.New(), "10.0.0.1", "test")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("token length = %d, want 64", len(token))
	}

	session, err := s.Enforce(context.Background(), token)
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if session == nil {
		t.Fatal("fresh session rejected")
	}
}

func TestSessionEnforceUnknownToken(t *testing.T) {
	clock := time.Now().UTC()
	s := newTestSessionService(newMemSessions(), &clock)

	for _, token := range []string{"", "deadbeef"} {
		session, err := s.Enforce(context.Background(), token)
		if err != nil {
			t.Fatalf("Enforce(%q): %v", token, err)
		}
		if session != nil {
			t.Errorf("Enforce(%q) accepted an unknown token", token)
		}
	}
}

func TestSessionIdleBoundary(t *testing.T) {
	store := newMemSessions()
	clock := time.Now().UTC()
	s := newTestSessionService(store, &clock)

	token, err := s.Create(context.Background(), uuid.New(), "10.0.0.1", "test")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Exactly at the idle limit the session is still valid.
	clock = clock.Add(time.Duration(defaultIdleSeconds) * time.Second)
	session, err := s.Enforce(context.Background(), token)
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if session == nil {
		t.Fatal("session rejected at exactly the idle limit")
	}

	// The touch above reset the idle window; one second past it, rejected.
	clock = clock.Add(time.Duration(defaultIdleSeconds)*time.Second + time.Second)
	session, err = s.Enforce(context.Background(), token)
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if session != nil {
		t.Fatal("session accepted past the idle limit")
	}
	if stored := store.byToken[token]; !stored.Revoked {
		t.Error("idle-expired session was not revoked")
	}
}

func TestSessionAbsoluteCapDominatesTouches(t *testing.T) {
	store := newMemSessions()
	start := time.Now().UTC()
	clock := start
	s := newTestSessionService(store, &clock)

	token, err := s.Create(context.Background(), uuid.New(), "10.0.0.1", "test")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Keep the session active well within the idle window.
	for clock.Before(start.Add(time.Duration(defaultAbsoluteSeconds) * time.Second)) {
		clock = clock.Add(100 * time.Second)
		if clock.After(start.Add(time.Duration(defaultAbsoluteSeconds) * time.Second)) {
			break
		}
		if session, err := s.Enforce(context.Background(), token); err != nil || session == nil {
			t.Fatalf("session rejected within absolute lifetime at +%v (err=%v)", clock.Sub(start), err)
		}
	}

	clock = start.Add(time.Duration(defaultAbsoluteSeconds)*time.Second + time.Second)
	session, err := s.Enforce(context.Background(), token)
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	if session != nil {
		t.Fatal("constant activity must not extend the absolute lifetime")
	}
}

func TestSessionRevoke(t *testing.T) {
	store := newMemSessions()
	clock := time.Now().UTC()
	s := newTestSessionService(store, &clock)

	token, err := s.Create(context.Background(), uuid.New(), "10.0.0.1", "test")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Revoke(context.Background(), token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if session, _ := s.Enforce(context.Background(), token); session != nil {
		t.Fatal("revoked session accepted")
	}

	// Idempotent on already-revoked and unknown tokens.
	if err := s.Revoke(context.Background(), token); err != nil {
		t.Errorf("second Revoke: %v", err)
	}
	if err := s.Revoke(context.Background(), "no-such-token"); err != nil {
		t.Errorf("Revoke of unknown token: %v", err)
	}
}

func TestSessionSweep(t *testing.T) {
	store := newMemSessions()
	clock := time.Now().UTC()
	s := newTestSessionService(store, &clock)

	if _, err := s.Create(context.Background(), uuid.New(), "10.0.0.1", "test"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(context.Background(), uuid.New(), "10.0.0.1", "test"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	clock = clock.Add(time.Duration(defaultAbsoluteSeconds)*time.Second + time.Second)
	n, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 2 {
		t.Errorf("Sweep revoked %d sessions, want 2", n)
	}
}
