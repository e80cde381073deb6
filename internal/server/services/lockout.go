package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/citsolutions/vpnportal/pkg/models"
)

const lockoutPolicyKey = "lockout_policy"

// LockoutPolicy is the brute-force policy tuple, loaded from the settings
// store with hard-coded fallbacks.
type LockoutPolicy struct {
	WindowMinutes int `json:"window_minutes"`
	MaxAttempts   int `json:"max_attempts"`
	LockMinutes   int `json:"lock_minutes"`
}

func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{WindowMinutes: 15, MaxAttempts: 5, LockMinutes: 15}
}

type SettingsStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

type LoginEventStore interface {
	Insert(ctx context.Context, event *models.LoginEvent) error
	FailureStats(ctx context.Context, username string, since time.Time) (int, *time.Time, error)
}

// Lockout evaluates the brute-force policy against the login-event ledger.
// The policy is per-username, not per-IP, and the window slides: it is
// re-evaluated on every attempt rather than stored as a lock-until value.
type Lockout struct {
	settings SettingsStore
	events   LoginEventStore
	now      func() time.Time
}

func NewLockout(settings SettingsStore, events LoginEventStore) *Lockout {
	return &Lockout{
		settings: settings,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Policy loads the lockout policy, falling back to defaults when the
// settings row is absent or unparseable.
func (l *Lockout) Policy(ctx context.Context) LockoutPolicy {
	policy := DefaultLockoutPolicy()

	raw, ok, err := l.settings.Get(ctx, lockoutPolicyKey)
	if err != nil {
		log.Printf("Failed to load lockout policy, using defaults: %v", err)
		return policy
	}
	if !ok {
		return policy
	}

	var loaded LockoutPolicy
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		log.Printf("Malformed lockout policy setting, using defaults: %v", err)
		return policy
	}
	if loaded.WindowMinutes <= 0 || loaded.MaxAttempts <= 0 || loaded.LockMinutes <= 0 {
		return policy
	}
	return loaded
}

// Check reports whether the username is currently locked and, if so, when
// the caller may retry. Locked iff at least MaxAttempts failures exist
// within the window; the retry time is the latest failure plus LockMinutes.
func (l *Lockout) Check(ctx context.Context, username string, policy LockoutPolicy) (bool, time.Time, error) {
	since := l.now().Add(-time.Duration(policy.WindowMinutes) * time.Minute)

	count, last, err := l.events.FailureStats(ctx, username, since)
	if err != nil {
		return false, time.Time{}, err
	}
	if count < policy.MaxAttempts || last == nil {
		return false, time.Time{}, nil
	}

	return true, last.Add(time.Duration(policy.LockMinutes) * time.Minute), nil
}

// Record appends one immutable ledger row. It is called for every attempt,
// including unknown usernames, so the side effects of valid and invalid
// usernames are indistinguishable.
func (l *Lockout) Record(ctx context.Context, userID *uuid.UUID, username string, success bool, reason, ip, userAgent string) {
	event := &models.LoginEvent{
		UserID:            userID,
		UsernameAttempted: username,
		Success:           success,
		Reason:            reason,
		IPAddress:         ip,
		UserAgent:         userAgent,
	}
	if err := l.events.Insert(ctx, event); err != nil {
		log.Printf("Failed to record login event for %q: %v", username, err)
	}
}
