package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server-side authority for a logged-in bearer. A session is
// usable iff it is not revoked, now <= ExpiresAt and the idle window since
// LastActiveAt has not elapsed. Sessions are revoked, never hard-deleted.
type Session struct {
	ID                     uuid.UUID `json:"id" db:"id"`
	Token                  string    `json:"-" db:"token"`
	UserID                 uuid.UUID `json:"user_id" db:"user_id"`
	IssuedAt               time.Time `json:"issued_at" db:"issued_at"`
	ExpiresAt              time.Time `json:"expires_at" db:"expires_at"`
	LastActiveAt           time.Time `json:"last_active_at" db:"last_active_at"`
	IdleTimeoutSeconds     int       `json:"idle_timeout_seconds" db:"idle_timeout_seconds"`
	AbsoluteTimeoutSeconds int       `json:"absolute_timeout_seconds" db:"absolute_timeout_seconds"`
	Revoked                bool      `json:"revoked" db:"revoked"`
	IPAddress              string    `json:"ip_address" db:"ip_address"`
	UserAgent              string    `json:"user_agent" db:"user_agent"`
}

// Principal is the authenticated caller, threaded explicitly through request
// context instead of ambient per-request globals.
type Principal struct {
	Session *Session
	User    *User
}
