package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	MfaEnabled   bool       `json:"mfa_enabled" db:"mfa_enabled"`
	MfaSecret    *string    `json:"-" db:"mfa_secret"`
	Active       bool       `json:"active" db:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	Superadmin   bool       `json:"is_superadmin" db:"is_superadmin"`
}

// LoginEvent is one append-only row per authentication attempt. Rows are
// written even for unknown usernames and are never updated or deleted.
type LoginEvent struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	UserID            *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	UsernameAttempted string     `json:"username_attempted" db:"username_attempted"`
	Success           bool       `json:"success" db:"success"`
	Reason            string     `json:"reason" db:"reason"`
	IPAddress         string     `json:"ip_address" db:"ip_address"`
	UserAgent         string     `json:"user_agent" db:"user_agent"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}
