package models

import "time"

// Error kinds carried by failed outcomes.
const (
	ErrKindInvalidCredentials = "InvalidCredentials"
	ErrKindLocked             = "Locked"
	ErrKindInvalidMfaCode     = "InvalidMfaCode"
	ErrKindExpiredTicket      = "ExpiredOrInvalidTicket"
	ErrKindForbidden          = "Forbidden"
)

// Outcome is the tagged result of a login/MFA operation: either a redirect
// with cookie operations, or an error kind with a status code and a message
// safe to show the caller. The state machine never renders pages itself.
type Outcome struct {
	// Success variant.
	Redirect     string        `json:"redirect,omitempty"`
	SessionToken string        `json:"-"`
	MfaTicket    string        `json:"-"`
	TicketTTL    time.Duration `json:"-"`

	// Cookie operations valid for both variants.
	ClearTicket  bool `json:"-"`
	ClearSession bool `json:"-"`

	// Failure variant.
	Status     int        `json:"status,omitempty"`
	ErrKind    string     `json:"error,omitempty"`
	Message    string     `json:"message,omitempty"`
	RetryAfter *time.Time `json:"retry_after,omitempty"`
}

// OK reports whether the outcome is the success variant.
func (o *Outcome) OK() bool {
	return o.ErrKind == ""
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// EnrollmentView is the material shown while MFA enrollment is pending
// confirmation. Secret and URI are empty once MFA is already enabled.
type EnrollmentView struct {
	AlreadyEnabled bool
	Secret         string
	URI            string
}
