package services

import "errors"

// Credential and MFA failures are reported through models.Outcome so the
// handlers can render them; only conditions the callers branch on are
// sentinel errors.
var (
	ErrForbidden     = errors.New("forbidden")
	ErrPoolExhausted = errors.New("no free addresses left in pool")
	ErrNoSite        = errors.New("no site configured")
)

// Login-event reason codes. Closed set; recorded in the ledger and used for
// operator diagnostics, never shown verbatim to the end user.
const (
	ReasonOK               = "OK"
	ReasonLocked           = "LOCKED"
	ReasonNoUserOrInactive = "NO_USER_OR_INACTIVE"
	ReasonBadPassword      = "BAD_PASSWORD"
	ReasonBadStoredHash    = "BAD_STORED_HASH"
	ReasonHashVerifyError  = "HASH_VERIFY_ERROR"
)
