package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/citsolutions/vpnportal/pkg/models"
	"github.com/citsolutions/vpnportal/pkg/totp"
	"github.com/citsolutions/vpnportal/pkg/utils"
)

const (
	defaultTicketTTLSeconds = 600
	defaultIssuer           = "CITS VPN Portal"

	// Shown identically for unknown user, inactive user, wrong password and
	// malformed stored hash. Do not vary it.
	invalidCredentialsMessage = "Invalid username or password."
)

// dummyHash burns a comparable amount of work when the user does not exist,
// keeping response latency close to the wrong-password path.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SetMfaSecret(ctx context.Context, id uuid.UUID, secret string) error
	EnableMfa(ctx context.Context, id uuid.UUID) error
	DisableMfa(ctx context.Context, id uuid.UUID) error
}

// AuthService is the credential & MFA state machine: password check,
// lockout check, MFA verify/enroll, session issuance. It returns tagged
// outcomes instead of rendering anything.
type AuthService struct {
	users        UserStore
	lockout      *Lockout
	sessions     *SessionService
	ticketSecret []byte
	ticketTTL    time.Duration
	issuer       string
	now          func() time.Time
}

func NewAuthService(users UserStore, lockout *Lockout, sessions *SessionService) (*AuthService, error) {
	secret := os.Getenv("PORTAL_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("PORTAL_SECRET not configured")
	}

	ttl := defaultTicketTTLSeconds
	if env := os.Getenv("MFA_TICKET_TTL"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			ttl = n
		}
	}

	issuer := os.Getenv("MFA_ISSUER")
	if issuer == "" {
		issuer = defaultIssuer
	}

	return &AuthService{
		users:        users,
		lockout:      lockout,
		sessions:     sessions,
		ticketSecret: []byte(secret),
		ticketTTL:    time.Duration(ttl) * time.Second,
		issuer:       issuer,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

func invalidCredentialsOutcome() *models.Outcome {
	return &models.Outcome{
		Status:  http.StatusUnauthorized,
		ErrKind: models.ErrKindInvalidCredentials,
		Message: invalidCredentialsMessage,
	}
}

// Login runs the password phase of authentication. On success it either
// issues a full session (no MFA) or mints a pending-MFA ticket.
func (s *AuthService) Login(ctx context.Context, username, password, ip, userAgent string) (*models.Outcome, error) {
	username = strings.TrimSpace(username)

	policy := s.lockout.Policy(ctx)
	locked, retryAfter, err := s.lockout.Check(ctx, username, policy)
	if err != nil {
		return nil, fmt.Errorf("lockout check failed: %w", err)
	}
	if locked {
		s.lockout.Record(ctx, nil, username, false, ReasonLocked, ip, userAgent)
		return &models.Outcome{
			Status:     http.StatusTooManyRequests,
			ErrKind:    models.ErrKindLocked,
			Message:    "Too many failed attempts. Try again after " + retryAfter.Format("15:04:05 MST") + ".",
			RetryAfter: &retryAfter,
		}, nil
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	if user == nil || !user.Active {
		var userID *uuid.UUID
		if user != nil {
			userID = &user.ID
		}
		s.lockout.Record(ctx, userID, username, false, ReasonNoUserOrInactive, ip, userAgent)
		// Burn comparable work so unknown-user responses do not return
		// measurably faster than wrong-password ones.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return invalidCredentialsOutcome(), nil
	}

	if user.PasswordHash == "" || !strings.HasPrefix(user.PasswordHash, "$2") {
		s.lockout.Record(ctx, &user.ID, username, false, ReasonBadStoredHash, ip, userAgent)
		return invalidCredentialsOutcome(), nil
	}

	switch err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err {
	case nil:
	case bcrypt.ErrMismatchedHashAndPassword:
		s.lockout.Record(ctx, &user.ID, username, false, ReasonBadPassword, ip, userAgent)
		return invalidCredentialsOutcome(), nil
	default:
		// Fail closed: any other verification error is a rejection, never a
		// crash and never an accept.
		s.lockout.Record(ctx, &user.ID, username, false, ReasonHashVerifyError, ip, userAgent)
		return invalidCredentialsOutcome(), nil
	}

	s.lockout.Record(ctx, &user.ID, username, true, ReasonOK, ip, userAgent)
	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		log.Printf("Failed to update last login for %q: %v", username, err)
	}

	if !user.MfaEnabled {
		token, err := s.sessions.Create(ctx, user.ID, ip, userAgent)
		if err != nil {
			return nil, err
		}
		return &models.Outcome{Redirect: "/", SessionToken: token}, nil
	}

	ticket, err := utils.MintMfaTicket(user.ID, user.Username, s.ticketSecret, s.ticketTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to mint mfa ticket: %w", err)
	}
	return &models.Outcome{Redirect: "/mfa", MfaTicket: ticket, TicketTTL: s.ticketTTL}, nil
}

// TicketUser resolves a pending-MFA ticket to its user. Used by the MFA
// page to show who is verifying; any invalid ticket means anonymous.
func (s *AuthService) TicketUser(ctx context.Context, ticket string) (*models.User, error) {
	userID, _, err := utils.ParseMfaTicket(ticket, s.ticketSecret)
	if err != nil {
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, nil
	}
	return user, nil
}

// VerifyMfa completes authentication for a pending ticket. A wrong code
// does not consume the ticket; retries are allowed until the TTL runs out.
func (s *AuthService) VerifyMfa(ctx context.Context, ticket, code, ip, userAgent string) (*models.Outcome, error) {
	anonymous := &models.Outcome{
		Redirect:    "/login",
		ClearTicket: true,
		ErrKind:     models.ErrKindExpiredTicket,
		Message:     "Your sign-in expired. Please log in again.",
	}

	userID, _, err := utils.ParseMfaTicket(ticket, s.ticketSecret)
	if err != nil {
		return anonymous, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if user == nil || !user.Active || user.MfaSecret == nil {
		return anonymous, nil
	}

	if !totp.Verify(*user.MfaSecret, code, 1, s.now()) {
		return &models.Outcome{
			Status:  http.StatusUnauthorized,
			ErrKind: models.ErrKindInvalidMfaCode,
			Message: "Invalid code.",
		}, nil
	}

	token, err := s.sessions.Create(ctx, user.ID, ip, userAgent)
	if err != nil {
		return nil, err
	}
	return &models.Outcome{Redirect: "/", SessionToken: token, ClearTicket: true}, nil
}

// BeginMfaEnrollment prepares enrollment material for an authenticated
// user. Idempotent: an already-enrolled user sees the enabled state and the
// secret is never regenerated; a pending secret is reused as-is so a QR
// scan stays valid across renders.
func (s *AuthService) BeginMfaEnrollment(ctx context.Context, user *models.User) (*models.EnrollmentView, error) {
	if user.MfaEnabled && user.MfaSecret != nil {
		return &models.EnrollmentView{AlreadyEnabled: true}, nil
	}

	secret := ""
	if user.MfaSecret != nil {
		secret = *user.MfaSecret
	} else {
		generated, err := totp.GenerateSecret()
		if err != nil {
			return nil, err
		}
		// Persist disabled before showing: observe-then-confirm.
		if err := s.users.SetMfaSecret(ctx, user.ID, generated); err != nil {
			return nil, fmt.Errorf("failed to store pending mfa secret: %w", err)
		}
		user.MfaSecret = &generated
		secret = generated
	}

	return &models.EnrollmentView{
		Secret: secret,
		URI:    totp.ProvisioningURI(secret, user.Username, s.issuer),
	}, nil
}

// ConfirmMfaEnrollment flips the enabled flag once the user proves they can
// produce a code from the pending secret. A failed confirmation leaves the
// secret in place so the same QR can be retried.
func (s *AuthService) ConfirmMfaEnrollment(ctx context.Context, user *models.User, code string) (*models.Outcome, error) {
	if user.MfaEnabled {
		return &models.Outcome{Redirect: "/"}, nil
	}
	if user.MfaSecret == nil {
		return &models.Outcome{Redirect: "/settings/mfa"}, nil
	}

	if !totp.Verify(*user.MfaSecret, code, 1, s.now()) {
		return &models.Outcome{
			Status:  http.StatusUnauthorized,
			ErrKind: models.ErrKindInvalidMfaCode,
			Message: "Invalid code.",
		}, nil
	}

	if err := s.users.EnableMfa(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to enable mfa: %w", err)
	}
	return &models.Outcome{Redirect: "/"}, nil
}

// DisableMfa clears the enabled flag and the stored secret together. A user
// may only disable their own MFA.
func (s *AuthService) DisableMfa(ctx context.Context, user *models.User, targetUserID uuid.UUID) (*models.Outcome, error) {
	if targetUserID != user.ID {
		return &models.Outcome{
			Status:  http.StatusForbidden,
			ErrKind: models.ErrKindForbidden,
			Message: "You may only disable your own MFA.",
		}, nil
	}

	if err := s.users.DisableMfa(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to disable mfa: %w", err)
	}
	return &models.Outcome{Redirect: "/"}, nil
}

// TicketTTL exposes the configured pending-ticket lifetime for cookie
// max-age purposes.
func (s *AuthService) TicketTTL() time.Duration {
	return s.ticketTTL
}
