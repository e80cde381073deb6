package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TicketClaims binds a user to the pending-MFA step between password success
// and TOTP verification. The ticket is stateless: integrity comes from the
// HMAC signature, not from a database row.
type TicketClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// MintMfaTicket signs a pending-MFA ticket valid for ttl.
func MintMfaTicket(userID uuid.UUID, username string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := TicketClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseMfaTicket validates signature and TTL and returns the bound user.
// Any mismatch or expiry yields an error; the caller must treat the bearer
// as anonymous.
func ParseMfaTicket(ticket string, secret []byte) (uuid.UUID, string, error) {
	claims := &TicketClaims{}
	token, err := jwt.ParseWithClaims(ticket, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid mfa ticket: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, "", fmt.Errorf("invalid mfa ticket")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid mfa ticket subject: %w", err)
	}

	return userID, claims.Username, nil
}
