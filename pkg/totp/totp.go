// Package totp implements the RFC 6238 time-based one-time-password
// primitives used for MFA: secret generation, code derivation, window
// tolerant verification and otpauth provisioning URIs.
package totp

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	libtotp "github.com/pquerna/otp/totp"
)

const (
	// Period is the time-step size in seconds.
	Period = 30

	// Digits is the code length. Widely supported by authenticator apps.
	Digits = 6

	// SecretLength is the raw secret size in bytes before base32 encoding.
	SecretLength = 20
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret returns a fresh cryptographically random base32 secret
// without padding. Secret material must never be logged.
func GenerateSecret() (string, error) {
	raw := make([]byte, SecretLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return b32.EncodeToString(raw), nil
}

// CurrentCounter returns the RFC 6238 counter for the given instant.
func CurrentCounter(t time.Time) uint64 {
	return uint64(t.Unix()) / Period
}

// DeriveCode computes the HOTP code for a counter value (RFC 4226 dynamic
// truncation over HMAC-SHA1, modulo 10^Digits), zero-padded to Digits.
func DeriveCode(secret string, counter uint64) (string, error) {
	return hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// Verify reports whether code matches the secret at any counter within
// [current-window, current+window] around t. Non-numeric or wrong-length
// input is rejected before any HMAC work. The window tolerates clock drift
// of up to window*Period seconds.
func Verify(secret, code string, window int, t time.Time) bool {
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if len(code) != Digits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	if window < 0 {
		window = 0
	}

	ok, err := libtotp.ValidateCustom(code, secret, t, libtotp.ValidateOpts{
		Period:    Period,
		Skew:      uint(window),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return ok
}

// ProvisioningURI builds the otpauth://totp/ URI for QR rendering or manual
// entry in an authenticator app.
func ProvisioningURI(secret, accountLabel, issuer string) string {
	label := url.QueryEscape(issuer + ":" + accountLabel)
	return fmt.Sprintf("otpauth://totp/%s?secret=%s&issuer=%s&algorithm=SHA1&digits=%d&period=%d",
		label, secret, url.QueryEscape(issuer), Digits, Period)
}
