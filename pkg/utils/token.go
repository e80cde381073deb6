package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewSessionToken returns an opaque 256-bit random identifier, hex-encoded.
func NewSessionToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
