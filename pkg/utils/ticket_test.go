package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMfaTicket_RoundTrip(t *testing.T) {
	secret := []byte("test-ticket-signing-secret")
	userID := uuid.New()

	ticket, err := MintMfaTicket(userID, "alice", secret, 10*time.Minute)
	if err != nil {
		t.Fatalf("MintMfaTicket failed: %v", err)
	}

	gotID, gotUsername, err := ParseMfaTicket(ticket, secret)
	if err != nil {
		t.Fatalf("ParseMfaTicket failed: %v", err)
	}
	if gotID != userID {
		t.Errorf("user ID mismatch: expected %s, got %s", userID, gotID)
	}
	if gotUsername != "alice" {
		t.Errorf("username mismatch: expected alice, got %s", gotUsername)
	}
}

func TestMfaTicket_Expired(t *testing.T) {
	secret := []byte("test-ticket-signing-secret")

	ticket, err := MintMfaTicket(uuid.New(), "bob", secret, -1*time.Minute)
	if err != nil {
		t.Fatalf("MintMfaTicket failed: %v", err)
	}

	if _, _, err := ParseMfaTicket(ticket, secret); err == nil {
		t.Error("expired ticket should not parse")
	}
}

func TestMfaTicket_WrongSecret(t *testing.T) {
	ticket, err := MintMfaTicket(uuid.New(), "carol", []byte("secret-one"), 10*time.Minute)
	if err != nil {
		t.Fatalf("MintMfaTicket failed: %v", err)
	}

	if _, _, err := ParseMfaTicket(ticket, []byte("secret-two")); err == nil {
		t.Error("ticket signed with a different secret should not parse")
	}
}

func TestMfaTicket_Garbage(t *testing.T) {
	secret := []byte("test-ticket-signing-secret")

	for _, ticket := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, _, err := ParseMfaTicket(ticket, secret); err == nil {
			t.Errorf("garbage ticket %q should not parse", ticket)
		}
	}
}

func TestMfaTicket_TamperedPayload(t *testing.T) {
	secret := []byte("test-ticket-signing-secret")

	ticket, err := MintMfaTicket(uuid.New(), "dave", secret, 10*time.Minute)
	if err != nil {
		t.Fatalf("MintMfaTicket failed: %v", err)
	}

	parts := strings.Split(ticket, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected JWT shape: %s", ticket)
	}
	tampered := parts[0] + ".eyJ1c2VybmFtZSI6ImV2ZSJ9." + parts[2]

	if _, _, err := ParseMfaTicket(tampered, secret); err == nil {
		t.Error("tampered ticket should not parse")
	}
}

func TestNewSessionToken(t *testing.T) {
	a, err := NewSessionToken()
	if err != nil {
		t.Fatalf("NewSessionToken failed: %v", err)
	}
	b, err := NewSessionToken()
	if err != nil {
		t.Fatalf("NewSessionToken failed: %v", err)
	}

	// 32 random bytes hex-encode to 64 characters.
	if len(a) != 64 {
		t.Errorf("token length = %d, want 64", len(a))
	}
	if a == b {
		t.Error("two tokens should not collide")
	}
}
