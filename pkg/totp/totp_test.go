package totp

import (
	"strings"
	"testing"
	"time"
)

// RFC 4226 appendix D test secret ("12345678901234567890" in base32).
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestDeriveCode_RFC4226Vectors(t *testing.T) {
	expected := []string{
		"755224", "287082", "359152", "969429", "338314",
		"254676", "287922", "162583", "399871", "520489",
	}

	for counter, want := range expected {
		got, err := DeriveCode(rfcSecret, uint64(counter))
		if err != nil {
			t.Fatalf("DeriveCode(counter=%d) failed: %v", counter, err)
		}
		if got != want {
			t.Errorf("DeriveCode(counter=%d) = %s, want %s", counter, got, want)
		}
	}
}

func TestCurrentCounter(t *testing.T) {
	if c := CurrentCounter(time.Unix(59, 0)); c != 1 {
		t.Errorf("CurrentCounter(59s) = %d, want 1", c)
	}
	if c := CurrentCounter(time.Unix(60, 0)); c != 2 {
		t.Errorf("CurrentCounter(60s) = %d, want 2", c)
	}
	if c := CurrentCounter(time.Unix(0, 0)); c != 0 {
		t.Errorf("CurrentCounter(0s) = %d, want 0", c)
	}
}

func TestVerify_ExactStep(t *testing.T) {
	now := time.Unix(1111111109, 0)

	code, err := DeriveCode(rfcSecret, CurrentCounter(now))
	if err != nil {
		t.Fatalf("DeriveCode failed: %v", err)
	}

	if !Verify(rfcSecret, code, 0, now) {
		t.Error("code for the current step should verify with window=0")
	}
}

func TestVerify_WindowTolerance(t *testing.T) {
	now := time.Unix(1111111109, 0)
	code, err := DeriveCode(rfcSecret, CurrentCounter(now))
	if err != nil {
		t.Fatalf("DeriveCode failed: %v", err)
	}

	oneStep := now.Add(Period * time.Second)
	twoSteps := now.Add(2 * Period * time.Second)

	if Verify(rfcSecret, code, 0, oneStep) {
		t.Error("one-step-old code should be rejected with window=0")
	}
	if !Verify(rfcSecret, code, 1, oneStep) {
		t.Error("one-step-old code should be accepted with window=1")
	}
	if Verify(rfcSecret, code, 1, twoSteps) {
		t.Error("two-step-old code should be rejected with window=1")
	}
}

func TestVerify_RejectsMalformedInput(t *testing.T) {
	now := time.Unix(1111111109, 0)

	cases := []string{"", "abc", "12345a", "12345", "1234567", "12 34", "......"}
	for _, code := range cases {
		if Verify(rfcSecret, code, 1, now) {
			t.Errorf("Verify accepted malformed code %q", code)
		}
	}
}

func TestVerify_NormalizesSpaces(t *testing.T) {
	now := time.Unix(1111111109, 0)
	code, err := DeriveCode(rfcSecret, CurrentCounter(now))
	if err != nil {
		t.Fatalf("DeriveCode failed: %v", err)
	}

	spaced := " " + code[:3] + " " + code[3:] + " "
	if !Verify(rfcSecret, spaced, 0, now) {
		t.Errorf("Verify should strip spaces from %q", spaced)
	}
}

func TestGenerateSecret(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		secret, err := GenerateSecret()
		if err != nil {
			t.Fatalf("GenerateSecret failed: %v", err)
		}
		// 20 raw bytes encode to exactly 32 base32 characters, unpadded.
		if len(secret) != 32 {
			t.Errorf("secret length = %d, want 32", len(secret))
		}
		if strings.Contains(secret, "=") {
			t.Errorf("secret %q should not contain padding", secret)
		}
		if seen[secret] {
			t.Errorf("duplicate secret generated: %q", secret)
		}
		seen[secret] = true
	}
}

func TestProvisioningURI(t *testing.T) {
	uri := ProvisioningURI("SECRETBASE32", "alice", "CITS VPN Portal")

	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Errorf("unexpected scheme: %s", uri)
	}
	for _, want := range []string{
		"secret=SECRETBASE32",
		"issuer=CITS+VPN+Portal",
		"algorithm=SHA1",
		"digits=6",
		"period=30",
	} {
		if !strings.Contains(uri, want) {
			t.Errorf("URI missing %q: %s", want, uri)
		}
	}
}
