package security

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

func generateCodeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	return code
}

func TestProvisioner_GenerateSecret(t *testing.T) {
	p := NewProvisioner("SecurePass")

	secret, uri, err := p.GenerateSecret("alice")
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}
	if secret == "" {
		t.Fatalf("expected non-empty secret")
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		t.Fatalf("enrollment URI unparseable: %v", err)
	}
	if parsed.Scheme != "otpauth" || parsed.Host != "totp" {
		t.Fatalf("unexpected URI shape: %s", uri)
	}
	if !strings.Contains(parsed.Path, "SecurePass") || !strings.Contains(parsed.Path, "alice") {
		t.Fatalf("label missing issuer or account: %s", parsed.Path)
	}
	if got := parsed.Query().Get("secret"); got != secret {
		t.Fatalf("URI secret %q does not match returned secret %q", got, secret)
	}
	if got := parsed.Query().Get("issuer"); got != "SecurePass" {
		t.Fatalf("URI issuer %q", got)
	}
}

func TestProvisioner_GenerateSecret_EmptyAccount(t *testing.T) {
	p := NewProvisioner("SecurePass")
	if _, _, err := p.GenerateSecret(""); err == nil {
		t.Fatalf("expected error for empty account name")
	}
}

func TestProvisioner_ValidateCode_CurrentStep(t *testing.T) {
	p := NewProvisioner("SecurePass")
	secret, _, err := p.GenerateSecret("alice")
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}

	now := time.Now().UTC()
	code := generateCodeAt(t, secret, now)
	if !p.validateAt(secret, code, now) {
		t.Fatalf("code generated for current step rejected")
	}
	if p.validateAt(secret, "000000", now) && code != "000000" {
		t.Fatalf("arbitrary code accepted")
	}
}

// Acceptance window: a code valid at step n is accepted when the verifier's
// current step is n-1, n, or n+1, and rejected at n±2.
func TestProvisioner_ValidateCode_WindowBoundary(t *testing.T) {
	p := NewProvisioner("SecurePass")
	secret, _, err := p.GenerateSecret("alice")
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}

	// Middle of a step so ±30s stays within the adjacent steps.
	base := time.Date(2026, 3, 1, 12, 0, 15, 0, time.UTC)
	code := generateCodeAt(t, secret, base)

	steps := []struct {
		offset time.Duration
		accept bool
	}{
		{-2 * totpPeriod * time.Second, false},
		{-totpPeriod * time.Second, true},
		{0, true},
		{totpPeriod * time.Second, true},
		{2 * totpPeriod * time.Second, false},
	}

	for _, s := range steps {
		got := p.validateAt(secret, code, base.Add(s.offset))
		if got != s.accept {
			t.Fatalf("offset %v: accepted=%v, want %v", s.offset, got, s.accept)
		}
	}
}

func TestProvisioner_ValidateCode_MalformedInput(t *testing.T) {
	p := NewProvisioner("SecurePass")
	if p.ValidateCode("", "123456") {
		t.Fatalf("empty secret accepted")
	}
	if p.ValidateCode("NOTBASE32!!", "123456") {
		t.Fatalf("invalid secret accepted")
	}
}
