package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const defaultIssuer = "SecurePass"

// Standard TOTP parameters: 30s step, 6 digits, HMAC-SHA1, 20-byte secret,
// tolerance of one step before/after the current step.
const (
	totpPeriod     = 30
	totpSecretSize = 20
	totpSkew       = 1
)

// Provisioner generates and verifies TOTP secrets using pquerna/otp.
type Provisioner struct {
	issuer string
}

func NewProvisioner(issuer string) *Provisioner {
	if strings.TrimSpace(issuer) == "" {
		issuer = defaultIssuer
	}
	return &Provisioner{issuer: issuer}
}

// GenerateSecret creates a fresh base32 secret and its otpauth:// URI
// (otpauth://totp/<issuer>:<account>?secret=<base32>&issuer=<issuer>).
func (p *Provisioner) GenerateSecret(accountName string) (string, string, error) {
	if strings.TrimSpace(accountName) == "" {
		return "", "", fmt.Errorf("totp: account name is empty")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      p.issuer,
		AccountName: accountName,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
		SecretSize:  totpSecretSize,
	})
	if err != nil {
		return "", "", fmt.Errorf("totp generate: %w", err)
	}

	return key.Secret(), key.URL(), nil
}

// ValidateCode reports whether code matches the secret at the current time.
func (p *Provisioner) ValidateCode(secretBase32, code string) bool {
	return p.validateAt(secretBase32, code, time.Now().UTC())
}

func (p *Provisioner) validateAt(secretBase32, code string, now time.Time) bool {
	valid, err := totp.ValidateCustom(code, secretBase32, now, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return valid
}
