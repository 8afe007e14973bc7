package ports

// TwoFactorProvider generates and verifies time-based one-time passwords.
type TwoFactorProvider interface {
	// GenerateSecret returns a fresh base32 secret and its otpauth://
	// enrollment URI for the given account name. Pure generation, no
	// storage side effects.
	GenerateSecret(accountName string) (secretBase32, enrollmentURI string, err error)

	// ValidateCode reports whether code matches the secret within the
	// provider's tolerance window (one 30s step before or after now).
	ValidateCode(secretBase32, code string) bool
}
