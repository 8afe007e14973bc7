package domain

import (
	"errors"
	"time"
)

var ErrInvalidInput = errors.New("invalid input")
var ErrUserExists = errors.New("username already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInvalidTOTPCode = errors.New("invalid 2fa code")
var ErrTooManyAttempts = errors.New("too many login attempts")

// User is the aggregate root of the vault. Vault entries are embedded in the
// user document: no entry exists independent of its owner.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"`
	TOTPSecret   string       `json:"-"`
	TOTPEnabled  bool         `json:"totp_enabled"`
	VaultEntries []VaultEntry `json:"vault_entries"`
	CreatedAt    time.Time    `json:"created_at"`
}

// VaultEntry is a single site credential owned by a User. Entries are
// append-only; deletion is the only other mutation.
type VaultEntry struct {
	ID        string    `json:"id"`
	Site      string    `json:"site"`
	Username  string    `json:"username"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"created_at"`
}
