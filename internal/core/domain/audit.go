package domain

import "time"

// Audit actions recorded by the auth event trail.
const (
	AuditRegister    = "register"
	AuditVerify2FA   = "verify_2fa"
	AuditLogin       = "login"
	AuditVaultAdd    = "vault_add"
	AuditVaultDelete = "vault_delete"
)

// AuthEvent is an audit record of a single authentication or vault action.
// Events are observational only; request handling never depends on them.
type AuthEvent struct {
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"` // "success" or a short failure reason
	RemoteIP  string    `json:"remote_ip,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
