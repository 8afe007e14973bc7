package ports

import "context"

// EnrollmentResult is returned by Register so the user can add the account to
// an authenticator app. The secret is shown exactly once, at registration.
type EnrollmentResult struct {
	SecretBase32  string
	EnrollmentURI string
}

type AuthService interface {
	Register(ctx context.Context, username, password string) (*EnrollmentResult, error)
	ConfirmEnrollment(ctx context.Context, username, code string) error
	Login(ctx context.Context, username, password, code string) (string, error)
}
