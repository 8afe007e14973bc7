package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/securepass/vault-api/internal/api/metrics"
	"github.com/securepass/vault-api/internal/core/domain"
	"github.com/securepass/vault-api/internal/core/ports"
)

const (
	minUsernameLen = 3
	minPasswordLen = 8
)

// AuthService implements registration, 2FA enrollment, and login.
type AuthService struct {
	users     ports.UserRepository
	totp      ports.TwoFactorProvider
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, totp ports.TwoFactorProvider, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{users: users, totp: totp, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

// Register creates a new user in the unenrolled state and returns the TOTP
// secret plus its enrollment URI. The secret is generated exactly once and
// never rotated; the password hash is never returned to any caller.
func (s *AuthService) Register(ctx context.Context, username, password string) (*ports.EnrollmentResult, error) {
	if len(username) < minUsernameLen || len(password) < minPasswordLen {
		return nil, domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	secret, uri, err := s.totp.GenerateSecret(username)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		TOTPSecret:   secret,
		TOTPEnabled:  false,
		VaultEntries: []domain.VaultEntry{},
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	metrics.RegistrationsTotal.Inc()
	s.logger.Info().Str("username", username).Msg("user registered")

	return &ports.EnrollmentResult{SecretBase32: secret, EnrollmentURI: uri}, nil
}

// ConfirmEnrollment verifies the first TOTP code presented after registration
// and flips the user's totp_enabled flag. The flag never reverts.
func (s *AuthService) ConfirmEnrollment(ctx context.Context, username, code string) error {
	if username == "" || code == "" {
		return domain.ErrInvalidInput
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	if !s.totp.ValidateCode(user.TOTPSecret, code) {
		metrics.TOTPValidationsTotal.WithLabelValues("failure").Inc()
		return domain.ErrInvalidTOTPCode
	}
	metrics.TOTPValidationsTotal.WithLabelValues("success").Inc()

	if err := s.users.EnableTwoFactor(ctx, user.ID); err != nil {
		return err
	}

	s.logger.Info().Str("username", username).Msg("2fa enrollment confirmed")
	return nil
}

// Login verifies password and TOTP code, then mints a signed session token.
// Unknown username and wrong password are indistinguishable from outside;
// a failed TOTP check is reported as a distinct error.
func (s *AuthService) Login(ctx context.Context, username, password, code string) (string, error) {
	if username == "" || password == "" || code == "" {
		return "", domain.ErrInvalidInput
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return "", domain.ErrInvalidCredentials
	}

	if !s.totp.ValidateCode(user.TOTPSecret, code) {
		metrics.LoginsTotal.WithLabelValues("invalid_code").Inc()
		metrics.TOTPValidationsTotal.WithLabelValues("failure").Inc()
		return "", domain.ErrInvalidTOTPCode
	}
	metrics.TOTPValidationsTotal.WithLabelValues("success").Inc()

	token, err := s.generateToken(user)
	if err != nil {
		return "", err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Str("username", username).Msg("login succeeded")
	return token, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
