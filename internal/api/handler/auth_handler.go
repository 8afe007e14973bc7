package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/securepass/vault-api/internal/api/metrics"
	"github.com/securepass/vault-api/internal/core/domain"
	"github.com/securepass/vault-api/internal/core/ports"
)

// LoginLimiter throttles login attempts per username+IP. A nil limiter
// disables throttling.
type LoginLimiter interface {
	Allow(ctx context.Context, username, ip string) (bool, error)
	Reset(ctx context.Context, username, ip string) error
}

type AuthHandler struct {
	authService ports.AuthService
	limiter     LoginLimiter
	audit       ports.AuditSink
	logger      zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, limiter LoginLimiter, audit ports.AuditSink, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter, audit: audit, logger: logger}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerResponse struct {
	SecretBase32  string `json:"secretBase32"`
	EnrollmentURI string `json:"enrollmentURI"`
}

type verifyTwoFactorRequest struct {
	Username string `json:"username" validate:"required"`
	Code     string `json:"code" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Code     string `json:"code" validate:"required"`
}

type loginResponse struct {
	SessionToken string `json:"sessionToken"`
	Username     string `json:"username"`
}

// Register creates a new account and returns the TOTP enrollment material.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	result, err := h.authService.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		h.recordAudit(c, req.Username, domain.AuditRegister, auditOutcome(err))
		switch {
		case errors.Is(err, domain.ErrUserExists), errors.Is(err, domain.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return err
	}

	h.recordAudit(c, req.Username, domain.AuditRegister, "success")
	return c.JSON(http.StatusCreated, registerResponse{
		SecretBase32:  result.SecretBase32,
		EnrollmentURI: result.EnrollmentURI,
	})
}

// VerifyTwoFactor confirms 2FA enrollment with the first valid code.
//
// @Summary      Confirm 2FA enrollment
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyTwoFactorRequest  true  "Username and TOTP code"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /verify-2fa [post]
func (h *AuthHandler) VerifyTwoFactor(c echo.Context) error {
	var req verifyTwoFactorRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	err := h.authService.ConfirmEnrollment(c.Request().Context(), req.Username, req.Code)
	if err != nil {
		h.recordAudit(c, req.Username, domain.AuditVerify2FA, auditOutcome(err))
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		case errors.Is(err, domain.ErrInvalidTOTPCode), errors.Is(err, domain.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return err
	}

	h.recordAudit(c, req.Username, domain.AuditVerify2FA, "success")
	return c.JSON(http.StatusOK, map[string]string{"message": "2fa setup completed", "username": req.Username})
}

// Login authenticates with password and TOTP code, returning a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials and TOTP code"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if !h.allowAttempt(c, req.Username) {
		metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()
		h.recordAudit(c, req.Username, domain.AuditLogin, "rate_limited")
		return c.JSON(http.StatusTooManyRequests, errorResponse{Error: domain.ErrTooManyAttempts.Error()})
	}

	token, err := h.authService.Login(c.Request().Context(), req.Username, req.Password, req.Code)
	if err != nil {
		h.recordAudit(c, req.Username, domain.AuditLogin, auditOutcome(err))
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrInvalidTOTPCode):
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
		}
		return err
	}

	if h.limiter != nil {
		_ = h.limiter.Reset(c.Request().Context(), req.Username, c.RealIP())
	}

	h.recordAudit(c, req.Username, domain.AuditLogin, "success")
	return c.JSON(http.StatusOK, loginResponse{SessionToken: token, Username: req.Username})
}

// allowAttempt consults the login limiter. Limiter failures are logged and
// fail open: losing Redis must not lock every user out.
func (h *AuthHandler) allowAttempt(c echo.Context, username string) bool {
	if h.limiter == nil {
		return true
	}
	ok, err := h.limiter.Allow(c.Request().Context(), username, c.RealIP())
	if err != nil {
		h.logger.Warn().Err(err).Str("username", username).Msg("login limiter unavailable, allowing attempt")
		return true
	}
	return ok
}

func (h *AuthHandler) recordAudit(c echo.Context, username, action, outcome string) {
	if h.audit == nil {
		return
	}
	h.audit.Enqueue(ports.AuditInput{
		Username:  username,
		Action:    action,
		Outcome:   outcome,
		RemoteIP:  c.RealIP(),
		Timestamp: time.Now().UTC(),
	})
}

// auditOutcome maps known failure modes to short audit labels.
func auditOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserExists):
		return "username_taken"
	case errors.Is(err, domain.ErrUserNotFound):
		return "unknown_user"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrInvalidTOTPCode):
		return "invalid_code"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
