package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/securepass/vault-api/internal/core/domain"
	"github.com/securepass/vault-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, username, password string) (*ports.EnrollmentResult, error)
	confirmFn  func(ctx context.Context, username, code string) error
	loginFn    func(ctx context.Context, username, password, code string) (string, error)
}

func (s *stubAuthService) Register(ctx context.Context, username, password string) (*ports.EnrollmentResult, error) {
	return s.registerFn(ctx, username, password)
}

func (s *stubAuthService) ConfirmEnrollment(ctx context.Context, username, code string) error {
	return s.confirmFn(ctx, username, code)
}

func (s *stubAuthService) Login(ctx context.Context, username, password, code string) (string, error) {
	return s.loginFn(ctx, username, password, code)
}

type stubLimiter struct {
	allow bool
}

func (l *stubLimiter) Allow(context.Context, string, string) (bool, error) { return l.allow, nil }
func (l *stubLimiter) Reset(context.Context, string, string) error        { return nil }

func newTestContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, username, password string) (*ports.EnrollmentResult, error) {
			if username != "alice" || password != "password123" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return &ports.EnrollmentResult{
				SecretBase32:  "SECRET32",
				EnrollmentURI: "otpauth://totp/SecurePass:alice?secret=SECRET32&issuer=SecurePass",
			}, nil
		},
	}
	handler := NewAuthHandler(stub, nil, nil, zerolog.Nop())

	c, rec := newTestContext(t, http.MethodPost, "/register", `{"username":"alice","password":"password123"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["secretBase32"] != "SECRET32" {
		t.Fatalf("missing secret in response: %+v", resp)
	}
	if !strings.HasPrefix(resp["enrollmentURI"].(string), "otpauth://totp/") {
		t.Fatalf("unexpected enrollment URI: %v", resp["enrollmentURI"])
	}
}

func TestAuthHandler_Register_ShortFields(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, username, password string) (*ports.EnrollmentResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, nil, nil, zerolog.Nop())

	for _, body := range []string{
		`{"username":"al","password":"password123"}`,
		`{"username":"alice","password":"short"}`,
		`{"username":"alice"}`,
	} {
		c, rec := newTestContext(t, http.MethodPost, "/register", body)
		_ = handler.Register(c)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestAuthHandler_Register_UsernameTaken(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, username, password string) (*ports.EnrollmentResult, error) {
			return nil, domain.ErrUserExists
		},
	}
	handler := NewAuthHandler(stub, nil, nil, zerolog.Nop())

	c, rec := newTestContext(t, http.MethodPost, "/register", `{"username":"alice","password":"password123"}`)
	_ = handler.Register(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_VerifyTwoFactor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, http.StatusOK},
		{"unknown user", domain.ErrUserNotFound, http.StatusNotFound},
		{"invalid code", domain.ErrInvalidTOTPCode, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAuthService{
				confirmFn: func(ctx context.Context, username, code string) error {
					return tt.err
				},
			}
			handler := NewAuthHandler(stub, nil, nil, zerolog.Nop())

			c, rec := newTestContext(t, http.MethodPost, "/verify-2fa", `{"username":"alice","code":"123456"}`)
			_ = handler.VerifyTwoFactor(c)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password, code string) (string, error) {
			return "token123", nil
		},
	}
	handler := NewAuthHandler(stub, &stubLimiter{allow: true}, nil, zerolog.Nop())

	c, rec := newTestContext(t, http.MethodPost, "/login", `{"username":"alice","password":"password123","code":"123456"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["sessionToken"] != "token123" || resp["username"] != "alice" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"invalid code", domain.ErrInvalidTOTPCode, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAuthService{
				loginFn: func(ctx context.Context, username, password, code string) (string, error) {
					return "", tt.err
				},
			}
			handler := NewAuthHandler(stub, nil, nil, zerolog.Nop())

			c, rec := newTestContext(t, http.MethodPost, "/login", `{"username":"alice","password":"bad","code":"000000"}`)
			_ = handler.Login(c)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password, code string) (string, error) {
			t.Fatalf("should not be called")
			return "", nil
		},
	}
	handler := NewAuthHandler(stub, nil, nil, zerolog.Nop())

	c, rec := newTestContext(t, http.MethodPost, "/login", `{"username":"alice","password":"password123"}`)
	_ = handler.Login(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_RateLimited(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, username, password, code string) (string, error) {
			t.Fatalf("should not be called when limited")
			return "", nil
		},
	}
	handler := NewAuthHandler(stub, &stubLimiter{allow: false}, nil, zerolog.Nop())

	c, rec := newTestContext(t, http.MethodPost, "/login", `{"username":"alice","password":"password123","code":"123456"}`)
	_ = handler.Login(c)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}
