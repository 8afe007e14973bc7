package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/securepass/vault-api/internal/core/domain"
	"github.com/securepass/vault-api/internal/core/ports"
)

type stubVaultService struct {
	listFn   func(ctx context.Context, userID string) ([]domain.VaultEntry, error)
	addFn    func(ctx context.Context, userID string, in ports.AddEntryInput) (*domain.VaultEntry, error)
	deleteFn func(ctx context.Context, userID, entryID string) error
}

func (s *stubVaultService) List(ctx context.Context, userID string) ([]domain.VaultEntry, error) {
	return s.listFn(ctx, userID)
}

func (s *stubVaultService) Add(ctx context.Context, userID string, in ports.AddEntryInput) (*domain.VaultEntry, error) {
	return s.addFn(ctx, userID, in)
}

func (s *stubVaultService) Delete(ctx context.Context, userID, entryID string) error {
	return s.deleteFn(ctx, userID, entryID)
}

func newAuthedContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	c, rec := newTestContext(t, method, path, body)
	c.Set("user_id", "user_1")
	c.Set("username", "alice")
	return c, rec
}

func TestVaultHandler_List(t *testing.T) {
	now := time.Now().UTC()
	stub := &stubVaultService{
		listFn: func(ctx context.Context, userID string) ([]domain.VaultEntry, error) {
			if userID != "user_1" {
				t.Fatalf("unexpected user id: %s", userID)
			}
			return []domain.VaultEntry{
				{ID: "e1", Site: "github.com", Username: "alice", Secret: "x", CreatedAt: now},
				{ID: "e2", Site: "gitlab.com", Username: "alice", Secret: "y", CreatedAt: now},
			}, nil
		},
	}
	handler := NewVaultHandler(stub, nil)

	c, rec := newAuthedContext(t, http.MethodGet, "/passwords", "")
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 || resp[0]["site"] != "github.com" || resp[1]["site"] != "gitlab.com" {
		t.Fatalf("order not preserved: %+v", resp)
	}
}

func TestVaultHandler_List_MissingIdentity(t *testing.T) {
	handler := NewVaultHandler(&stubVaultService{}, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/passwords", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.List(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestVaultHandler_Add_Success(t *testing.T) {
	stub := &stubVaultService{
		addFn: func(ctx context.Context, userID string, in ports.AddEntryInput) (*domain.VaultEntry, error) {
			if in.Site != "github.com" || in.Username != "alice" || in.Secret != "x" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.VaultEntry{ID: "e1", Site: in.Site, Username: in.Username, Secret: in.Secret, CreatedAt: time.Now().UTC()}, nil
		},
	}
	handler := NewVaultHandler(stub, nil)

	c, rec := newAuthedContext(t, http.MethodPost, "/passwords", `{"site":"github.com","username":"alice","password":"x"}`)
	if err := handler.Add(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != "e1" || resp["site"] != "github.com" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestVaultHandler_Add_Validation(t *testing.T) {
	stub := &stubVaultService{
		addFn: func(ctx context.Context, userID string, in ports.AddEntryInput) (*domain.VaultEntry, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewVaultHandler(stub, nil)

	for _, body := range []string{
		`{"username":"alice","password":"x"}`,
		`{"site":"github.com","password":"x"}`,
		`{"site":"github.com","username":"alice"}`,
		"not-json",
	} {
		c, rec := newAuthedContext(t, http.MethodPost, "/passwords", body)
		_ = handler.Add(c)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestVaultHandler_Delete(t *testing.T) {
	deleted := ""
	stub := &stubVaultService{
		deleteFn: func(ctx context.Context, userID, entryID string) error {
			deleted = entryID
			return nil
		},
	}
	handler := NewVaultHandler(stub, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/passwords/e1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("e1")
	c.Set("user_id", "user_1")
	c.Set("username", "alice")

	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if deleted != "e1" {
		t.Fatalf("expected delete of e1, got %q", deleted)
	}
}

func TestVaultHandler_List_UnknownUser(t *testing.T) {
	stub := &stubVaultService{
		listFn: func(ctx context.Context, userID string) ([]domain.VaultEntry, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	handler := NewVaultHandler(stub, nil)

	c, rec := newAuthedContext(t, http.MethodGet, "/passwords", "")
	err := handler.List(c)
	if err == nil {
		t.Fatalf("expected error to propagate to the central handler")
	}
	if !strings.Contains(err.Error(), "user not found") {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("handler should not have written a response, got %d", rec.Code)
	}
}
