package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/securepass/vault-api/internal/core/domain"
	"github.com/securepass/vault-api/internal/core/ports"
)

// VaultHandler handles HTTP requests for vault entry operations. Every route
// sits behind the Auth middleware; the owning user comes from the token, never
// from the request body.
type VaultHandler struct {
	service ports.VaultService
	audit   ports.AuditSink
}

func NewVaultHandler(service ports.VaultService, audit ports.AuditSink) *VaultHandler {
	return &VaultHandler{service: service, audit: audit}
}

// List handles GET /passwords.
//
// @Summary      List vault entries
// @Tags         vault
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   vaultEntryResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /passwords [get]
func (h *VaultHandler) List(c echo.Context) error {
	userID, _, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	entries, err := h.service.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	resp := make([]vaultEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResponse(e))
	}
	return c.JSON(http.StatusOK, resp)
}

// Add handles POST /passwords.
//
// @Summary      Add a vault entry
// @Tags         vault
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addEntryRequest  true  "Site credential"
// @Success      201   {object}  vaultEntryResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /passwords [post]
func (h *VaultHandler) Add(c echo.Context) error {
	userID, username, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req addEntryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	entry, err := h.service.Add(c.Request().Context(), userID, ports.AddEntryInput{
		Site:     req.Site,
		Username: req.Username,
		Secret:   req.Password,
	})
	if err != nil {
		return err
	}

	h.recordAudit(c, username, domain.AuditVaultAdd)
	return c.JSON(http.StatusCreated, toEntryResponse(*entry))
}

// Delete handles DELETE /passwords/:id. Removing an absent id succeeds.
//
// @Summary      Delete a vault entry
// @Tags         vault
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Entry id"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /passwords/{id} [delete]
func (h *VaultHandler) Delete(c echo.Context) error {
	userID, username, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}

	h.recordAudit(c, username, domain.AuditVaultDelete)
	return c.JSON(http.StatusOK, map[string]string{"message": "entry deleted"})
}

func (h *VaultHandler) recordAudit(c echo.Context, username, action string) {
	if h.audit == nil {
		return
	}
	h.audit.Enqueue(ports.AuditInput{
		Username:  username,
		Action:    action,
		Outcome:   "success",
		RemoteIP:  c.RealIP(),
		Timestamp: time.Now().UTC(),
	})
}

func toEntryResponse(e domain.VaultEntry) vaultEntryResponse {
	return vaultEntryResponse{
		ID:        e.ID,
		Site:      e.Site,
		Username:  e.Username,
		Password:  e.Secret,
		CreatedAt: e.CreatedAt,
	}
}
