package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxIdentity extracts the identity injected by the Auth middleware and
// performs a fast-fail check before any service call: both values must be
// present, their absence means the middleware did not run.
func ctxIdentity(c echo.Context) (userID, username string, err error) {
	userID, _ = c.Get("user_id").(string)
	username, _ = c.Get("username").(string)
	if userID == "" || username == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, username, nil
}
