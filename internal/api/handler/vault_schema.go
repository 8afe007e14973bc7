package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type addEntryRequest struct {
	Site     string `json:"site" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// vaultEntryResponse is the transport representation of a vault entry.
// Intentionally separate from the domain type so the JSON contract is not
// coupled to internal changes.
type vaultEntryResponse struct {
	ID        string    `json:"id"`
	Site      string    `json:"site"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}
