package ports

import (
	"context"

	"github.com/securepass/vault-api/internal/core/domain"
)

// AddEntryInput carries the caller-supplied fields of a new vault entry.
// Values are opaque to the system and not validated for format.
type AddEntryInput struct {
	Site     string
	Username string
	Secret   string
}

// VaultService manages a user's credential records, scoped strictly to the
// authenticated owner.
type VaultService interface {
	List(ctx context.Context, userID string) ([]domain.VaultEntry, error)
	Add(ctx context.Context, userID string, in AddEntryInput) (*domain.VaultEntry, error)
	Delete(ctx context.Context, userID, entryID string) error
}
