package ports

import (
	"context"

	"github.com/securepass/vault-api/internal/core/domain"
)

// UserRepository defines the interface for user and vault-entry persistence.
//
// Vault mutations are deliberately not modelled as load-modify-save: two
// concurrent writers on the same user would race and the second save would
// silently drop the first writer's change. Implementations must make
// AppendVaultEntry, RemoveVaultEntry, and EnableTwoFactor atomic per user.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// EnableTwoFactor flips totp_enabled to true. The flag never reverts;
	// calling it on an already-enrolled user is a no-op.
	EnableTwoFactor(ctx context.Context, id string) error

	AppendVaultEntry(ctx context.Context, userID string, entry domain.VaultEntry) error
	RemoveVaultEntry(ctx context.Context, userID, entryID string) error
}
