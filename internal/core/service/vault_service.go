package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"

	"github.com/securepass/vault-api/internal/api/metrics"
	"github.com/securepass/vault-api/internal/core/domain"
	"github.com/securepass/vault-api/internal/core/ports"
)

// VaultService implements CRUD over a user's credential records. All
// operations are scoped to the authenticated owner; mutations go through the
// repository's atomic append/remove primitives so concurrent writers on the
// same user never lose updates.
type VaultService struct {
	users  ports.UserRepository
	logger zerolog.Logger
}

func NewVaultService(users ports.UserRepository, logger zerolog.Logger) *VaultService {
	return &VaultService{users: users, logger: logger}
}

// List returns the owner's entries in insertion order.
func (s *VaultService) List(ctx context.Context, userID string) ([]domain.VaultEntry, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	metrics.VaultOperationsTotal.WithLabelValues("list").Inc()
	if user.VaultEntries == nil {
		return []domain.VaultEntry{}, nil
	}
	return user.VaultEntries, nil
}

// Add appends a new entry to the owner's vault and returns it with its
// generated id.
func (s *VaultService) Add(ctx context.Context, userID string, in ports.AddEntryInput) (*domain.VaultEntry, error) {
	if in.Site == "" || in.Username == "" || in.Secret == "" {
		return nil, domain.ErrInvalidInput
	}

	entry := domain.VaultEntry{
		ID:        newEntryID(),
		Site:      in.Site,
		Username:  in.Username,
		Secret:    in.Secret,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.users.AppendVaultEntry(ctx, userID, entry); err != nil {
		return nil, err
	}

	metrics.VaultOperationsTotal.WithLabelValues("add").Inc()
	s.logger.Info().Str("user_id", userID).Str("site", in.Site).Msg("vault entry added")
	return &entry, nil
}

// Delete removes the entry with the given id. Deleting an absent id succeeds.
func (s *VaultService) Delete(ctx context.Context, userID, entryID string) error {
	if err := s.users.RemoveVaultEntry(ctx, userID, entryID); err != nil {
		return err
	}

	metrics.VaultOperationsTotal.WithLabelValues("delete").Inc()
	s.logger.Info().Str("user_id", userID).Str("entry_id", entryID).Msg("vault entry deleted")
	return nil
}

// newEntryID returns a 24-char hex identifier, unique within the owner's
// collection with overwhelming probability.
func newEntryID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		// fallback: derive from the current time
		return hex.EncodeToString([]byte(time.Now().UTC().Format("060102150405.000")))[:24]
	}
	return hex.EncodeToString(b)
}
