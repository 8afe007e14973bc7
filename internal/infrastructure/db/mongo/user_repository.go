package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/securepass/vault-api/internal/core/domain"
)

const usersCollection = "users"

// UserRepository implements ports.UserRepository using MongoDB. The vault
// entry list is embedded in the user document and mutated exclusively with
// $push/$pull, so concurrent writers on the same user never lose updates.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type mongoVaultEntry struct {
	ID        string    `bson:"id"`
	Site      string    `bson:"site"`
	Username  string    `bson:"username"`
	Secret    string    `bson:"secret"`
	CreatedAt time.Time `bson:"created_at"`
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
	TOTPSecret   string             `bson:"totp_secret"`
	TOTPEnabled  bool               `bson:"totp_enabled"`
	VaultEntries []mongoVaultEntry  `bson:"vault_entries"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoUser{
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		TOTPSecret:   user.TOTPSecret,
		TOTPEnabled:  user.TOTPEnabled,
		VaultEntries: []mongoVaultEntry{},
		CreatedAt:    user.CreatedAt.UTC(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return toDomainUser(&mu), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return toDomainUser(&mu), nil
}

// EnableTwoFactor sets totp_enabled. The update is a plain $set guarded by
// _id only, so re-confirming enrollment is a harmless no-op.
func (r *UserRepository) EnableTwoFactor(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"totp_enabled": true}})
	if err != nil {
		return fmt.Errorf("enable 2fa: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// AppendVaultEntry atomically appends an entry to the owner's list.
func (r *UserRepository) AppendVaultEntry(ctx context.Context, userID string, entry domain.VaultEntry) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	push := bson.M{"$push": bson.M{"vault_entries": mongoVaultEntry{
		ID:        entry.ID,
		Site:      entry.Site,
		Username:  entry.Username,
		Secret:    entry.Secret,
		CreatedAt: entry.CreatedAt.UTC(),
	}}}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, push)
	if err != nil {
		return fmt.Errorf("append vault entry: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// RemoveVaultEntry atomically removes the entry with the given id. Pulling an
// absent id matches the user but modifies nothing, which is the intended
// idempotent behaviour.
func (r *UserRepository) RemoveVaultEntry(ctx context.Context, userID, entryID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pull := bson.M{"$pull": bson.M{"vault_entries": bson.M{"id": entryID}}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, pull)
	if err != nil {
		return fmt.Errorf("remove vault entry: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the unique username index that backs the
// one-user-per-username invariant.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func toDomainUser(mu *mongoUser) *domain.User {
	entries := make([]domain.VaultEntry, 0, len(mu.VaultEntries))
	for _, e := range mu.VaultEntries {
		entries = append(entries, domain.VaultEntry{
			ID:        e.ID,
			Site:      e.Site,
			Username:  e.Username,
			Secret:    e.Secret,
			CreatedAt: e.CreatedAt.UTC(),
		})
	}

	return &domain.User{
		ID:           mu.ID.Hex(),
		Username:     mu.Username,
		PasswordHash: mu.PasswordHash,
		TOTPSecret:   mu.TOTPSecret,
		TOTPEnabled:  mu.TOTPEnabled,
		VaultEntries: entries,
		CreatedAt:    mu.CreatedAt.UTC(),
	}
}
