package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/authkit/pkg/auth"
)

// Collection names used by Store.
const (
	UsersCollection      = "users"
	IdentitiesCollection = "auth_identities"
	AttemptsCollection   = "auth_logins"
)

// Store is an auth.CredentialStore backed by MongoDB.
type Store struct {
	users      *mongo.Collection
	identities *mongo.Collection
}

var _ auth.CredentialStore = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		users:      db.Collection(UsersCollection),
		identities: db.Collection(IdentitiesCollection),
	}
}

// EnsureIndexes creates the unique (type, secret) and email indexes.
// It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.identities.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "type", Value: 1}, {Key: "secret", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "type", Value: 1}, {Key: "created_at", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create identity indexes: %w", err)
	}

	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (s *Store) FindIdentityByTypeAndSecret(ctx context.Context, typ auth.IdentityType, secret string) (*auth.Identity, error) {
	var doc identityDoc
	err := s.identities.FindOne(ctx, bson.M{"type": string(typ), "secret": secret}).Decode(&doc)
	if err != nil {
		return nil, identityErr("find identity", err)
	}
	return doc.identity(), nil
}

func (s *Store) FindIdentitiesByOwner(ctx context.Context, ownerID string, typ auth.IdentityType) ([]*auth.Identity, error) {
	filter := bson.M{"owner_id": ownerID}
	if typ != "" {
		filter["type"] = string(typ)
	}

	cur, err := s.identities.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	var docs []identityDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode identities: %w", err)
	}

	out := make([]*auth.Identity, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.identity())
	}
	return out, nil
}

func (s *Store) SaveIdentity(ctx context.Context, identity *auth.Identity) error {
	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}
	doc := toIdentityDoc(identity)
	_, err := s.identities.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.ErrIdentityTypeExists
		}
		return fmt.Errorf("failed to save identity: %w", err)
	}
	return nil
}

func (s *Store) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	res, err := s.identities.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	if res.DeletedCount == 0 {
		return auth.ErrIdentityNotFound
	}
	return nil
}

// TouchIdentity updates last_used_at without upserting.
func (s *Store) TouchIdentity(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := s.identities.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": bson.M{"last_used_at": at.UTC()}})
	if err != nil {
		return fmt.Errorf("failed to touch identity: %w", err)
	}
	if res.MatchedCount == 0 {
		return auth.ErrIdentityNotFound
	}
	return nil
}

// ConsumeIdentity uses FindOneAndDelete, which is atomic per document.
func (s *Store) ConsumeIdentity(ctx context.Context, typ auth.IdentityType, secret string) (*auth.Identity, error) {
	var doc identityDoc
	err := s.identities.FindOneAndDelete(ctx, bson.M{"type": string(typ), "secret": secret}).Decode(&doc)
	if err != nil {
		return nil, identityErr("consume identity", err)
	}
	return doc.identity(), nil
}

// ReplaceUniqueIdentity writes the new record before removing the old ones,
// so the owner never ends up without a record of the type. A record with
// the same secret and owner keeps its ID.
func (s *Store) ReplaceUniqueIdentity(ctx context.Context, identity *auth.Identity) error {
	existing, err := s.FindIdentityByTypeAndSecret(ctx, identity.Type, identity.Secret)
	switch {
	case errors.Is(err, auth.ErrIdentityNotFound):
	case err != nil:
		return err
	case existing.OwnerID != identity.OwnerID:
		return auth.ErrIdentityTypeExists
	default:
		identity.ID = existing.ID
	}

	if err := s.SaveIdentity(ctx, identity); err != nil {
		return err
	}

	_, err = s.identities.DeleteMany(ctx, bson.M{
		"owner_id": identity.OwnerID,
		"type":     string(identity.Type),
		"_id":      bson.M{"$ne": identity.ID.String()},
	})
	if err != nil {
		return fmt.Errorf("failed to remove previous identities: %w", err)
	}
	return nil
}

func (s *Store) FindSubjectByID(ctx context.Context, id string) (auth.Subject, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return doc.user(), nil
}

func (s *Store) RecordSubjectActive(ctx context.Context, id string, at time.Time) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_active_at": at.UTC()}})
	if err != nil {
		return fmt.Errorf("failed to update user activity: %w", err)
	}
	if res.MatchedCount == 0 {
		return auth.ErrSubjectNotFound
	}
	return nil
}

// CreateUser inserts u, assigning an ID when it has none.
func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.users.InsertOne(ctx, userDoc{
		ID:         u.AuthID(),
		Email:      u.Email,
		Name:       u.Name,
		Active:     u.Active,
		LastActive: utcPtr(u.LastActive),
		CreatedAt:  u.CreatedAt.UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.ErrSubjectExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func identityErr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return auth.ErrIdentityNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
