package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/authkit/pkg/auth"
)

// AttemptWriter appends login attempts to the auth_logins collection.
type AttemptWriter struct {
	coll *mongo.Collection
}

var _ auth.AttemptLogger = (*AttemptWriter)(nil)

func NewAttemptWriter(db *mongo.Database) *AttemptWriter {
	return &AttemptWriter{coll: db.Collection(AttemptsCollection)}
}

func (w *AttemptWriter) Record(ctx context.Context, a auth.LoginAttempt) error {
	return w.StoreBatch(ctx, []auth.LoginAttempt{a})
}

func (w *AttemptWriter) StoreBatch(ctx context.Context, attempts []auth.LoginAttempt) error {
	if len(attempts) == 0 {
		return nil
	}
	docs := make([]attemptDoc, 0, len(attempts))
	for _, a := range attempts {
		docs = append(docs, attemptDoc{
			IDType:     a.IDType,
			Identifier: a.Identifier,
			Success:    a.Success,
			UserID:     a.UserID,
			IP:         a.IP,
			UserAgent:  a.UserAgent,
			Timestamp:  a.Timestamp.UTC(),
		})
	}
	if _, err := w.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to store login attempts: %w", err)
	}
	return nil
}
