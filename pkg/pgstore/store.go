package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/pg"
)

// Store is an auth.CredentialStore backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ auth.CredentialStore = (*Store)(nil)

// New wraps db, typically pg.SQL(pool).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const identityColumns = `id, owner_id, type, name, secret, secret2, extra, expires_at, last_used_at, force_reset, created_at`

func (s *Store) FindIdentityByTypeAndSecret(ctx context.Context, typ auth.IdentityType, secret string) (*auth.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM auth_identities WHERE type = $1 AND secret = $2`,
		string(typ), secret)
	return scanIdentity(row)
}

func (s *Store) FindIdentitiesByOwner(ctx context.Context, ownerID string, typ auth.IdentityType) ([]*auth.Identity, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, nil
	}

	query := `SELECT ` + identityColumns + ` FROM auth_identities WHERE owner_id = $1`
	args := []any{owner}
	if typ != "" {
		query += ` AND type = $2`
		args = append(args, string(typ))
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	var out []*auth.Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	return out, nil
}

func (s *Store) SaveIdentity(ctx context.Context, identity *auth.Identity) error {
	return saveIdentity(ctx, s.db, identity)
}

func (s *Store) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auth_identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrIdentityNotFound
	}
	return nil
}

// TouchIdentity is a plain UPDATE, so a concurrently deleted row is not
// brought back.
func (s *Store) TouchIdentity(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE auth_identities SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to touch identity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrIdentityNotFound
	}
	return nil
}

// ConsumeIdentity relies on DELETE ... RETURNING, so of two concurrent
// callers only the one whose statement removed the row gets it back.
func (s *Store) ConsumeIdentity(ctx context.Context, typ auth.IdentityType, secret string) (*auth.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`DELETE FROM auth_identities WHERE type = $1 AND secret = $2 RETURNING `+identityColumns,
		string(typ), secret)
	return scanIdentity(row)
}

func (s *Store) ReplaceUniqueIdentity(ctx context.Context, identity *auth.Identity) error {
	owner, err := uuid.Parse(identity.OwnerID)
	if err != nil {
		return auth.ErrSubjectNotFound
	}

	return withTx(ctx, s.db, func(tx DBTX) error {
		var current uuid.UUID
		err := tx.QueryRowContext(ctx,
			`SELECT owner_id FROM auth_identities WHERE type = $1 AND secret = $2 FOR UPDATE`,
			string(identity.Type), identity.Secret).Scan(&current)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("failed to lock identity: %w", err)
		case current != owner:
			return auth.ErrIdentityTypeExists
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM auth_identities WHERE owner_id = $1 AND type = $2`,
			owner, string(identity.Type)); err != nil {
			return fmt.Errorf("failed to remove previous identities: %w", err)
		}
		return saveIdentity(ctx, tx, identity)
	})
}

func (s *Store) FindSubjectByID(ctx context.Context, id string) (auth.Subject, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, auth.ErrSubjectNotFound
	}

	u := &auth.User{}
	var lastActive sql.NullTime
	err = s.db.QueryRowContext(ctx,
		`SELECT id, email, name, active, last_active_at, created_at FROM users WHERE id = $1`, uid).
		Scan(&u.ID, &u.Email, &u.Name, &u.Active, &lastActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pg.IsNotFoundError(err) {
			return nil, auth.ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	u.LastActive = timePtr(lastActive)
	return u, nil
}

func (s *Store) RecordSubjectActive(ctx context.Context, id string, at time.Time) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return auth.ErrSubjectNotFound
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_active_at = $2 WHERE id = $1`, uid, at)
	if err != nil {
		return fmt.Errorf("failed to update user activity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
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
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, active, last_active_at, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Name, u.Active, u.LastActive, u.CreatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return auth.ErrSubjectExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func saveIdentity(ctx context.Context, db DBTX, i *auth.Identity) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	owner, err := uuid.Parse(i.OwnerID)
	if err != nil {
		return auth.ErrSubjectNotFound
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO auth_identities (`+identityColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name,
		     secret = EXCLUDED.secret,
		     secret2 = EXCLUDED.secret2,
		     extra = EXCLUDED.extra,
		     expires_at = EXCLUDED.expires_at,
		     last_used_at = EXCLUDED.last_used_at,
		     force_reset = EXCLUDED.force_reset`,
		i.ID, owner, string(i.Type), i.Name, i.Secret, i.Secret2, i.Extra,
		i.Expires, i.LastUsedAt, i.ForceReset, i.CreatedAt)
	switch {
	case err == nil:
		return nil
	case pg.IsDuplicateKeyError(err):
		return auth.ErrIdentityTypeExists
	case pg.IsForeignKeyViolationError(err):
		return auth.ErrSubjectNotFound
	default:
		return fmt.Errorf("failed to save identity: %w", err)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row scanner) (*auth.Identity, error) {
	var (
		i                   auth.Identity
		owner               uuid.UUID
		typ                 string
		expires, lastUsedAt sql.NullTime
	)
	err := row.Scan(&i.ID, &owner, &typ, &i.Name, &i.Secret, &i.Secret2, &i.Extra,
		&expires, &lastUsedAt, &i.ForceReset, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to scan identity: %w", err)
	}
	i.OwnerID = owner.String()
	i.Type = auth.IdentityType(typ)
	i.Expires = timePtr(expires)
	i.LastUsedAt = timePtr(lastUsedAt)
	return &i, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
