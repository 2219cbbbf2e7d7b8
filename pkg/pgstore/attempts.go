package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrymomot/authkit/pkg/auth"
)

// AttemptWriter appends login attempts to the auth_logins table.
// It implements auth.AttemptLogger and the batch interface used by
// attemptlog.AsyncWriter.
type AttemptWriter struct {
	db *sql.DB
}

var _ auth.AttemptLogger = (*AttemptWriter)(nil)

func NewAttemptWriter(db *sql.DB) *AttemptWriter {
	return &AttemptWriter{db: db}
}

func (w *AttemptWriter) Record(ctx context.Context, a auth.LoginAttempt) error {
	return w.StoreBatch(ctx, []auth.LoginAttempt{a})
}

// StoreBatch inserts all attempts with one statement.
func (w *AttemptWriter) StoreBatch(ctx context.Context, attempts []auth.LoginAttempt) error {
	if len(attempts) == 0 {
		return nil
	}

	const cols = 7
	var b strings.Builder
	b.WriteString(`INSERT INTO auth_logins (id_type, identifier, success, user_id, ip, user_agent, created_at) VALUES `)
	args := make([]any, 0, len(attempts)*cols)
	for n, a := range attempts {
		if n > 0 {
			b.WriteString(", ")
		}
		base := n * cols
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args, a.IDType, a.Identifier, a.Success, a.UserID, a.IP, a.UserAgent, a.Timestamp)
	}

	if _, err := w.db.ExecContext(ctx, b.String(), args...); err != nil {
		return fmt.Errorf("failed to store login attempts: %w", err)
	}
	return nil
}

// Recent returns the latest attempts for a user, newest first.
func (w *AttemptWriter) Recent(ctx context.Context, userID string, limit int) ([]auth.LoginAttempt, error) {
	rows, err := w.db.QueryContext(ctx,
		`SELECT id_type, identifier, success, user_id, ip, user_agent, created_at
		 FROM auth_logins WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query login attempts: %w", err)
	}
	defer rows.Close()

	var out []auth.LoginAttempt
	for rows.Next() {
		var a auth.LoginAttempt
		if err := rows.Scan(&a.IDType, &a.Identifier, &a.Success, &a.UserID, &a.IP, &a.UserAgent, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan login attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
