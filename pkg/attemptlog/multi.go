package attemptlog

import (
	"context"
	"errors"
	"slices"

	"github.com/dmitrymomot/authkit/pkg/auth"
)

// Multi fans an attempt out to every logger and joins their errors.
// Nil loggers are skipped.
func Multi(loggers ...auth.AttemptLogger) auth.AttemptLogger {
	loggers = slices.DeleteFunc(slices.Clone(loggers), func(l auth.AttemptLogger) bool { return l == nil })
	return auth.AttemptLoggerFunc(func(ctx context.Context, a auth.LoginAttempt) error {
		var errs []error
		for _, l := range loggers {
			if err := l.Record(ctx, a); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
