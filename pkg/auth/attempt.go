package auth

import (
	"context"
	"time"
)

// LoginAttempt is one append-only entry of the attempt log.
type LoginAttempt struct {
	IDType     string
	Identifier string
	Success    bool
	UserID     string // Empty when no subject was resolved
	IP         string
	UserAgent  string
	Timestamp  time.Time
}

// AttemptLogger receives one entry per Authenticator.Attempt call.
type AttemptLogger interface {
	Record(ctx context.Context, attempt LoginAttempt) error
}

// AttemptLoggerFunc adapts a function to AttemptLogger.
type AttemptLoggerFunc func(ctx context.Context, attempt LoginAttempt) error

func (f AttemptLoggerFunc) Record(ctx context.Context, attempt LoginAttempt) error {
	return f(ctx, attempt)
}

type noopAttemptLogger struct{}

func (noopAttemptLogger) Record(context.Context, LoginAttempt) error { return nil }

type clientInfoKey struct{}

type clientInfo struct {
	ip        string
	userAgent string
}

// WithClientInfo stores the caller's address and user agent so attempt
// entries written further down the request can carry them.
func WithClientInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, clientInfo{ip: ip, userAgent: userAgent})
}

// ClientInfoFromContext returns the values stored by WithClientInfo.
func ClientInfoFromContext(ctx context.Context) (ip, userAgent string) {
	ci, _ := ctx.Value(clientInfoKey{}).(clientInfo)
	return ci.ip, ci.userAgent
}

// MaskIdentifier keeps a short prefix of a secret for correlating log lines.
func MaskIdentifier(s string) string {
	const keep = 6
	if len(s) <= keep {
		return "***"
	}
	return s[:keep] + "***"
}
