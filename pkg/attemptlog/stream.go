package attemptlog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authkit/pkg/auth"
)

// DefaultStreamKey is the Redis stream written by Stream.
const DefaultStreamKey = "authkit:login_attempts"

// Stream appends attempts to a capped Redis stream so other services
// (alerting, lockout) can consume them with XREAD.
type Stream struct {
	client redis.UniversalClient
	key    string
	maxLen int64
}

var (
	_ auth.AttemptLogger = (*Stream)(nil)
	_ BatchWriter        = (*Stream)(nil)
)

// StreamOption configures a Stream.
type StreamOption func(*Stream)

// WithStreamKey overrides DefaultStreamKey.
func WithStreamKey(key string) StreamOption {
	return func(s *Stream) { s.key = key }
}

// WithMaxLen caps the stream approximately at n entries. Zero disables trimming.
func WithMaxLen(n int64) StreamOption {
	return func(s *Stream) { s.maxLen = n }
}

func NewStream(client redis.UniversalClient, opts ...StreamOption) *Stream {
	s := &Stream{client: client, key: DefaultStreamKey, maxLen: 100_000}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stream) Record(ctx context.Context, a auth.LoginAttempt) error {
	if err := s.client.XAdd(ctx, s.args(a)).Err(); err != nil {
		return errors.Join(ErrStreamWrite, err)
	}
	return nil
}

// StoreBatch pipelines one XADD per attempt inside MULTI/EXEC.
func (s *Stream) StoreBatch(ctx context.Context, attempts []auth.LoginAttempt) error {
	if len(attempts) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, a := range attempts {
			p.XAdd(ctx, s.args(a))
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrStreamWrite, err)
	}
	return nil
}

func (s *Stream) args(a auth.LoginAttempt) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: s.key,
		MaxLen: s.maxLen,
		Approx: s.maxLen > 0,
		Values: map[string]any{
			"id_type":    a.IDType,
			"identifier": a.Identifier,
			"success":    strconv.FormatBool(a.Success),
			"user_id":    a.UserID,
			"ip":         a.IP,
			"user_agent": a.UserAgent,
			"ts":         a.Timestamp.UTC().Format(time.RFC3339Nano),
		},
	}
}

// ParseStreamEntry converts an XREAD message back into an attempt.
func ParseStreamEntry(msg redis.XMessage) (auth.LoginAttempt, error) {
	str := func(k string) string {
		v, _ := msg.Values[k].(string)
		return v
	}
	ok, err := strconv.ParseBool(str("success"))
	if err != nil {
		return auth.LoginAttempt{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, str("ts"))
	if err != nil {
		return auth.LoginAttempt{}, err
	}
	return auth.LoginAttempt{
		IDType:     str("id_type"),
		Identifier: str("identifier"),
		Success:    ok,
		UserID:     str("user_id"),
		IP:         str("ip"),
		UserAgent:  str("user_agent"),
		Timestamp:  ts,
	}, nil
}
