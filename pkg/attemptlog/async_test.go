package attemptlog_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/attemptlog"
	"github.com/dmitrymomot/authkit/pkg/auth"
)

// batchRecorder counts batches and optionally fails them.
type batchRecorder struct {
	mu      sync.Mutex
	batches [][]auth.LoginAttempt
	err     error
	delay   time.Duration
}

func (b *batchRecorder) StoreBatch(_ context.Context, attempts []auth.LoginAttempt) error {
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batches = append(b.batches, append([]auth.LoginAttempt(nil), attempts...))
	return b.err
}

func (b *batchRecorder) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, batch := range b.batches {
		n += len(batch)
	}
	return n
}

func (b *batchRecorder) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.batches)
}

func TestAsyncWriter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("batches concurrent records", func(t *testing.T) {
		t.Parallel()
		bw := &batchRecorder{}
		w := attemptlog.NewAsyncWriter(bw, attemptlog.AsyncOptions{BatchSize: 10, BatchTimeout: 50 * time.Millisecond})

		var wg sync.WaitGroup
		for i := range 25 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, w.Record(ctx, auth.LoginAttempt{IDType: "jwt", Success: i%2 == 0}))
			}(i)
		}
		wg.Wait()
		require.NoError(t, w.Close(ctx))

		assert.Equal(t, 25, bw.total())
		assert.Less(t, bw.count(), 25)
	})

	t.Run("storage error reaches callers", func(t *testing.T) {
		t.Parallel()
		bw := &batchRecorder{err: errors.New("db down")}
		w := attemptlog.NewAsyncWriter(bw, attemptlog.AsyncOptions{BatchTimeout: 10 * time.Millisecond})
		defer w.Close(ctx)

		err := w.Record(ctx, auth.LoginAttempt{IDType: "hmac_token"})
		assert.EqualError(t, err, "db down")
	})

	t.Run("closed writer rejects", func(t *testing.T) {
		t.Parallel()
		w := attemptlog.NewAsyncWriter(&batchRecorder{}, attemptlog.AsyncOptions{})
		require.NoError(t, w.Close(ctx))
		require.NoError(t, w.Close(ctx))

		assert.ErrorIs(t, w.Record(ctx, auth.LoginAttempt{}), attemptlog.ErrWriterClosed)
	})

	t.Run("caller context cancels the wait", func(t *testing.T) {
		t.Parallel()
		bw := &batchRecorder{delay: 200 * time.Millisecond}
		w := attemptlog.NewAsyncWriter(bw, attemptlog.AsyncOptions{BatchTimeout: 5 * time.Millisecond})
		defer w.Close(ctx)

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, w.Record(cctx, auth.LoginAttempt{}), context.DeadlineExceeded)
	})

	t.Run("nil writer panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { attemptlog.NewAsyncWriter(nil, attemptlog.AsyncOptions{}) })
	})
}

func TestMemoryAndMulti(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	a, b := attemptlog.NewMemory(), attemptlog.NewMemory()
	failing := auth.AttemptLoggerFunc(func(context.Context, auth.LoginAttempt) error {
		return errors.New("sink down")
	})
	multi := attemptlog.Multi(a, failing, nil, b)

	err := multi.Record(ctx, auth.LoginAttempt{IDType: "magic_link", UserID: "u1", Success: true})
	assert.EqualError(t, err, "sink down")
	require.NoError(t, b.StoreBatch(ctx, []auth.LoginAttempt{{IDType: "jwt", UserID: "u2"}}))

	assert.Len(t, a.All(), 1)
	assert.Len(t, b.All(), 2)
	assert.Len(t, b.ForUser("u1"), 1)
	assert.Empty(t, a.ForUser("u2"))
}
