package attemptlog

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/authkit/pkg/auth"
)

// BatchWriter stores attempts in bulk. Implementations must write all
// or nothing.
type BatchWriter interface {
	StoreBatch(ctx context.Context, attempts []auth.LoginAttempt) error
}

// AsyncOptions controls buffering and batching.
type AsyncOptions struct {
	BufferSize     int           // Queued attempts before Record falls back to a direct write
	BatchSize      int           // Flush once this many attempts are pending
	BatchTimeout   time.Duration // Flush partial batches at least this often
	StorageTimeout time.Duration // Per-batch write timeout
}

// AsyncWriter batches attempts in a background goroutine.
// Record blocks until the batch holding its attempt has been written.
type AsyncWriter struct {
	batchWriter BatchWriter
	queue       chan pending
	done        chan struct{}
	stopped     chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
	options     AsyncOptions
}

var _ auth.AttemptLogger = (*AsyncWriter)(nil)

type pending struct {
	attempt auth.LoginAttempt
	result  chan error
}

// NewAsyncWriter starts the worker. Call Close on shutdown to flush.
func NewAsyncWriter(bw BatchWriter, opts AsyncOptions) *AsyncWriter {
	if bw == nil {
		panic("attemptlog: batch writer cannot be nil")
	}
	if opts.BufferSize == 0 {
		opts.BufferSize = 1000
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout == 0 {
		opts.BatchTimeout = 100 * time.Millisecond
	}
	if opts.StorageTimeout == 0 {
		opts.StorageTimeout = 5 * time.Second
	}

	w := &AsyncWriter{
		batchWriter: bw,
		queue:       make(chan pending, opts.BufferSize),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		options:     opts,
	}
	w.wg.Add(1)
	go w.worker()
	return w
}

func (w *AsyncWriter) Record(ctx context.Context, a auth.LoginAttempt) error {
	select {
	case <-w.done:
		return ErrWriterClosed
	default:
	}

	p := pending{attempt: a, result: make(chan error, 1)}
	select {
	case w.queue <- p:
		select {
		case err := <-p.result:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopped:
			select {
			case err := <-p.result:
				return err
			default:
				return ErrWriterClosed
			}
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return ErrWriterClosed
	default:
		// Buffer full: write through so no attempt is dropped.
		return w.batchWriter.StoreBatch(ctx, []auth.LoginAttempt{a})
	}
}

func (w *AsyncWriter) worker() {
	defer w.wg.Done()
	defer close(w.stopped)

	batch := make([]auth.LoginAttempt, 0, w.options.BatchSize)
	results := make([]chan error, 0, w.options.BatchSize)
	ticker := time.NewTicker(w.options.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		// Detached from request contexts so a cancelled caller does not
		// abort the writes of everyone else in the batch.
		ctx, cancel := context.WithTimeout(context.Background(), w.options.StorageTimeout)
		err := w.batchWriter.StoreBatch(ctx, batch)
		cancel()

		for _, r := range results {
			r <- err
		}
		clear(batch)
		clear(results)
		batch = batch[:0]
		results = results[:0]
	}

	add := func(p pending) {
		batch = append(batch, p.attempt)
		results = append(results, p.result)
	}

	for {
		select {
		case p := <-w.queue:
			add(p)
			if len(batch) >= w.options.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-w.done:
			for {
				select {
				case p := <-w.queue:
					add(p)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops accepting attempts and flushes what is queued.
// It returns ctx.Err() if the flush outlives ctx.
func (w *AsyncWriter) Close(ctx context.Context) error {
	w.closeOnce.Do(func() { close(w.done) })

	flushed := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(flushed)
	}()

	select {
	case <-flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
