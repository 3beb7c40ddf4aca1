package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultDelay is the batching window measured from the first pending key.
	DefaultDelay = 10 * time.Millisecond
	// DefaultMaxBatchSize flushes a batch early once this many distinct keys
	// are pending.
	DefaultMaxBatchSize = 100
)

// Func performs one bulk lookup for a deduplicated set of keys. It returns a
// value per key found; keys absent from the result resolve to the zero value
// for V, not an error.
type Func[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// Loader coalesces temporally-close single-key lookups into one bulk call.
// Keys requested within the batching window of the first pending key share a
// single underlying fetch; a key requested twice in one window is fetched
// once. Reaching the size cap flushes immediately without waiting out the
// window. Safe for concurrent use.
type Loader[K comparable, V any] struct {
	fn           Func[K, V]
	delay        time.Duration
	maxBatchSize int
	logger       *slog.Logger

	mu      sync.Mutex
	pending *bucket[K, V]
}

// bucket is one open batch. All callers that joined it observe results
// strictly after fn resolves, via the done channel; no partial results.
type bucket[K comparable, V any] struct {
	seen    map[K]struct{}
	keys    []K
	timer   *time.Timer
	done    chan struct{}
	results map[K]V
	err     error
}

// LoaderOption configures a Loader.
type LoaderOption[K comparable, V any] func(*Loader[K, V])

// WithDelay sets the batching window.
func WithDelay[K comparable, V any](delay time.Duration) LoaderOption[K, V] {
	return func(l *Loader[K, V]) {
		l.delay = delay
	}
}

// WithMaxBatchSize sets the early-flush size cap.
func WithMaxBatchSize[K comparable, V any](size int) LoaderOption[K, V] {
	return func(l *Loader[K, V]) {
		l.maxBatchSize = size
	}
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger[K comparable, V any](logger *slog.Logger) LoaderOption[K, V] {
	return func(l *Loader[K, V]) {
		l.logger = logger
	}
}

// NewLoader creates a batching loader around one bulk lookup function.
func NewLoader[K comparable, V any](fn Func[K, V], options ...LoaderOption[K, V]) *Loader[K, V] {
	l := &Loader[K, V]{
		fn:           fn,
		delay:        DefaultDelay,
		maxBatchSize: DefaultMaxBatchSize,
		logger:       slog.Default(),
	}

	for _, opt := range options {
		opt(l)
	}

	return l
}

// Load enqueues key and blocks until the batch containing it executes. A key
// with no matching record resolves to the zero value of V. A batch function
// error fans out to every caller that joined that batch.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	l.mu.Lock()

	b := l.pending
	if b == nil {
		b = &bucket[K, V]{
			seen: make(map[K]struct{}),
			done: make(chan struct{}),
		}
		l.pending = b
		// Window opens when the first key arrives.
		b.timer = time.AfterFunc(l.delay, func() {
			l.flush(b)
		})
	}

	if _, dup := b.seen[key]; !dup {
		b.seen[key] = struct{}{}
		b.keys = append(b.keys, key)

		if len(b.keys) >= l.maxBatchSize {
			l.detachLocked(b)
			go l.run(b)
		}
	}

	l.mu.Unlock()

	select {
	case <-b.done:
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}

	if b.err != nil {
		var zero V
		return zero, b.err
	}

	return b.results[key], nil
}

// flush is the timer path: execute the batch if it is still the open one.
func (l *Loader[K, V]) flush(b *bucket[K, V]) {
	l.mu.Lock()
	if l.pending != b {
		// Already flushed by the size cap.
		l.mu.Unlock()
		return
	}
	l.detachLocked(b)
	l.mu.Unlock()

	l.run(b)
}

// detachLocked removes b as the open batch so new keys start a fresh window.
func (l *Loader[K, V]) detachLocked(b *bucket[K, V]) {
	if l.pending == b {
		l.pending = nil
	}
	if b.timer != nil {
		b.timer.Stop()
	}
}

func (l *Loader[K, V]) run(b *bucket[K, V]) {
	defer close(b.done)

	results, err := l.fn(context.Background(), b.keys)
	if err != nil {
		l.logger.Error("batch load failed",
			"keys", len(b.keys),
			"error", err)
		b.err = err
		return
	}

	b.results = results
	l.logger.Debug("batch loaded",
		"requested", len(b.keys),
		"found", len(results))
}

// MapByKey indexes a slice of records by an identity field, the shape a
// Func implementation needs to match records back to requested keys.
func MapByKey[K comparable, V any](items []V, key func(V) K) map[K]V {
	out := make(map[K]V, len(items))
	for _, item := range items {
		out[key(item)] = item
	}
	return out
}
