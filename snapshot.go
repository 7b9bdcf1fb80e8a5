package folio

import (
	"context"
	"sync"
	"time"
)

// Loader caches the result of a fetch function with a TTL, in the manner of
// a read-through cache with two deliberate contract points:
//
//   - A failed refresh keeps the last good value. Callers see stale data
//     and a non-nil error at the same time, and decide what to show.
//   - Out-of-order completions are detected, not raced. Every refresh takes
//     a monotonically increasing sequence number and only the result of the
//     newest issued request may commit; a slow stale response is discarded.
//
// Before the first successful load the returned value is the zero value and
// loaded is false — callers must check loaded, not the error, to know
// whether there is anything to render.
type Loader[T any] struct {
	mu      sync.Mutex
	fetch   func(ctx context.Context) (T, error)
	ttl     time.Duration
	value   T
	loaded  bool
	err     error
	fetched time.Time
	seq     uint64 // last issued refresh
	applied uint64 // refresh whose result is currently committed
}

// NewLoader creates a Loader around fetch with the given freshness window.
func NewLoader[T any](ttl time.Duration, fetch func(ctx context.Context) (T, error)) *Loader[T] {
	return &Loader[T]{fetch: fetch, ttl: ttl}
}

func (l *Loader[T]) fresh() bool {
	return l.loaded && l.err == nil && time.Since(l.fetched) < l.ttl
}

// Get returns the cached value, refreshing first when the cache is stale.
// On refresh failure the previous value is returned together with the
// error.
func (l *Loader[T]) Get(ctx context.Context) (value T, loaded bool, err error) {
	l.mu.Lock()
	if l.fresh() {
		value, loaded = l.value, l.loaded
		l.mu.Unlock()
		return value, loaded, nil
	}
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// Refresh fetches unconditionally and commits the result if no newer
// refresh has been issued in the meantime.
func (l *Loader[T]) Refresh(ctx context.Context) (value T, loaded bool, err error) {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	v, fetchErr := l.fetch(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	// A newer refresh was issued while this one ran; its result wins
	// regardless of which completes first. Hand back whatever is committed.
	if seq < l.seq {
		return l.value, l.loaded, l.err
	}

	l.applied = seq
	if fetchErr != nil {
		// Keep the stale value visible alongside the error.
		l.err = fetchErr
		return l.value, l.loaded, fetchErr
	}
	l.value = v
	l.loaded = true
	l.err = nil
	l.fetched = time.Now()
	return l.value, true, nil
}

// Invalidate marks the cache stale so the next Get refetches. Committed
// data stays available as the stale fallback.
func (l *Loader[T]) Invalidate() {
	l.mu.Lock()
	l.fetched = time.Time{}
	l.mu.Unlock()
}

// Err returns the error recorded by the most recent completed refresh.
func (l *Loader[T]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
