package folio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderZeroValueBeforeFirstLoad(t *testing.T) {
	l := NewLoader(time.Minute, func(ctx context.Context) (int, error) {
		return 0, errors.New("db down")
	})

	v, loaded, err := l.Get(context.Background())
	assert.Zero(t, v)
	assert.False(t, loaded)
	assert.Error(t, err)
}

func TestLoaderCachesWithinTTL(t *testing.T) {
	calls := 0
	l := NewLoader(time.Minute, func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	})
	ctx := context.Background()

	v, loaded, err := l.Get(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 1, v)

	v, _, err = l.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, calls)
}

func TestLoaderKeepsStaleValueOnFailedRefresh(t *testing.T) {
	fail := false
	l := NewLoader(time.Minute, func(ctx context.Context) (string, error) {
		if fail {
			return "", errors.New("db down")
		}
		return "good", nil
	})
	ctx := context.Background()

	_, _, err := l.Get(ctx)
	require.NoError(t, err)

	fail = true
	v, loaded, err := l.Refresh(ctx)
	assert.Error(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "good", v)
	assert.Error(t, l.Err())

	// Recovery clears the recorded error.
	fail = false
	v, loaded, err = l.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "good", v)
	assert.NoError(t, l.Err())
}

func TestLoaderInvalidateForcesRefetch(t *testing.T) {
	calls := 0
	l := NewLoader(time.Hour, func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	})
	ctx := context.Background()

	_, _, err := l.Get(ctx)
	require.NoError(t, err)
	l.Invalidate()

	v, _, err := l.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestLoaderDiscardsStaleCompletion(t *testing.T) {
	// A slow refresh that completes after a newer one must not clobber the
	// newer result.
	release := make(chan struct{})
	var mu sync.Mutex
	next := 0
	l := NewLoader(time.Hour, func(ctx context.Context) (int, error) {
		mu.Lock()
		next++
		n := next
		mu.Unlock()
		if n == 1 {
			<-release // first fetch stalls until the second commits
		}
		return n, nil
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	var slowV int
	go func() {
		defer wg.Done()
		slowV, _, _ = l.Refresh(ctx)
	}()

	// Wait for the slow fetch to be in flight before issuing the fast one.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return next == 1
	}, time.Second, time.Millisecond)

	fastV, loaded, err := l.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 2, fastV)

	close(release)
	wg.Wait()

	// The stale completion hands back the committed value instead of its own.
	assert.Equal(t, 2, slowV)
	v, _, err := l.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}
