package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleWorkerPreservesOrderAndDrainsOnStop(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	q := New("test", func(_ context.Context, id string) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, id)
		return nil
	}, Config{Buffer: 16})

	q.Start(context.Background())
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, q.Enqueue(context.Background(), id))
	}
	q.Stop()

	assert.Equal(t, []string{"a", "b", "c", "d"}, seen)
	assert.Equal(t, Stats{Processed: 4}, q.Stats())
}

func TestTryEnqueueReportsFullBuffer(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	q := New("full", func(_ context.Context, _ int) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil
	}, Config{Buffer: 1})
	q.Start(context.Background())

	require.NoError(t, q.TryEnqueue(1))
	<-started
	require.NoError(t, q.TryEnqueue(2))
	assert.Equal(t, 1, q.Stats().Depth)

	assert.ErrorIs(t, q.TryEnqueue(3), ErrQueueFull)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Enqueue(ctx, 4), context.DeadlineExceeded)

	close(block)
	q.Stop()
	assert.Equal(t, uint64(2), q.Stats().Processed)
}

func TestFailuresAreCounted(t *testing.T) {
	q := New("failing", func(_ context.Context, n int) error {
		if n%2 == 0 {
			return errors.New("store offline")
		}
		return nil
	}, Config{})
	q.Start(context.Background())
	for n := 1; n <= 4; n++ {
		require.NoError(t, q.Enqueue(context.Background(), n))
	}
	q.Stop()

	stats := q.Stats()
	assert.Equal(t, uint64(2), stats.Processed)
	assert.Equal(t, uint64(2), stats.Failed)
}

func TestEnqueueOutsideRunningWindowFails(t *testing.T) {
	q := New("idle", func(context.Context, string) error { return nil }, Config{})
	assert.ErrorIs(t, q.Enqueue(context.Background(), "x"), ErrStopped)
	assert.ErrorIs(t, q.TryEnqueue("x"), ErrStopped)

	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	cancel()
	assert.ErrorIs(t, q.TryEnqueue("x"), ErrStopped)
	q.Stop()
	q.Stop()
}
