package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsSubmittedTask(t *testing.T) {
	done := make(chan Task, 1)
	q := NewQueue("test", func(_ context.Context, task Task) error {
		done <- task
		return nil
	}, QueueConfig{})

	_, err := q.Submit("reconcile")
	require.Error(t, err, "submit before start")

	q.Start(context.Background())
	defer q.Stop()

	accepted, err := q.Submit("reconcile")
	require.NoError(t, err)
	assert.True(t, accepted)

	select {
	case task := <-done:
		assert.Equal(t, "reconcile", task.Name)
		assert.False(t, task.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
}

func TestQueueCoalescesPendingTasks(t *testing.T) {
	release := make(chan struct{})
	var runs int32
	q := NewQueue("test", func(_ context.Context, _ Task) error {
		atomic.AddInt32(&runs, 1)
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})
	q.Start(context.Background())

	// first task occupies the worker
	_, err := q.Submit("a")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, 2*time.Second, 5*time.Millisecond)

	accepted, err := q.Submit("a")
	require.NoError(t, err)
	assert.True(t, accepted)
	accepted, err = q.Submit("a")
	require.NoError(t, err)
	assert.False(t, accepted, "second copy coalesces with the waiting one")

	close(release)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 2 }, 2*time.Second, 5*time.Millisecond)
	q.Stop()
	assert.Equal(t, int32(2), atomic.LoadInt32(&runs))
}

func TestQueueRetriesFailures(t *testing.T) {
	var mu sync.Mutex
	attempts := []int{}
	q := NewQueue("test", func(_ context.Context, task Task) error {
		mu.Lock()
		attempts = append(attempts, task.Attempt)
		mu.Unlock()
		return errors.New("storage unavailable")
	}, QueueConfig{MaxRetries: 2, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Submit("reconcile")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(attempts) == 3
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2}, attempts)
}

func TestQueueEvery(t *testing.T) {
	var runs int32
	q := NewQueue("test", func(_ context.Context, _ Task) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}, QueueConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	q.Every(ctx, 10*time.Millisecond, "tick")

	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	q.Stop()
}
