package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var processed atomic.Int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		processed.Add(1)
		return nil
	}, QueueConfig{Workers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "noop"}))
	}

	require.Eventually(t, func() bool {
		return processed.Load() == 5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{ID: "job-1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not started")
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts atomic.Int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 5, RetryDelay: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "flaky"}))

	require.Eventually(t, func() bool {
		return attempts.Load() == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQueueDropsJobAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		attempts.Add(1)
		return errors.New("permanent")
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "job-1", Type: "broken"}))

	// Initial attempt plus two retries, then the job is dropped.
	require.Eventually(t, func() bool {
		return attempts.Load() == 3
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(3), attempts.Load())
}
