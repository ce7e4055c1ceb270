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

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	done := make(chan error, 1)

	q := NewQueue("mail", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return errors.New("smtp busy")
		}
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond, OnResult: func(job Job, err error) { done <- err }})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "registration.submitted"}))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish")
	}
	mu.Lock()
	assert.Equal(t, 3, calls)
	mu.Unlock()
}

func TestQueueGivesUp(t *testing.T) {
	done := make(chan error, 1)
	q := NewQueue("mail", func(ctx context.Context, job Job) error {
		return errors.New("rejected")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond, OnResult: func(job Job, err error) { done <- err }})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "2"}))
	select {
	case err := <-done:
		assert.EqualError(t, err, "rejected")
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish")
	}
}

func TestEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("mail", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "3"}))
}
