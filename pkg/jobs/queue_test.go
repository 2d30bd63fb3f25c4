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

func TestQueueReportsSuccessAndExhaustedRetries(t *testing.T) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[string]error{}
		attempts int32
	)
	queue := NewQueue("test", func(_ context.Context, job Job) error {
		if job.ID == "bad" {
			atomic.AddInt32(&attempts, 1)
			return errors.New("boom")
		}
		return nil
	}, QueueConfig{
		Workers:    2,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnDone: func(job Job, err error) {
			mu.Lock()
			outcomes[job.ID] = err
			mu.Unlock()
			wg.Done()
		},
	})
	queue.Start(context.Background())
	defer queue.Stop()

	wg.Add(2)
	require.NoError(t, queue.Enqueue(Job{ID: "good"}))
	require.NoError(t, queue.Enqueue(Job{ID: "bad"}))
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.NoError(t, outcomes["good"])
	assert.EqualError(t, outcomes["bad"], "boom")
	assert.EqualValues(t, 3, atomic.LoadInt32(&attempts))
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	queue := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, queue.Enqueue(Job{ID: "x"}))
}
