package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPipelineWorkerProcessesJobs(t *testing.T) {
	var (
		mu        sync.Mutex
		processed []int64
	)
	done := make(chan struct{}, 3)
	w := NewPipelineWorker(2, 8, func(ctx context.Context, ticketID int64, subject, body string) error {
		mu.Lock()
		processed = append(processed, ticketID)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, zap.NewNop())

	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, w.Enqueue(1, "a", "b"))
	require.NoError(t, w.Enqueue(2, "c", "d"))
	require.NoError(t, w.Enqueue(3, "e", "f"))

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []int64{1, 2, 3}, processed)
}

func TestEnqueueNeverBlocksOnFullQueue(t *testing.T) {
	block := make(chan struct{})
	w := NewPipelineWorker(1, 1, func(ctx context.Context, ticketID int64, subject, body string) error {
		<-block
		return nil
	}, zap.NewNop())
	w.Start(context.Background())
	defer func() {
		close(block)
		w.Stop()
	}()

	// Give the single worker time to pull the first job so the queue slot frees.
	require.NoError(t, w.Enqueue(1, "a", "b"))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, w.Enqueue(2, "a", "b"))

	start := time.Now()
	err := w.Enqueue(3, "a", "b")
	assert.Error(t, err, "full queue must reject, not block")
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestProcessorErrorDoesNotStopWorker(t *testing.T) {
	done := make(chan int64, 2)
	w := NewPipelineWorker(1, 4, func(ctx context.Context, ticketID int64, subject, body string) error {
		done <- ticketID
		if ticketID == 1 {
			return errors.New("boom")
		}
		return nil
	}, zap.NewNop())
	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, w.Enqueue(1, "a", "b"))
	require.NoError(t, w.Enqueue(2, "a", "b"))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker stopped after error")
		}
	}
}

func TestProcessorPanicIsRecovered(t *testing.T) {
	done := make(chan int64, 2)
	w := NewPipelineWorker(1, 4, func(ctx context.Context, ticketID int64, subject, body string) error {
		done <- ticketID
		if ticketID == 1 {
			panic("boom")
		}
		return nil
	}, zap.NewNop())
	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, w.Enqueue(1, "a", "b"))
	require.NoError(t, w.Enqueue(2, "a", "b"))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not survive panic")
		}
	}
}

func TestStopWaitsForWorkers(t *testing.T) {
	started := make(chan struct{})
	w := NewPipelineWorker(1, 4, func(ctx context.Context, ticketID int64, subject, body string) error {
		close(started)
		time.Sleep(50 * time.Millisecond)
		return nil
	}, zap.NewNop())
	w.Start(context.Background())

	require.NoError(t, w.Enqueue(1, "a", "b"))
	<-started
	w.Stop() // must not panic or race; waits for the in-flight run
}

func TestDefaultsApplied(t *testing.T) {
	w := NewPipelineWorker(0, 0, func(ctx context.Context, ticketID int64, subject, body string) error {
		return nil
	}, zap.NewNop())
	assert.Equal(t, 1, w.workers)
	assert.Equal(t, 16, cap(w.jobs))
}
