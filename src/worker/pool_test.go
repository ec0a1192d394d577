package worker_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/worker"
)

type fakeRunner struct {
	mu      sync.Mutex
	started chan struct{}
	block   chan struct{}
	ran     int32
}

func (f *fakeRunner) Run(ctx context.Context, job *models.Job) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	atomic.AddInt32(&f.ran, 1)
}

func TestPool_RunsSubmittedJobs(t *testing.T) {
	runner := &fakeRunner{}
	pool := worker.New(2, runner, nil)
	pool.Start(context.Background())
	defer pool.Stop()

	assert.True(t, pool.Submit(&models.Job{ID: "a"}))
	assert.True(t, pool.Submit(&models.Job{ID: "b"}))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runner.ran) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestPool_RejectsWhenFull(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	pool := worker.New(1, runner, nil)
	pool.Start(context.Background())
	defer func() {
		close(runner.block)
		pool.Stop()
	}()

	require := assert.New(t)
	require.True(pool.Submit(&models.Job{ID: "first"}))

	// Give the single worker a moment to pick up the first job and
	// block on it before filling the channel buffer.
	time.Sleep(50 * time.Millisecond)
	require.True(pool.Submit(&models.Job{ID: "second"}))
	require.False(pool.Submit(&models.Job{ID: "third"}), "pool buffer is full, third submission must be rejected")
}

func TestPool_StopDrainsRunningWorkers(t *testing.T) {
	runner := &fakeRunner{}
	pool := worker.New(1, runner, nil)
	pool.Start(context.Background())

	pool.Submit(&models.Job{ID: "only"})
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runner.ran) == 1
	}, time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
