// Package worker implements the bounded goroutine pool the HTTP layer
// enqueues jobs onto, grounded on §5's "parallel worker tasks on top
// of an async-I/O runtime": a buffered job channel, one goroutine per
// in-flight job, generalized from order_service/main.go's
// http.Server-with-graceful-shutdown pattern into "drain a worker
// pool" instead of "drain a listener".
package worker

import (
	"context"
	"sync"

	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/logging"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/models"
	"github.com/saewookkangboy/qoo10-ai-agent-sub000/src/orchestrator"
)

// Runner is the subset of Orchestrator a Pool depends on.
type Runner interface {
	Run(ctx context.Context, job *models.Job)
}

var _ Runner = (*orchestrator.Orchestrator)(nil)

// Pool is a fixed-size set of worker goroutines draining a buffered
// job channel. Submit never blocks past the channel's capacity; a
// full pool rejects new work instead of queuing unboundedly.
type Pool struct {
	jobs   chan *models.Job
	runner Runner
	log    *logging.Logger
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New builds a Pool with size worker goroutines and a job channel
// buffered to size. Start must be called to begin draining.
func New(size int, runner Runner, log *logging.Logger) *Pool {
	if size <= 0 {
		size = 4
	}
	return &Pool{
		jobs:   make(chan *models.Job, size),
		runner: runner,
		log:    log,
	}
}

// Start spawns the pool's worker goroutines, each running jobs until
// ctx is cancelled or Stop is called.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	size := cap(p.jobs)
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.drain(ctx)
	}
}

func (p *Pool) drain(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.runner.Run(ctx, job)
		}
	}
}

// Submit enqueues a job for execution. It returns false if the pool's
// buffer is full, signaling the caller to reject the request rather
// than block the HTTP goroutine indefinitely.
func (p *Pool) Submit(job *models.Job) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		if p.log != nil {
			p.log.WithJob(job.ID).Info("worker pool full, rejecting job")
		}
		return false
	}
}

// Stop cancels every in-flight worker's context and waits for them to
// return. Jobs still running when Stop is called are dropped per §5:
// "a process shutdown aborts all running jobs; unfinished jobs are
// dropped."
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}
