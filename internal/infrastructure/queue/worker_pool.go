package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler processes a single job.
type Handler func(ctx context.Context, job Job) error

// WorkerPool runs post-publish jobs on a fixed set of goroutines with a
// bounded channel, shut down via context cancellation.
type WorkerPool struct {
	jobs   chan Job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.SugaredLogger
}

func NewWorkerPool(workerCount int, handle Handler, log *zap.SugaredLogger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	pool := &WorkerPool{
		jobs:   make(chan Job, 100),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
	for i := 0; i < workerCount; i++ {
		pool.wg.Add(1)
		go pool.worker(i, handle)
	}
	return pool
}

func (p *WorkerPool) worker(id int, handle Handler) {
	defer p.wg.Done()
	for job := range p.jobs {
		if err := handle(p.ctx, job); err != nil {
			p.log.Warnw("job failed", "worker", id, "type", job.Type, "attachment", job.AttachmentID, "err", err)
		}
	}
}

// AddJob enqueues a job unless the pool is already shutting down. Blocks
// when the buffer is full, which backpressures the upload path.
func (p *WorkerPool) AddJob(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- job:
	}
}

func (p *WorkerPool) Shutdown() {
	p.cancel()
	close(p.jobs)
	p.wg.Wait()
}
