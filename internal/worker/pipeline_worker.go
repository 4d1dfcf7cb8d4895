package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// PipelineJob is one detached processing request.
type PipelineJob struct {
	TicketID int64
	Subject  string
	Body     string
}

// Processor runs the triage pipeline for one ticket.
type Processor func(ctx context.Context, ticketID int64, subject, body string) error

// PipelineWorker runs triage jobs on a fixed pool of goroutines, detached
// from the request/response cycle. Each run has its own error boundary:
// failures are logged and never crash the process, and the job context is the
// worker's background context, so an in-flight run outlives the HTTP request
// that triggered it.
//
// Concurrent jobs for the same ticket id are not serialized; both runs
// read-modify-write the record and the last completed update wins.
type PipelineWorker struct {
	jobs      chan PipelineJob
	processor Processor
	logger    *zap.Logger
	workers   int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPipelineWorker creates a worker pool with the given concurrency and
// queue depth.
func NewPipelineWorker(workers, queueSize int, processor Processor, logger *zap.Logger) *PipelineWorker {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	return &PipelineWorker{
		jobs:      make(chan PipelineJob, queueSize),
		processor: processor,
		logger:    logger,
		workers:   workers,
	}
}

// Start launches the worker goroutines. Must be called before Enqueue.
func (w *PipelineWorker) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
}

// Stop cancels pending work and waits for in-flight runs to finish.
func (w *PipelineWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// Enqueue submits a job without blocking. Returns an error when the queue is
// full; the ticket then stays New and reprocessing is the recovery path.
func (w *PipelineWorker) Enqueue(ticketID int64, subject, body string) error {
	select {
	case w.jobs <- PipelineJob{TicketID: ticketID, Subject: subject, Body: body}:
		return nil
	default:
		return errors.New("pipeline queue full")
	}
}

func (w *PipelineWorker) run() {
	defer w.wg.Done()
	for {
		select {
		case job := <-w.jobs:
			w.process(job)
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *PipelineWorker) process(job PipelineJob) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("pipeline run panicked",
				zap.Int64("ticket_id", job.TicketID), zap.Any("panic", r))
		}
	}()
	if err := w.processor(w.ctx, job.TicketID, job.Subject, job.Body); err != nil {
		w.logger.Error("pipeline run failed",
			zap.Int64("ticket_id", job.TicketID), zap.Error(err))
	}
}
