package jobs

import (
	"context"
	"log"
	"time"
)

// JobProcessor is the unit of work a Worker drives on every tick.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker polls a JobProcessor at a fixed interval until stopped.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start runs the polling loop. One pass runs immediately so a freshly
// started server drains work queued while it was down; afterwards the
// loop fires on every tick. Blocks until the context is cancelled or
// Stop is called.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.doneChan)

	log.Printf("Job worker polling every %v", w.pollInterval)

	w.runOnce(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Job worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("Job worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	if err := w.processor.ProcessJobs(ctx); err != nil {
		log.Printf("Job worker pass failed: %v", err)
	}
}

// Stop signals the loop to exit and waits for the in-flight pass to
// finish.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
}
