package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/mindfoldhq/mindfold/internal/service"
)

// ActionExecutor drains queued actions for all owners.
type ActionExecutor interface {
	ExecutePending(ctx context.Context, ownerID string, limit int) (*service.ExecutionReport, error)
}

// ActionWorker periodically executes pending actions across every
// owner. Execution stays caller-triggered by default; this worker is
// only wired in when a poll interval is configured.
type ActionWorker struct {
	executor  ActionExecutor
	batchSize int
}

// NewActionWorker creates a new ActionWorker instance
func NewActionWorker(executor ActionExecutor, batchSize int) *ActionWorker {
	return &ActionWorker{
		executor:  executor,
		batchSize: batchSize,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *ActionWorker) ProcessJobs(ctx context.Context) error {
	report, err := w.executor.ExecutePending(ctx, "", w.batchSize)
	if err != nil {
		return fmt.Errorf("failed to execute pending actions: %w", err)
	}

	if report.Executed > 0 {
		log.Printf("Executed %d pending actions (%d succeeded, %d failed)",
			report.Executed, report.Succeeded, report.Failed)
	}

	return nil
}
