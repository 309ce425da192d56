// Package worker drains captured result screens, extracts their scores and
// persists them.
package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"jordanella.com/rehearsal-bot/internal/logging"
	"jordanella.com/rehearsal-bot/internal/queue"
	"jordanella.com/rehearsal-bot/internal/results"
)

// Progress receives per-item outcomes, typically the shared run status
type Progress interface {
	RecordWritten()
	ExtractionFailed()
}

// History stores records alongside the CSV files
type History interface {
	InsertScoreRecord(sessionID string, iteration int, capturedAt time.Time, screenshot string, cells []int) (int64, error)
}

// Stats is a snapshot of worker counters
type Stats struct {
	Processed int64
	Written   int64
	Failed    int64
}

// Worker is the single consumer of the capture queue
type Worker struct {
	queue     *queue.Queue
	processor *Processor
	store     *results.Store
	history   History
	sessionID string
	progress  Progress

	processed atomic.Int64
	written   atomic.Int64
	failed    atomic.Int64

	logger *logging.Logger
}

// Option configures optional collaborators
type Option func(*Worker)

// WithHistory also writes every record to the history database
func WithHistory(h History, sessionID string) Option {
	return func(w *Worker) {
		w.history = h
		w.sessionID = sessionID
	}
}

// WithProgress reports outcomes to p
func WithProgress(p Progress) Option {
	return func(w *Worker) {
		w.progress = p
	}
}

// New creates a worker reading from q
func New(q *queue.Queue, processor *Processor, store *results.Store, opts ...Option) *Worker {
	w := &Worker{
		queue:     q,
		processor: processor,
		store:     store,
		logger:    logging.NewLogger("Worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes events until the queue is closed and drained. Per-item
// failures are logged and never stop the loop. It returns ctx's error only
// if ctx ends while waiting for the next item.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Worker started")

	for {
		ev, err := w.queue.Receive(ctx)
		if errors.Is(err, queue.ErrClosed) {
			stats := w.Stats()
			w.logger.InfoWithContext("Queue closed, worker finished", map[string]interface{}{
				"processed": stats.Processed,
				"written":   stats.Written,
				"failed":    stats.Failed,
			})
			return nil
		}
		if err != nil {
			return err
		}

		w.handle(ctx, ev)
	}
}

func (w *Worker) handle(ctx context.Context, ev queue.CaptureEvent) {
	w.processed.Add(1)
	log := w.logger.WithContext(map[string]interface{}{
		"iteration":  ev.Sequence,
		"screenshot": ev.Path,
	})
	log.Debug("Processing capture")

	grid, err := w.processor.ProcessFile(ctx, ev.Path)
	if err != nil {
		w.fail()
		log.Error("Extraction failed, screenshot kept for reprocessing", err)
		return
	}

	rec := results.Record{
		Iteration:  ev.Sequence,
		CapturedAt: ev.CapturedAt,
		Screenshot: ev.Path,
		Scores:     grid,
	}
	if err := w.store.Append(rec); err != nil {
		w.fail()
		log.Error("Failed to append results", err)
		return
	}

	if w.history != nil {
		if _, err := w.history.InsertScoreRecord(w.sessionID, ev.Sequence, ev.CapturedAt, ev.Path, grid.Flatten()); err != nil {
			log.Error("Failed to write history record", err)
		}
	}

	w.written.Add(1)
	if w.progress != nil {
		w.progress.RecordWritten()
	}
	w.logger.InfoWithContext("Scores recorded", map[string]interface{}{
		"iteration": ev.Sequence,
		"stage1":    grid[0],
		"stage2":    grid[1],
		"stage3":    grid[2],
	})
}

func (w *Worker) fail() {
	w.failed.Add(1)
	if w.progress != nil {
		w.progress.ExtractionFailed()
	}
}

// Stats returns the current counters
func (w *Worker) Stats() Stats {
	return Stats{
		Processed: w.processed.Load(),
		Written:   w.written.Load(),
		Failed:    w.failed.Load(),
	}
}
