package bot

import (
	"context"
	"sync"
	"sync/atomic"

	"jordanella.com/rehearsal-bot/internal/events"
)

// Status is a read-only snapshot of run progress
type Status struct {
	Running     bool
	Cancelled   bool
	Iteration   int
	Total       int
	State       string
	Screenshots int
	Written     int
	Failed      int
}

// Control is the state shared between the controller, the extraction worker
// and observers. The cancel flag and counters are atomic; observers only
// read.
type Control struct {
	ctx    context.Context
	cancel context.CancelFunc

	cancelled   atomic.Bool
	running     atomic.Bool
	iteration   atomic.Int64
	total       atomic.Int64
	screenshots atomic.Int64
	written     atomic.Int64
	failed      atomic.Int64

	mu          sync.RWMutex
	description string
	events      events.Publisher
}

// ControlOption configures a Control
type ControlOption func(*Control)

// WithEvents publishes state changes and worker outcomes to p
func WithEvents(p events.Publisher) ControlOption {
	return func(c *Control) {
		c.events = p
	}
}

// NewControl creates the shared state for a run of total iterations
func NewControl(parent context.Context, total int, opts ...ControlOption) *Control {
	ctx, cancel := context.WithCancel(parent)
	c := &Control{ctx: ctx, cancel: cancel, description: "Idle"}
	c.total.Store(int64(total))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cancel requests cooperative cancellation. Safe to call from any goroutine
// and more than once.
func (c *Control) Cancel() {
	c.cancelled.Store(true)
	c.cancel()
}

// IsCancelled reports whether cancellation was requested here or on the
// parent context
func (c *Control) IsCancelled() bool {
	return c.cancelled.Load() || c.ctx.Err() != nil
}

// Context is cancelled together with the flag so blocking waits wake up
func (c *Control) Context() context.Context {
	return c.ctx
}

// SetRunning marks the run as started or finished
func (c *Control) SetRunning(running bool) {
	c.running.Store(running)
}

// Iteration returns the 1-based current iteration
func (c *Control) Iteration() int {
	return int(c.iteration.Load())
}

// SetIteration publishes the current iteration
func (c *Control) SetIteration(n int) {
	c.iteration.Store(int64(n))
}

// Total returns the iteration budget
func (c *Control) Total() int {
	return int(c.total.Load())
}

// ScreenshotSaved counts a persisted result screenshot
func (c *Control) ScreenshotSaved() {
	c.screenshots.Add(1)
}

// RecordWritten counts an extracted and stored record
func (c *Control) RecordWritten() {
	c.written.Add(1)
	c.emit(events.NewRecordWrittenEvent)
}

// ExtractionFailed counts an item the worker had to skip
func (c *Control) ExtractionFailed() {
	c.failed.Add(1)
	c.emit(events.NewExtractionFailedEvent)
}

// publish records the state description and announces the change
func (c *Control) publish(s State) {
	c.mu.Lock()
	c.description = s.Description()
	c.mu.Unlock()

	c.emit(events.NewStateChangedEvent)
}

func (c *Control) emit(build func(events.Progress) events.Event) {
	if c.events == nil {
		return
	}
	c.events.Publish(build(c.Snapshot().progress()))
}

// finished announces the end of a session
func (c *Control) finished(s *Session) {
	if c.events == nil {
		return
	}
	c.events.Publish(events.NewSessionFinishedEvent(s.ID, s.Outcome, s.Reason, s.Final.progress()))
}

// Snapshot returns the current status
func (c *Control) Snapshot() Status {
	c.mu.RLock()
	desc := c.description
	c.mu.RUnlock()

	return Status{
		Running:     c.running.Load(),
		Cancelled:   c.IsCancelled(),
		Iteration:   c.Iteration(),
		Total:       c.Total(),
		State:       desc,
		Screenshots: int(c.screenshots.Load()),
		Written:     int(c.written.Load()),
		Failed:      int(c.failed.Load()),
	}
}

func (s Status) progress() events.Progress {
	return events.Progress{
		Iteration:   s.Iteration,
		Total:       s.Total,
		State:       s.State,
		Screenshots: s.Screenshots,
		Written:     s.Written,
		Failed:      s.Failed,
	}
}
