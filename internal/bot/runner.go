package bot

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"jordanella.com/rehearsal-bot/internal/config"
	"jordanella.com/rehearsal-bot/internal/cv"
	"jordanella.com/rehearsal-bot/internal/database"
	"jordanella.com/rehearsal-bot/internal/input"
	"jordanella.com/rehearsal-bot/internal/logging"
	"jordanella.com/rehearsal-bot/internal/ocr"
	"jordanella.com/rehearsal-bot/internal/queue"
	"jordanella.com/rehearsal-bot/internal/results"
	"jordanella.com/rehearsal-bot/internal/window"
	"jordanella.com/rehearsal-bot/internal/worker"
)

// RunnerDeps are the collaborators of a full run
type RunnerDeps struct {
	Windows    window.Manager
	Detector   Detector
	Capturer   cv.Capturer
	Clicker    input.Clicker
	Recognizer ocr.Recognizer
	History    *database.DB // optional
}

// Runner owns one session: it spawns the extraction worker, drives the
// controller to a terminal state and finishes the session only after the
// worker drained the queue.
type Runner struct {
	cfg     config.Config
	deps    RunnerDeps
	control *Control
	logger  *logging.Logger
}

// NewRunner creates a runner. cfg is copied.
func NewRunner(cfg config.Config, deps RunnerDeps, control *Control) *Runner {
	return &Runner{
		cfg:     cfg,
		deps:    deps,
		control: control,
		logger:  logging.NewLogger("Runner"),
	}
}

// Run executes the whole session. Errors are returned only for setup
// failures; how the automation itself ended is in the session's outcome.
func (r *Runner) Run(ctx context.Context) (*Session, error) {
	target, err := r.deps.Windows.Find(r.cfg.Window.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to find target window %s: %w", r.cfg.Window.Query, err)
	}

	session, err := NewSession(r.cfg.Output.Dir, r.cfg.Iterations, time.Now())
	if err != nil {
		return nil, err
	}

	sessionLog, err := logging.AttachFile(session.LogPath())
	if err != nil {
		return nil, err
	}
	defer sessionLog.Close()

	store, err := results.Open(session.Dir)
	if err != nil {
		return nil, err
	}

	history := r.deps.History
	if history != nil {
		if err := history.CreateSession(session.ID, session.Dir, session.Iterations, session.StartedAt); err != nil {
			r.logger.Error("Failed to record session in history, continuing without it", err)
			history = nil
		}
	}

	r.logger.InfoWithContext("Session started", map[string]interface{}{
		"session":    session.ID,
		"dir":        session.Dir,
		"iterations": session.Iterations,
		"window":     target.String(),
		"regions":    len(r.cfg.Regions.Scores),
	})

	q := queue.New()
	processor := worker.NewProcessor(r.deps.Recognizer, ocr.NewExtractor(r.cfg.OCR.Rules), worker.ProcessorConfig{
		Threshold: uint8(r.cfg.OCR.Threshold),
		Scale:     r.cfg.OCR.Scale,
		Regions:   r.cfg.Regions.Scores,
	})
	opts := []worker.Option{worker.WithProgress(r.control)}
	if history != nil {
		opts = append(opts, worker.WithHistory(history, session.ID))
	}
	w := worker.New(q, processor, store, opts...)

	controller := NewController(r.cfg, target, Dependencies{
		Windows:  r.deps.Windows,
		Detector: r.deps.Detector,
		Capturer: r.deps.Capturer,
		Clicker:  r.deps.Clicker,
		Queue:    q,
	}, r.control, session.ScreenshotsDir())

	r.control.SetRunning(true)

	// The worker drains everything already queued even after an abort
	workerCtx := context.WithoutCancel(ctx)

	var final State
	var g errgroup.Group
	g.Go(func() error {
		return w.Run(workerCtx)
	})
	g.Go(func() error {
		defer q.Close()
		final = controller.Run()
		return nil
	})
	if err := g.Wait(); err != nil {
		r.logger.Error("Worker stopped unexpectedly", err)
	}

	r.control.SetRunning(false)
	session.Finish(final, r.control.Snapshot(), time.Now())

	if history != nil {
		if err := history.FinishSession(session.ID, session.Result()); err != nil {
			r.logger.Error("Failed to update session history", err)
		}
	}
	if err := session.WriteSummary(); err != nil {
		r.logger.Error("Failed to write session summary", err)
	}

	r.control.finished(session)
	r.logger.InfoWithContext("Session finished", map[string]interface{}{
		"session":     session.ID,
		"outcome":     session.Outcome,
		"reason":      session.Reason,
		"screenshots": session.Final.Screenshots,
		"queued":      q.Sent(),
		"records":     store.Appended(),
		"failures":    session.Final.Failed,
	})
	return session, nil
}
