package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"jordanella.com/rehearsal-bot/internal/config"
	"jordanella.com/rehearsal-bot/internal/cv"
	"jordanella.com/rehearsal-bot/internal/input"
	"jordanella.com/rehearsal-bot/internal/logging"
	"jordanella.com/rehearsal-bot/internal/queue"
	"jordanella.com/rehearsal-bot/internal/window"
	"jordanella.com/rehearsal-bot/pkg/templates"
)

// Detector is the subset of cv.Service the controller waits on
type Detector interface {
	HasReference(name string) bool
	WaitForAppearance(ctx context.Context, target window.Target, name string, region cv.Rect, timeout time.Duration) (cv.WaitResult, error)
	WaitForBrightness(ctx context.Context, target window.Target, region cv.Rect, timeout time.Duration) (cv.WaitResult, error)
}

// Enqueuer accepts capture events for extraction
type Enqueuer interface {
	Send(ev queue.CaptureEvent) error
}

// Dependencies are the collaborators the controller drives
type Dependencies struct {
	Windows  window.Manager
	Detector Detector
	Capturer cv.Capturer
	Clicker  input.Clicker
	Queue    Enqueuer
}

// Controller sequences the interaction cycle. It is stepped by its owner
// and never schedules itself.
type Controller struct {
	cfg            config.Config
	target         window.Target
	deps           Dependencies
	control        *Control
	screenshotsDir string
	state          State
	now            func() time.Time
	logger         *logging.Logger
}

// NewController creates a controller in Idle. cfg is copied.
func NewController(cfg config.Config, target window.Target, deps Dependencies, control *Control, screenshotsDir string) *Controller {
	return &Controller{
		cfg:            cfg,
		target:         target,
		deps:           deps,
		control:        control,
		screenshotsDir: screenshotsDir,
		state:          State{Kind: StateIdle},
		now:            time.Now,
		logger:         logging.NewLogger("Controller"),
	}
}

// State returns the current state
func (c *Controller) State() State {
	return c.state
}

// Run steps until a terminal state and returns it
func (c *Controller) Run() State {
	for c.Step() == StepContinue {
	}
	return c.state
}

// Step performs one transition. Cancellation is checked first, then the
// target window's existence, then the current state's own logic.
func (c *Controller) Step() StepResult {
	if c.state.IsTerminal() {
		return resultFor(c.state)
	}

	if c.control.IsCancelled() {
		return c.transition(State{Kind: StateAborted})
	}
	if !c.deps.Windows.Exists(c.target) {
		return c.transition(Failed("target window no longer exists"))
	}

	return c.transition(c.next())
}

func (c *Controller) transition(to State) StepResult {
	from := c.state
	c.state = to
	c.control.publish(to)

	fields := map[string]interface{}{
		"from":      from.String(),
		"to":        to.String(),
		"iteration": c.control.Iteration(),
	}
	switch to.Kind {
	case StateError:
		c.logger.ErrorWithContext("Automation stopped", errors.New(to.Reason), fields)
	case StateAborted, StateComplete:
		c.logger.InfoWithContext("Automation finished", fields)
	default:
		c.logger.DebugWithContext("State transition", fields)
	}
	return resultFor(to)
}

func (c *Controller) next() State {
	ctx := c.control.Context()
	regions := c.cfg.Regions
	det := c.cfg.Detection

	switch c.state.Kind {
	case StateIdle:
		c.control.SetIteration(1)
		c.logger.InfoWithContext("Automation started", map[string]interface{}{
			"iterations": c.control.Total(),
			"window":     c.target.String(),
		})
		return State{Kind: StateWaitingForStartPage}

	case StateWaitingForStartPage:
		_, err := c.deps.Detector.WaitForAppearance(ctx, c.target, templates.StartButton, regions.StartButton, det.StartPageTimeout)
		if err != nil {
			return waitFailed("start page wait", err)
		}
		return State{Kind: StateClickingStart}

	case StateClickingStart:
		return c.click("start", c.cfg.Buttons.Start, State{Kind: StateWaitingForLoading})

	case StateWaitingForLoading:
		if _, err := c.deps.Detector.WaitForAppearance(ctx, c.target, templates.SkipButton, regions.SkipButton, det.LoadingTimeout); err != nil {
			return waitFailed("loading wait", err)
		}
		if _, err := c.deps.Detector.WaitForBrightness(ctx, c.target, regions.SkipButton, det.LoadingTimeout); err != nil {
			return waitFailed("skip button wait", err)
		}
		return State{Kind: StateClickingSkip}

	case StateClickingSkip:
		return c.click("skip", c.cfg.Buttons.Skip, State{Kind: StateWaitingForResult})

	case StateWaitingForResult:
		if c.deps.Detector.HasReference(templates.EndButton) {
			if _, err := c.deps.Detector.WaitForAppearance(ctx, c.target, templates.EndButton, regions.EndButton, det.ResultTimeout); err != nil {
				return waitFailed("result wait", err)
			}
		} else if err := cv.Sleep(ctx, det.CaptureDelay); err != nil {
			return waitFailed("result wait", err)
		}
		return State{Kind: StateCapturing}

	case StateCapturing:
		return c.capture()

	case StateClickingEnd:
		next := c.click("end", c.cfg.Buttons.End, State{Kind: StateCheckingLoop})
		if next.Kind != StateCheckingLoop {
			return next
		}
		if err := cv.Sleep(ctx, det.EndClickDelay); err != nil {
			return waitFailed("end click delay", err)
		}
		return next

	case StateCheckingLoop:
		current := c.control.Iteration()
		if current >= c.control.Total() {
			return State{Kind: StateComplete}
		}
		c.control.SetIteration(current + 1)
		return State{Kind: StateWaitingForStartPage}
	}

	return Failed(fmt.Sprintf("unexpected state %s", c.state))
}

// waitFailed maps a wait error to Aborted on cancellation and Error otherwise
func waitFailed(phase string, err error) State {
	if errors.Is(err, cv.ErrCancelled) {
		return State{Kind: StateAborted}
	}
	return Failed(fmt.Sprintf("%s failed: %v", phase, err))
}

// click re-asserts focus, lets the window settle, then clicks
func (c *Controller) click(button string, at cv.Point, next State) State {
	if err := c.deps.Windows.Focus(c.target); err != nil {
		return Failed(fmt.Sprintf("failed to focus window before %s click: %v", button, err))
	}
	if err := cv.Sleep(c.control.Context(), c.cfg.Window.FocusDelay); err != nil {
		return waitFailed("focus delay", err)
	}
	if err := c.deps.Clicker.Click(c.target, at.X, at.Y); err != nil {
		return Failed(fmt.Sprintf("%s click failed: %v", button, err))
	}

	c.logger.DebugWithContext("Clicked", map[string]interface{}{
		"button": button,
		"x":      at.X,
		"y":      at.Y,
	})
	return next
}

// ScreenshotName is the file name for iteration n captured at t
func ScreenshotName(n int, t time.Time) string {
	return fmt.Sprintf("%03d_%s.png", n, t.Format("20060102_150405"))
}

// capture grabs the window, saves it and hands it to the worker. Failing to
// save or enqueue is logged and does not fail the iteration.
func (c *Controller) capture() State {
	img, err := c.deps.Capturer.Capture(c.target)
	if err != nil {
		return Failed(fmt.Sprintf("capture failed: %v", err))
	}

	iteration := c.control.Iteration()
	at := c.now()
	path := filepath.Join(c.screenshotsDir, ScreenshotName(iteration, at))

	log := c.logger.WithContext(map[string]interface{}{
		"iteration":  iteration,
		"screenshot": path,
	})

	if err := cv.SavePNG(img, path); err != nil {
		log.Error("Failed to save screenshot, skipping extraction for this iteration", err)
		return State{Kind: StateClickingEnd}
	}
	c.control.ScreenshotSaved()

	ev := queue.CaptureEvent{Sequence: iteration, Path: path, CapturedAt: at}
	if err := c.deps.Queue.Send(ev); err != nil {
		log.Error("Failed to enqueue screenshot", err)
	} else {
		log.Info("Screenshot queued")
	}
	return State{Kind: StateClickingEnd}
}
