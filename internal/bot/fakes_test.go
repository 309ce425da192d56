package bot

import (
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"time"

	"jordanella.com/rehearsal-bot/internal/cv"
	"jordanella.com/rehearsal-bot/internal/events"
	"jordanella.com/rehearsal-bot/internal/ocr"
	"jordanella.com/rehearsal-bot/internal/queue"
	"jordanella.com/rehearsal-bot/internal/window"
)

type fakeWindows struct {
	mu       sync.Mutex
	gone     bool
	focusErr error
	focused  int
}

func (w *fakeWindows) Find(q window.Query) (window.Target, error) {
	if w.gone {
		return window.Target{}, window.ErrNotFound
	}
	return window.Target{Handle: 42, Title: "game"}, nil
}

func (w *fakeWindows) Exists(window.Target) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.gone
}

func (w *fakeWindows) Focus(window.Target) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focused++
	return w.focusErr
}

func (w *fakeWindows) ClientBounds(window.Target) (image.Rectangle, error) {
	return image.Rect(0, 0, 64, 48), nil
}

type waitCall struct {
	kind string // "appear" or "bright"
	name string
}

type fakeDetector struct {
	mu         sync.Mutex
	references map[string]bool
	errs       map[string]error // keyed by reference name, or "bright"
	calls      []waitCall
	onWait     func()
}

func (d *fakeDetector) HasReference(name string) bool {
	return d.references[name]
}

func (d *fakeDetector) record(kind, name string) error {
	d.mu.Lock()
	d.calls = append(d.calls, waitCall{kind: kind, name: name})
	onWait := d.onWait
	d.mu.Unlock()
	if onWait != nil {
		onWait()
	}
	key := name
	if kind == "bright" {
		key = "bright"
	}
	return d.errs[key]
}

func (d *fakeDetector) WaitForAppearance(ctx context.Context, target window.Target, name string, region cv.Rect, timeout time.Duration) (cv.WaitResult, error) {
	if ctx.Err() != nil {
		return cv.WaitResult{}, cv.ErrCancelled
	}
	if !d.references[name] {
		return cv.WaitResult{Skipped: true}, nil
	}
	return cv.WaitResult{Polls: 1}, d.record("appear", name)
}

func (d *fakeDetector) WaitForBrightness(ctx context.Context, target window.Target, region cv.Rect, timeout time.Duration) (cv.WaitResult, error) {
	if ctx.Err() != nil {
		return cv.WaitResult{}, cv.ErrCancelled
	}
	return cv.WaitResult{Polls: 1}, d.record("bright", "")
}

type fakeCapturer struct {
	err error
}

func (c *fakeCapturer) Capture(window.Target) (*image.RGBA, error) {
	if c.err != nil {
		return nil, c.err
	}
	return image.NewRGBA(image.Rect(0, 0, 64, 48)), nil
}

func (c *fakeCapturer) CaptureRegion(t window.Target, r cv.Rect) (*image.RGBA, error) {
	return c.Capture(t)
}

type click struct{ X, Y float64 }

type fakeClicker struct {
	mu     sync.Mutex
	clicks []click
	err    error
}

func (c *fakeClicker) Click(t window.Target, nx, ny float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.clicks = append(c.clicks, click{nx, ny})
	return nil
}

type fakeQueue struct {
	events []queue.CaptureEvent
	err    error
}

func (q *fakeQueue) Send(ev queue.CaptureEvent) error {
	if q.err != nil {
		return q.err
	}
	q.events = append(q.events, ev)
	return nil
}

type gridRecognizer struct{}

func (gridRecognizer) Recognize(ctx context.Context, img image.Image) ([]ocr.Line, error) {
	var lines []ocr.Line
	for _, text := range []string{"50339 50796 70859", "64997 168009 128450", "122130 105901 96776"} {
		var words []ocr.Word
		for _, f := range strings.Fields(text) {
			words = append(words, ocr.Word{Text: f, Confidence: 95})
		}
		lines = append(lines, ocr.NewLine(words))
	}
	return lines, nil
}

var errBoom = errors.New("boom")

// recordingPublisher captures events synchronously
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) ofType(t events.EventType) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
