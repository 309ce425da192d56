package cv

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/rehearsal-bot/internal/window"
)

// scriptedCapturer returns frames from a list, repeating the last one
type scriptedCapturer struct {
	mu     sync.Mutex
	frames []*image.RGBA
	calls  int
	err    error
}

func (c *scriptedCapturer) Capture(target window.Target) (*image.RGBA, error) {
	return c.CaptureRegion(target, Rect{})
}

func (c *scriptedCapturer) CaptureRegion(target window.Target, region Rect) (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	i := c.calls
	if i >= len(c.frames) {
		i = len(c.frames) - 1
	}
	c.calls++
	return c.frames[i], nil
}

type mapReferences map[string]Histogram

func (m mapReferences) Reference(name string) (Histogram, bool) {
	h, ok := m[name]
	return h, ok
}

func gray(v uint8) *image.RGBA {
	return solid(4, 4, color.RGBA{R: v, G: v, B: v, A: 255})
}

var target = window.Target{Handle: 1, Title: "test"}

func TestWaitForBrightnessSucceedsWhenRegionLightsUp(t *testing.T) {
	capturer := &scriptedCapturer{frames: []*image.RGBA{gray(40), gray(60), gray(120)}}
	svc := NewService(capturer, WithPollInterval(time.Millisecond))

	res, err := svc.WaitForBrightness(context.Background(), target, NewRect(0, 0, 1, 1), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Polls)
	assert.Equal(t, 120.0, res.Score)
}

func TestWaitForBrightnessThresholdIsExclusive(t *testing.T) {
	capturer := &scriptedCapturer{frames: []*image.RGBA{gray(95)}}
	svc := NewService(capturer, WithPollInterval(time.Millisecond))

	_, err := svc.WaitForBrightness(context.Background(), target, NewRect(0, 0, 1, 1), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestWaitForAppearanceSkipsWithoutReference(t *testing.T) {
	capturer := &scriptedCapturer{frames: []*image.RGBA{gray(0)}}
	svc := NewService(capturer, WithReferences(mapReferences{}))

	res, err := svc.WaitForAppearance(context.Background(), target, "start", NewRect(0, 0, 1, 1), time.Second)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 0, capturer.calls)
}

func TestWaitForAppearanceMatchesReference(t *testing.T) {
	refs := mapReferences{"end": NewHistogram(gray(200))}
	capturer := &scriptedCapturer{frames: []*image.RGBA{gray(10), gray(10), gray(200)}}
	svc := NewService(capturer, WithReferences(refs), WithPollInterval(time.Millisecond))

	res, err := svc.WaitForAppearance(context.Background(), target, "end", NewRect(0, 0, 1, 1), time.Second)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 3, res.Polls)
	assert.InDelta(t, 1.0, res.Score, 1e-9)
}

func TestWaitCancelledBeforeStart(t *testing.T) {
	capturer := &scriptedCapturer{frames: []*image.RGBA{gray(0)}}
	svc := NewService(capturer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.WaitForBrightness(ctx, target, NewRect(0, 0, 1, 1), time.Second)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 0, capturer.calls)
}

func TestWaitCancelledWhilePolling(t *testing.T) {
	capturer := &scriptedCapturer{frames: []*image.RGBA{gray(0)}}
	svc := NewService(capturer, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := svc.WaitForBrightness(ctx, target, NewRect(0, 0, 1, 1), 5*time.Second)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestWaitPropagatesCaptureError(t *testing.T) {
	capturer := &scriptedCapturer{err: errors.New("window gone")}
	svc := NewService(capturer)

	_, err := svc.WaitForBrightness(context.Background(), target, NewRect(0, 0, 1, 1), time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "window gone")
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), ErrCancelled)
}
