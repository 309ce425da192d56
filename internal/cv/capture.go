package cv

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"jordanella.com/rehearsal-bot/internal/window"
)

// Capturer produces pixel buffers of the target window
type Capturer interface {
	// Capture grabs the whole client area
	Capture(target window.Target) (*image.RGBA, error)
	// CaptureRegion grabs a normalized sub-region of the client area
	CaptureRegion(target window.Target, region Rect) (*image.RGBA, error)
}

// ScreenCapturer copies the window's client rectangle from the desktop.
// The window must be visible and unobstructed.
type ScreenCapturer struct {
	windows window.Manager
}

// NewScreenCapturer creates a capturer that resolves bounds through windows
func NewScreenCapturer(windows window.Manager) *ScreenCapturer {
	return &ScreenCapturer{windows: windows}
}

// Capture captures the current client area as an image
func (c *ScreenCapturer) Capture(target window.Target) (*image.RGBA, error) {
	bounds, err := c.windows.ClientBounds(target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve window bounds: %w", err)
	}
	return capture(bounds)
}

// CaptureRegion captures only the pixels of region
func (c *ScreenCapturer) CaptureRegion(target window.Target, region Rect) (*image.RGBA, error) {
	bounds, err := c.windows.ClientBounds(target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve window bounds: %w", err)
	}
	return capture(region.Pixels(bounds))
}

func capture(rect image.Rectangle) (*image.RGBA, error) {
	if rect.Empty() {
		return nil, fmt.Errorf("capture rectangle %v is empty", rect)
	}
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("screen capture failed: %w", err)
	}
	return img, nil
}
