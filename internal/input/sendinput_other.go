//go:build !windows

package input

import (
	"errors"

	"jordanella.com/rehearsal-bot/internal/window"
)

var errUnsupported = errors.New("synthetic mouse input is only supported on Windows")

// SendInputClicker is unavailable on this platform
type SendInputClicker struct {
	windows window.Manager
}

// NewSendInputClicker creates a clicker that always fails
func NewSendInputClicker(windows window.Manager) *SendInputClicker {
	return &SendInputClicker{windows: windows}
}

// Click always returns an error on this platform
func (c *SendInputClicker) Click(target window.Target, nx, ny float64) error {
	return errUnsupported
}
