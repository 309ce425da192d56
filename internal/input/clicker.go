package input

import (
	"fmt"
	"strings"

	"jordanella.com/rehearsal-bot/internal/config"
	"jordanella.com/rehearsal-bot/internal/window"
)

// Clicker presses the left mouse button at a normalized position of the
// target window's client area
type Clicker interface {
	Click(target window.Target, nx, ny float64) error
}

// New builds the clicker selected by cfg.Input.Method
func New(cfg config.InputConfig, windows window.Manager) (Clicker, error) {
	switch strings.ToLower(cfg.Method) {
	case config.InputSendInput, "":
		return NewSendInputClicker(windows), nil
	case config.InputSerial:
		port, err := OpenSerialPort(cfg.SerialPort, cfg.BaudRate, cfg.AckTimeout)
		if err != nil {
			return nil, err
		}
		return NewSerialClicker(port, windows, cfg.AckTimeout), nil
	default:
		return nil, fmt.Errorf("unknown input method %q", cfg.Method)
	}
}

// screenPoint resolves a normalized position to desktop pixels
func screenPoint(windows window.Manager, target window.Target, nx, ny float64) (int, int, error) {
	bounds, err := windows.ClientBounds(target)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to resolve window bounds: %w", err)
	}
	p := window.ScreenPoint(bounds, nx, ny)
	return p.X, p.Y, nil
}
