package window

import (
	"errors"
	"fmt"
	"image"
)

// ErrNotFound is returned when no window matches the requested title
var ErrNotFound = errors.New("window not found")

// Target identifies the automated window. It is a plain value so it can be
// copied into the controller and the worker without sharing OS resources.
type Target struct {
	Handle uintptr
	Title  string
}

// Valid reports whether the target carries a handle
func (t Target) Valid() bool {
	return t.Handle != 0
}

func (t Target) String() string {
	return fmt.Sprintf("%q (0x%x)", t.Title, t.Handle)
}

// Query selects the window to automate. Process matches the executable
// name case-insensitively; Title, when set, must match exactly.
type Query struct {
	Process string `mapstructure:"process" yaml:"process"`
	Title   string `mapstructure:"title" yaml:"title"`
}

func (q Query) String() string {
	switch {
	case q.Process != "" && q.Title != "":
		return fmt.Sprintf("%s %q", q.Process, q.Title)
	case q.Process != "":
		return q.Process
	default:
		return fmt.Sprintf("%q", q.Title)
	}
}

// Manager resolves and manipulates the target window
type Manager interface {
	Find(q Query) (Target, error)
	Exists(t Target) bool
	Focus(t Target) error
	// ClientBounds returns the client area in screen coordinates
	ClientBounds(t Target) (image.Rectangle, error)
}

// ScreenPoint maps a normalized coordinate inside bounds to an absolute
// pixel position.
func ScreenPoint(bounds image.Rectangle, nx, ny float64) image.Point {
	return image.Point{
		X: bounds.Min.X + int(nx*float64(bounds.Dx())),
		Y: bounds.Min.Y + int(ny*float64(bounds.Dy())),
	}
}
