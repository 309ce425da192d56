//go:build !windows
// +build !windows

package window

import (
	"errors"
	"image"
)

var errUnsupported = errors.New("window control is only supported on windows")

type unsupportedManager struct{}

// NewManager returns the platform window manager
func NewManager() Manager {
	return unsupportedManager{}
}

func (unsupportedManager) Find(q Query) (Target, error) {
	return Target{}, errUnsupported
}

func (unsupportedManager) Exists(t Target) bool {
	return false
}

func (unsupportedManager) Focus(t Target) error {
	return errUnsupported
}

func (unsupportedManager) ClientBounds(t Target) (image.Rectangle, error) {
	return image.Rectangle{}, errUnsupported
}
