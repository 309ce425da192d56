//go:build !windows

package hotkey

import (
	"context"
	"errors"
)

func installKeyboardHook(ctx context.Context, key uint32, fire func()) error {
	return errors.New("global keyboard hooks are only supported on Windows")
}
