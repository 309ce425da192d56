//go:build windows

package hotkey

import (
	"context"

	"github.com/moutend/go-hook/pkg/keyboard"
	"github.com/moutend/go-hook/pkg/types"
)

func installKeyboardHook(ctx context.Context, key uint32, fire func()) error {
	events := make(chan types.KeyboardEvent, 100)
	if err := keyboard.Install(nil, events); err != nil {
		return err
	}

	go func() {
		defer keyboard.Uninstall()

		c := chord{key: key}
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				var down bool
				switch ev.Message {
				case types.WM_KEYDOWN, types.WM_SYSKEYDOWN:
					down = true
				case types.WM_KEYUP, types.WM_SYSKEYUP:
				default:
					continue
				}
				if c.observe(down, uint32(ev.VKCode)) {
					fire()
				}
			}
		}
	}()
	return nil
}
