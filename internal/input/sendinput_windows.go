//go:build windows

package input

import (
	"fmt"
	"syscall"
	"time"
	"unsafe"

	"jordanella.com/rehearsal-bot/internal/window"
)

var (
	user32           = syscall.NewLazyDLL("user32.dll")
	procSetCursorPos = user32.NewProc("SetCursorPos")
	procSendInput    = user32.NewProc("SendInput")
)

const (
	mouseEventLeftDown  = 0x0002
	mouseEventLeftUp    = 0x0004
	clickHoldDuration   = 30 * time.Millisecond
	cursorSettleTimeout = 10 * time.Millisecond
)

// SendInputClicker moves the system cursor and synthesizes a left click
type SendInputClicker struct {
	windows window.Manager
}

// NewSendInputClicker creates a clicker that injects events through user32
func NewSendInputClicker(windows window.Manager) *SendInputClicker {
	return &SendInputClicker{windows: windows}
}

// Click moves the cursor to the position and presses the left button
func (c *SendInputClicker) Click(target window.Target, nx, ny float64) error {
	x, y, err := screenPoint(c.windows, target, nx, ny)
	if err != nil {
		return err
	}

	if ret, _, callErr := procSetCursorPos.Call(uintptr(x), uintptr(y)); ret == 0 {
		return fmt.Errorf("SetCursorPos(%d, %d) failed: %v", x, y, callErr)
	}
	time.Sleep(cursorSettleTimeout)

	if err := sendMouse(mouseEventLeftDown); err != nil {
		return err
	}
	time.Sleep(clickHoldDuration)
	return sendMouse(mouseEventLeftUp)
}

func sendMouse(flags uint32) error {
	in := mouseInput{Type: inputMouse, Mouse: mousePayload{Flags: flags}}
	ret, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if ret != 1 {
		return fmt.Errorf("SendInput failed: %v", err)
	}
	return nil
}
