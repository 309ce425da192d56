//go:build windows
// +build windows

package window

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"syscall"
	"unsafe"
)

var (
	user32                         = syscall.NewLazyDLL("user32.dll")
	kernel32                       = syscall.NewLazyDLL("kernel32.dll")
	procEnumWindows                = user32.NewProc("EnumWindows")
	procIsWindow                   = user32.NewProc("IsWindow")
	procIsWindowVisible            = user32.NewProc("IsWindowVisible")
	procIsIconic                   = user32.NewProc("IsIconic")
	procShowWindow                 = user32.NewProc("ShowWindow")
	procSetForegroundWindow        = user32.NewProc("SetForegroundWindow")
	procGetClientRect              = user32.NewProc("GetClientRect")
	procClientToScreen             = user32.NewProc("ClientToScreen")
	procGetWindowTextW             = user32.NewProc("GetWindowTextW")
	procGetWindowThreadProcessId   = user32.NewProc("GetWindowThreadProcessId")
	procOpenProcess                = kernel32.NewProc("OpenProcess")
	procCloseHandle                = kernel32.NewProc("CloseHandle")
	procQueryFullProcessImageNameW = kernel32.NewProc("QueryFullProcessImageNameW")
)

const (
	swRestore                      = 9
	processQueryLimitedInformation = 0x1000
)

// RECT structure for Windows API
type RECT struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// POINT structure for Windows API
type POINT struct {
	X int32
	Y int32
}

// Win32Manager talks to user32 directly
type Win32Manager struct{}

// NewManager returns the platform window manager
func NewManager() Manager {
	return &Win32Manager{}
}

func windowTitle(hwnd uintptr) string {
	buf := make([]uint16, 256)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return syscall.UTF16ToString(buf)
}

func processName(hwnd uintptr) string {
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return ""
	}

	handle, _, _ := procOpenProcess.Call(processQueryLimitedInformation, 0, uintptr(pid))
	if handle == 0 {
		return ""
	}
	defer procCloseHandle.Call(handle)

	buf := make([]uint16, 1024)
	size := uint32(len(buf))
	ret, _, _ := procQueryFullProcessImageNameW.Call(handle, 0, uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size)))
	if ret == 0 {
		return ""
	}
	return filepath.Base(syscall.UTF16ToString(buf[:size]))
}

// Find enumerates visible top-level windows and returns the first one
// matching q
func (m *Win32Manager) Find(q Query) (Target, error) {
	var found Target

	cb := syscall.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		if visible, _, _ := procIsWindowVisible.Call(hwnd); visible == 0 {
			return 1
		}
		title := windowTitle(hwnd)
		if title == "" {
			return 1
		}
		if q.Title != "" && title != q.Title {
			return 1
		}
		if q.Process != "" && !strings.EqualFold(processName(hwnd), q.Process) {
			return 1
		}
		found = Target{Handle: hwnd, Title: title}
		return 0 // stop enumeration
	})
	procEnumWindows.Call(cb, 0)

	if !found.Valid() {
		return Target{}, fmt.Errorf("%w: %s", ErrNotFound, q)
	}
	return found, nil
}

// Exists reports whether the handle still refers to a window
func (m *Win32Manager) Exists(t Target) bool {
	if !t.Valid() {
		return false
	}
	ret, _, _ := procIsWindow.Call(t.Handle)
	return ret != 0
}

// Focus restores a minimized window and brings it to the foreground
func (m *Win32Manager) Focus(t Target) error {
	if !m.Exists(t) {
		return fmt.Errorf("%w: %s", ErrNotFound, t.Title)
	}

	if iconic, _, _ := procIsIconic.Call(t.Handle); iconic != 0 {
		procShowWindow.Call(t.Handle, swRestore)
	}

	// SetForegroundWindow can be refused by the OS; the click still lands.
	procSetForegroundWindow.Call(t.Handle)
	return nil
}

// ClientBounds returns the client rectangle translated to screen coordinates
func (m *Win32Manager) ClientBounds(t Target) (image.Rectangle, error) {
	var rect RECT
	ret, _, err := procGetClientRect.Call(t.Handle, uintptr(unsafe.Pointer(&rect)))
	if ret == 0 {
		return image.Rectangle{}, fmt.Errorf("failed to get client rect: %v", err)
	}

	origin := POINT{X: rect.Left, Y: rect.Top}
	ret, _, err = procClientToScreen.Call(t.Handle, uintptr(unsafe.Pointer(&origin)))
	if ret == 0 {
		return image.Rectangle{}, fmt.Errorf("failed to map client origin: %v", err)
	}

	width := int(rect.Right - rect.Left)
	height := int(rect.Bottom - rect.Top)
	if width <= 0 || height <= 0 {
		return image.Rectangle{}, fmt.Errorf("invalid window dimensions: %dx%d", width, height)
	}

	return image.Rect(int(origin.X), int(origin.Y), int(origin.X)+width, int(origin.Y)+height), nil
}
