// Package hotkey turns the abort chord and process signals into a single
// cancellation callback.
package hotkey

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"jordanella.com/rehearsal-bot/internal/logging"
)

// Virtual-key codes of the modifier keys
const (
	vkShift    = 0x10
	vkControl  = 0x11
	vkLShift   = 0xA0
	vkRShift   = 0xA1
	vkLControl = 0xA2
	vkRControl = 0xA3
)

// ParseKey converts a single letter or digit into its virtual-key code
func ParseKey(name string) (uint32, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if len(name) != 1 {
		return 0, fmt.Errorf("hotkey must be a single letter or digit, got %q", name)
	}
	c := name[0]
	if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
		return uint32(c), nil
	}
	return 0, fmt.Errorf("hotkey must be a single letter or digit, got %q", name)
}

// chord tracks modifier state and reports Ctrl+Shift+key presses
type chord struct {
	key   uint32
	ctrl  bool
	shift bool
}

// observe feeds one key transition and reports whether the chord fired
func (c *chord) observe(down bool, vk uint32) bool {
	switch vk {
	case vkControl, vkLControl, vkRControl:
		c.ctrl = down
	case vkShift, vkLShift, vkRShift:
		c.shift = down
	case c.key:
		return down && c.ctrl && c.shift
	}
	return false
}

// Listener invokes abort once, on the first of: the keyboard chord, SIGINT
// or SIGTERM.
type Listener struct {
	key    uint32
	abort  func()
	once   sync.Once
	stop   context.CancelFunc
	logger *logging.Logger
}

// Listen starts watching for the abort chord and termination signals. The
// returned listener stops watching on Stop or when ctx ends. A keyboard hook
// that cannot be installed is logged and signals keep working.
func Listen(ctx context.Context, keyName string, abort func()) (*Listener, error) {
	key, err := ParseKey(keyName)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	l := &Listener{
		key:    key,
		abort:  abort,
		stop:   cancel,
		logger: logging.NewLogger("Hotkey"),
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			l.logger.InfoWithContext("Signal received", map[string]interface{}{"signal": sig.String()})
			l.fire()
		case <-ctx.Done():
		}
	}()

	if err := installKeyboardHook(ctx, key, l.fire); err != nil {
		l.logger.WarnWithContext("Keyboard hook unavailable, use Ctrl+C to abort", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		l.logger.InfoWithContext("Abort hotkey armed", map[string]interface{}{
			"hotkey": "Ctrl+Shift+" + strings.ToUpper(keyName),
		})
	}

	return l, nil
}

func (l *Listener) fire() {
	l.once.Do(l.abort)
}

// Stop releases the hook and signal handler
func (l *Listener) Stop() {
	l.stop()
}
