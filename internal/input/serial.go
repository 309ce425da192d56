package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"

	"jordanella.com/rehearsal-bot/internal/logging"
	"jordanella.com/rehearsal-bot/internal/window"
)

// ackToken is what the device prints after executing a command
const ackToken = "received"

// OpenSerialPort opens the HID bridge at 8N1. Reads time out after
// readTimeout so a silent device cannot block a click forever.
func OpenSerialPort(name string, baud int, readTimeout time.Duration) (*serial.Port, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: readTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	return port, nil
}

// SerialClicker forwards clicks to a microcontroller acting as a USB mouse.
// The device receives "click:X,Y\n" in desktop pixels and answers with a
// line containing "received".
type SerialClicker struct {
	mu         sync.Mutex
	port       io.ReadWriter
	reader     *bufio.Reader
	windows    window.Manager
	ackTimeout time.Duration
	logger     *logging.Logger
}

// NewSerialClicker wraps an open port
func NewSerialClicker(port io.ReadWriter, windows window.Manager, ackTimeout time.Duration) *SerialClicker {
	return &SerialClicker{
		port:       port,
		reader:     bufio.NewReader(port),
		windows:    windows,
		ackTimeout: ackTimeout,
		logger:     logging.NewLogger("SerialInput"),
	}
}

// Click sends the command and waits for the device acknowledgement
func (c *SerialClicker) Click(target window.Target, nx, ny float64) error {
	x, y, err := screenPoint(c.windows, target, nx, ny)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.port, "click:%d,%d\n", x, y); err != nil {
		return fmt.Errorf("failed to write to serial device: %w", err)
	}
	return c.waitAck()
}

func (c *SerialClicker) waitAck() error {
	deadline := time.Now().Add(c.ackTimeout)
	var seen strings.Builder

	for {
		line, err := c.reader.ReadString('\n')
		seen.WriteString(line)
		if strings.Contains(seen.String(), ackToken) {
			return nil
		}
		if err != nil && err != io.EOF {
			return fmt.Errorf("error reading from serial device: %w", err)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("serial device did not acknowledge within %s (got %q)", c.ackTimeout, strings.TrimSpace(seen.String()))
		}
		if err == io.EOF {
			// Port read timed out with nothing buffered
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// Close releases the port when it supports closing
func (c *SerialClicker) Close() error {
	if closer, ok := c.port.(io.Closer); ok {
		c.logger.Debug("Closing serial port")
		return closer.Close()
	}
	return nil
}
