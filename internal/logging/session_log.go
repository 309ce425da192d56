package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// SessionLog tees all component loggers into a file for the lifetime of
// one automation session.
type SessionLog struct {
	file    *os.File
	path    string
	started time.Time
}

// AttachFile opens path for append and starts copying every log record into
// it. Only one session log is active at a time; attaching replaces the
// previous one.
func AttachFile(path string) (*SessionLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}

	sink.setFile(zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: "2006-01-02 15:04:05.000"})

	sl := &SessionLog{file: f, path: path, started: time.Now()}
	NewLogger("SessionLog").InfoWithContext("Session log attached", map[string]interface{}{
		"path": path,
	})
	return sl, nil
}

// Path returns the log file path
func (sl *SessionLog) Path() string {
	return sl.path
}

// Close detaches the file from the logging sink and closes it
func (sl *SessionLog) Close() error {
	NewLogger("SessionLog").InfoWithContext("Session log detached", map[string]interface{}{
		"elapsed": durationField(time.Since(sl.started)),
	})
	sink.setFile(nil)
	return sl.file.Close()
}

var _ io.Closer = (*SessionLog)(nil)
