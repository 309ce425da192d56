package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// teeWriter renders every record to the console and, while a session is
// running, to the session log file.
type teeWriter struct {
	mu      sync.RWMutex
	console io.Writer
	file    io.Writer
}

func (w *teeWriter) Write(p []byte) (int, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	n, err := w.console.Write(p)
	if w.file != nil {
		w.file.Write(p)
	}
	return n, err
}

func (w *teeWriter) setFile(f io.Writer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.file = f
}

var (
	sink = &teeWriter{
		console: zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"},
	}
	root = zerolog.New(sink).With().Timestamp().Logger()
)

// Init sets the global minimum level. Unknown levels fall back to info.
func Init(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Logger provides structured logging for one component
type Logger struct {
	component string
	zl        zerolog.Logger
}

// NewLogger creates a new logger for a specific component
func NewLogger(component string) *Logger {
	return &Logger{
		component: component,
		zl:        root.With().Str("component", component).Logger(),
	}
}

// NewLoggerTo creates a component logger that writes JSON records to w only.
func NewLoggerTo(w io.Writer, component string) *Logger {
	return &Logger{
		component: component,
		zl:        zerolog.New(w).With().Timestamp().Str("component", component).Logger(),
	}
}

// Component returns the component name
func (l *Logger) Component() string {
	return l.component
}

func (l *Logger) log(level zerolog.Level, message string, err error, context map[string]interface{}) {
	e := l.zl.WithLevel(level)
	if err != nil {
		e = e.Err(err)
	}
	if len(context) > 0 {
		e = e.Fields(context)
	}
	e.Msg(message)
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	l.log(zerolog.DebugLevel, message, nil, nil)
}

// DebugWithContext logs a debug message with context
func (l *Logger) DebugWithContext(message string, context map[string]interface{}) {
	l.log(zerolog.DebugLevel, message, nil, context)
}

// Info logs an info message
func (l *Logger) Info(message string) {
	l.log(zerolog.InfoLevel, message, nil, nil)
}

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(message string, context map[string]interface{}) {
	l.log(zerolog.InfoLevel, message, nil, context)
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	l.log(zerolog.WarnLevel, message, nil, nil)
}

// WarnWithContext logs a warning message with context
func (l *Logger) WarnWithContext(message string, context map[string]interface{}) {
	l.log(zerolog.WarnLevel, message, nil, context)
}

// Error logs an error message
func (l *Logger) Error(message string, err error) {
	l.log(zerolog.ErrorLevel, message, err, nil)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(message string, err error, context map[string]interface{}) {
	l.log(zerolog.ErrorLevel, message, err, context)
}

// WithContext returns a logger that includes context on every record
func (l *Logger) WithContext(context map[string]interface{}) *ContextLogger {
	return &ContextLogger{
		logger:  l,
		context: context,
	}
}

// ContextLogger is a logger with pre-set context
type ContextLogger struct {
	logger  *Logger
	context map[string]interface{}
}

// Debug logs a debug message with pre-set context
func (cl *ContextLogger) Debug(message string) {
	cl.logger.log(zerolog.DebugLevel, message, nil, cl.context)
}

// Info logs an info message with pre-set context
func (cl *ContextLogger) Info(message string) {
	cl.logger.log(zerolog.InfoLevel, message, nil, cl.context)
}

// Warn logs a warning message with pre-set context
func (cl *ContextLogger) Warn(message string) {
	cl.logger.log(zerolog.WarnLevel, message, nil, cl.context)
}

// Error logs an error message with pre-set context
func (cl *ContextLogger) Error(message string, err error) {
	cl.logger.log(zerolog.ErrorLevel, message, err, cl.context)
}

// durationField is a helper for context maps
func durationField(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
