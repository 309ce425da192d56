package bot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/ini.v1"

	"jordanella.com/rehearsal-bot/internal/database"
)

// Files and directories inside a session directory
const (
	SummaryFile    = "session.ini"
	LogFile        = "session.log"
	ScreenshotsDir = "screenshots"

	sessionDirLayout = "20060102_150405"
	summaryTimeFmt   = time.RFC3339
)

// Session is one run of N iterations and everything it produced
type Session struct {
	ID         string
	Dir        string
	Iterations int
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string
	Reason     string
	Final      Status
}

// NewSession creates output/<timestamp>/screenshots. A suffix is added when
// two runs start within the same second.
func NewSession(outputDir string, iterations int, startedAt time.Time) (*Session, error) {
	base := filepath.Join(outputDir, startedAt.Format(sessionDirLayout))
	dir := base
	for i := 2; ; i++ {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			break
		}
		dir = fmt.Sprintf("%s_%d", base, i)
	}

	if err := os.MkdirAll(filepath.Join(dir, ScreenshotsDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	return &Session{
		ID:         uuid.NewString(),
		Dir:        dir,
		Iterations: iterations,
		StartedAt:  startedAt,
		Outcome:    database.OutcomeRunning,
	}, nil
}

// ScreenshotsDir returns where result screenshots are written
func (s *Session) ScreenshotsDir() string {
	return filepath.Join(s.Dir, ScreenshotsDir)
}

// LogPath returns the session log file path
func (s *Session) LogPath() string {
	return filepath.Join(s.Dir, LogFile)
}

// OutcomeOf maps a terminal state to the stored outcome
func OutcomeOf(s State) string {
	switch s.Kind {
	case StateComplete:
		return database.OutcomeCompleted
	case StateAborted:
		return database.OutcomeAborted
	case StateError:
		return database.OutcomeError
	}
	return database.OutcomeRunning
}

// Finish freezes the session with its terminal state and final counters
func (s *Session) Finish(final State, status Status, at time.Time) {
	s.Outcome = OutcomeOf(final)
	s.Reason = final.Reason
	s.Final = status
	s.FinishedAt = at
}

// IterationsDone counts fully completed iterations
func (s *Session) IterationsDone() int {
	if s.Outcome == database.OutcomeCompleted {
		return s.Iterations
	}
	if s.Final.Iteration > 0 {
		return s.Final.Iteration - 1
	}
	return 0
}

// Result converts the session into a history database update
func (s *Session) Result() database.SessionResult {
	return database.SessionResult{
		Outcome:            s.Outcome,
		Reason:             s.Reason,
		IterationsDone:     s.IterationsDone(),
		ScreenshotsSaved:   s.Final.Screenshots,
		RecordsWritten:     s.Final.Written,
		ExtractionFailures: s.Final.Failed,
		FinishedAt:         s.FinishedAt,
	}
}

// WriteSummary writes session.ini next to the results
func (s *Session) WriteSummary() error {
	cfg := ini.Empty()

	sec := cfg.Section("Session")
	sec.Key("id").SetValue(s.ID)
	sec.Key("started_at").SetValue(s.StartedAt.Format(summaryTimeFmt))
	if !s.FinishedAt.IsZero() {
		sec.Key("finished_at").SetValue(s.FinishedAt.Format(summaryTimeFmt))
	}
	sec.Key("outcome").SetValue(s.Outcome)
	if s.Reason != "" {
		sec.Key("reason").SetValue(s.Reason)
	}

	counts := cfg.Section("Counts")
	counts.Key("iterations_planned").SetValue(fmt.Sprint(s.Iterations))
	counts.Key("iterations_done").SetValue(fmt.Sprint(s.IterationsDone()))
	counts.Key("screenshots").SetValue(fmt.Sprint(s.Final.Screenshots))
	counts.Key("records").SetValue(fmt.Sprint(s.Final.Written))
	counts.Key("failures").SetValue(fmt.Sprint(s.Final.Failed))

	return cfg.SaveTo(filepath.Join(s.Dir, SummaryFile))
}

// ReadSummary loads session.ini from a session directory
func ReadSummary(dir string) (*Session, error) {
	cfg, err := ini.Load(filepath.Join(dir, SummaryFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read session summary: %w", err)
	}

	sec := cfg.Section("Session")
	counts := cfg.Section("Counts")

	s := &Session{
		ID:         sec.Key("id").String(),
		Dir:        dir,
		Outcome:    sec.Key("outcome").MustString(database.OutcomeRunning),
		Reason:     sec.Key("reason").String(),
		Iterations: counts.Key("iterations_planned").MustInt(0),
		Final: Status{
			Screenshots: counts.Key("screenshots").MustInt(0),
			Written:     counts.Key("records").MustInt(0),
			Failed:      counts.Key("failures").MustInt(0),
		},
	}
	s.Final.Iteration = counts.Key("iterations_done").MustInt(0) + 1

	if s.StartedAt, err = time.Parse(summaryTimeFmt, sec.Key("started_at").String()); err != nil {
		return nil, fmt.Errorf("invalid started_at in summary: %w", err)
	}
	if v := sec.Key("finished_at").String(); v != "" {
		if s.FinishedAt, err = time.Parse(summaryTimeFmt, v); err != nil {
			return nil, fmt.Errorf("invalid finished_at in summary: %w", err)
		}
	}
	return s, nil
}
