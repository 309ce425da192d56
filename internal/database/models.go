package database

import (
	"time"
)

// Session outcome values stored in sessions.outcome
const (
	OutcomeRunning   = "running"
	OutcomeCompleted = "completed"
	OutcomeAborted   = "aborted"
	OutcomeError     = "error"
)

// Session represents one automation run
type Session struct {
	ID                 string     `db:"id"`
	Directory          string     `db:"directory"`
	IterationsPlanned  int        `db:"iterations_planned"`
	IterationsDone     int        `db:"iterations_done"`
	ScreenshotsSaved   int        `db:"screenshots_saved"`
	RecordsWritten     int        `db:"records_written"`
	ExtractionFailures int        `db:"extraction_failures"`
	Outcome            string     `db:"outcome"`
	Reason             *string    `db:"reason"`
	StartedAt          time.Time  `db:"started_at"`
	FinishedAt         *time.Time `db:"finished_at"`
}

// ScoreRecord is one extracted 3x3 grid
type ScoreRecord struct {
	ID         int64     `db:"id"`
	SessionID  string    `db:"session_id"`
	Iteration  int       `db:"iteration"`
	CapturedAt time.Time `db:"captured_at"`
	Screenshot string    `db:"screenshot"`
	Scores     [9]int
}
