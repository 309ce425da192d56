package database

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateSession records the start of a run
func (db *DB) CreateSession(id, directory string, iterations int, startedAt time.Time) error {
	_, err := db.conn.Exec(`
		INSERT INTO sessions (id, directory, iterations_planned, outcome, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, directory, iterations, OutcomeRunning, startedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// SessionResult carries the final counters of a run
type SessionResult struct {
	Outcome            string
	Reason             string
	IterationsDone     int
	ScreenshotsSaved   int
	RecordsWritten     int
	ExtractionFailures int
	FinishedAt         time.Time
}

// FinishSession stores the terminal outcome of a run
func (db *DB) FinishSession(id string, res SessionResult) error {
	var reason *string
	if res.Reason != "" {
		reason = &res.Reason
	}

	result, err := db.conn.Exec(`
		UPDATE sessions
		SET outcome = ?, reason = ?, iterations_done = ?, screenshots_saved = ?,
			records_written = ?, extraction_failures = ?, finished_at = ?
		WHERE id = ?
	`, res.Outcome, reason, res.IterationsDone, res.ScreenshotsSaved,
		res.RecordsWritten, res.ExtractionFailures, res.FinishedAt, id)
	if err != nil {
		return fmt.Errorf("failed to finish session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("session not found: %s", id)
	}
	return nil
}

const sessionColumns = `
	id, directory, iterations_planned, iterations_done, screenshots_saved,
	records_written, extraction_failures, outcome, reason, started_at, finished_at
`

func scanSession(row interface{ Scan(...interface{}) error }) (*Session, error) {
	var s Session
	var reason sql.NullString
	var finished sql.NullTime

	err := row.Scan(&s.ID, &s.Directory, &s.IterationsPlanned, &s.IterationsDone,
		&s.ScreenshotsSaved, &s.RecordsWritten, &s.ExtractionFailures,
		&s.Outcome, &reason, &s.StartedAt, &finished)
	if err != nil {
		return nil, err
	}

	if reason.Valid {
		s.Reason = &reason.String
	}
	if finished.Valid {
		s.FinishedAt = &finished.Time
	}
	return &s, nil
}

// GetSession retrieves one session by ID
func (db *DB) GetSession(id string) (*Session, error) {
	row := db.conn.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// ListSessions returns the most recent sessions first
func (db *DB) ListSessions(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.Query(`
		SELECT `+sessionColumns+`
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
