package database

import (
	"fmt"
	"time"
)

// InsertScoreRecord stores one grid. Cells are stage-major.
func (db *DB) InsertScoreRecord(sessionID string, iteration int, capturedAt time.Time, screenshot string, cells []int) (int64, error) {
	if len(cells) != 9 {
		return 0, fmt.Errorf("expected 9 score cells, got %d", len(cells))
	}

	args := []interface{}{sessionID, iteration, capturedAt, screenshot}
	for _, c := range cells {
		args = append(args, c)
	}

	result, err := db.conn.Exec(`
		INSERT INTO score_records (
			session_id, iteration, captured_at, screenshot,
			s1c1, s1c2, s1c3, s2c1, s2c2, s2c3, s3c1, s3c2, s3c3
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert score record: %w", err)
	}

	return result.LastInsertId()
}

// ListScoreRecords returns a session's grids in iteration order
func (db *DB) ListScoreRecords(sessionID string) ([]ScoreRecord, error) {
	rows, err := db.conn.Query(`
		SELECT id, session_id, iteration, captured_at, screenshot,
			s1c1, s1c2, s1c3, s2c1, s2c2, s2c3, s3c1, s3c2, s3c3
		FROM score_records
		WHERE session_id = ?
		ORDER BY iteration
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list score records: %w", err)
	}
	defer rows.Close()

	var records []ScoreRecord
	for rows.Next() {
		var r ScoreRecord
		dest := []interface{}{&r.ID, &r.SessionID, &r.Iteration, &r.CapturedAt, &r.Screenshot}
		for i := range r.Scores {
			dest = append(dest, &r.Scores[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan score record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
