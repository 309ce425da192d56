package database

import (
	"database/sql"
	"fmt"
	"time"

	"jordanella.com/rehearsal-bot/internal/logging"
)

// Migration represents a database schema migration
type Migration struct {
	Version     int
	Description string
	Up          func(*sql.Tx, Dialect) error
	Down        func(*sql.Tx, Dialect) error
}

// migrations is the ordered list of all database migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Create schema_version table",
		Up:          migration001Up,
		Down:        migration001Down,
	},
	{
		Version:     2,
		Description: "Create sessions table",
		Up:          migration002Up,
		Down:        migration002Down,
	},
	{
		Version:     3,
		Description: "Create score_records table",
		Up:          migration003Up,
		Down:        migration003Down,
	},
}

// LatestVersion is the schema version after all migrations
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// RunMigrations runs all pending database migrations
func (db *DB) RunMigrations() error {
	logger := logging.NewLogger("Database")

	currentVersion, err := db.getCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		err := db.ExecTx(func(tx *sql.Tx) error {
			if err := migration.Up(tx, db.dialect); err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			_, err := tx.Exec(`
				INSERT INTO schema_version (version, description, applied_at)
				VALUES (?, ?, ?)
			`, migration.Version, migration.Description, time.Now())

			return err
		})

		if err != nil {
			return err
		}

		logger.InfoWithContext("Migration applied", map[string]interface{}{
			"version":     migration.Version,
			"description": migration.Description,
		})
	}

	return nil
}

// getCurrentVersion returns the current schema version
func (db *DB) getCurrentVersion() (int, error) {
	var query string
	switch db.dialect {
	case DialectMySQL:
		query = `
			SELECT COUNT(*) > 0
			FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_name = 'schema_version'
		`
	default:
		query = `
			SELECT COUNT(*) > 0
			FROM sqlite_master
			WHERE type='table' AND name='schema_version'
		`
	}

	var tableExists bool
	if err := db.conn.QueryRow(query).Scan(&tableExists); err != nil {
		return 0, err
	}
	if !tableExists {
		return 0, nil
	}

	var version int
	err := db.conn.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_version
	`).Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

func autoIncrementPK(d Dialect) string {
	if d == DialectMySQL {
		return "BIGINT PRIMARY KEY AUTO_INCREMENT"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// Migration 001: Schema version tracking table
func migration001Up(tx *sql.Tx, d Dialect) error {
	_, err := tx.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS schema_version (
			id %s,
			version INTEGER NOT NULL UNIQUE,
			description TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`, autoIncrementPK(d)))
	return err
}

func migration001Down(tx *sql.Tx, d Dialect) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS schema_version`)
	return err
}

// Migration 002: one row per automation run
func migration002Up(tx *sql.Tx, d Dialect) error {
	_, err := tx.Exec(`
		CREATE TABLE sessions (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			directory TEXT NOT NULL,
			iterations_planned INTEGER NOT NULL,
			iterations_done INTEGER NOT NULL DEFAULT 0,
			screenshots_saved INTEGER NOT NULL DEFAULT 0,
			records_written INTEGER NOT NULL DEFAULT 0,
			extraction_failures INTEGER NOT NULL DEFAULT 0,
			outcome VARCHAR(16) NOT NULL DEFAULT 'running',
			reason TEXT,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`CREATE INDEX idx_sessions_started ON sessions(started_at)`)
	return err
}

func migration002Down(tx *sql.Tx, d Dialect) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS sessions`)
	return err
}

// Migration 003: extracted score grids
func migration003Up(tx *sql.Tx, d Dialect) error {
	_, err := tx.Exec(fmt.Sprintf(`
		CREATE TABLE score_records (
			id %s,
			session_id VARCHAR(36) NOT NULL,
			iteration INTEGER NOT NULL,
			captured_at DATETIME NOT NULL,
			screenshot TEXT NOT NULL,
			s1c1 INTEGER NOT NULL, s1c2 INTEGER NOT NULL, s1c3 INTEGER NOT NULL,
			s2c1 INTEGER NOT NULL, s2c2 INTEGER NOT NULL, s2c3 INTEGER NOT NULL,
			s3c1 INTEGER NOT NULL, s3c2 INTEGER NOT NULL, s3c3 INTEGER NOT NULL,
			UNIQUE (session_id, iteration),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)
	`, autoIncrementPK(d)))
	return err
}

func migration003Down(tx *sql.Tx, d Dialect) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS score_records`)
	return err
}
