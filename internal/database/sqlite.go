package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	_ "modernc.org/sqlite" // registers "sqlite"
)

// NewSQLiteDB opens the embedded store, pins the pool to a single connection
// (SQLite has one writer) and applies the schema.
func NewSQLiteDB(ctx context.Context, dsn string, log zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	log.Info().Str("dsn", dsn).Msg("SQLite store ready")
	return db, nil
}

// sqliteSchema mirrors migrations/000001_init.up.sql. Timestamps are unix nanoseconds.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS exams (
  id             TEXT PRIMARY KEY,
  course_code    TEXT NOT NULL,
  title          TEXT NOT NULL DEFAULT '',
  creator        TEXT NOT NULL,
  questions_json TEXT NOT NULL,
  created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exams_creator ON exams (creator);
CREATE INDEX IF NOT EXISTS idx_exams_course_code ON exams (course_code);

CREATE TABLE IF NOT EXISTS exam_attempts (
  exam_id          TEXT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  student_username TEXT NOT NULL,
  status           TEXT NOT NULL CHECK (status IN ('in-progress', 'completed', 'locked')),
  score            INTEGER NOT NULL DEFAULT 0,
  total            INTEGER,
  started_at       INTEGER,
  submitted_at     INTEGER,
  PRIMARY KEY (exam_id, student_username),
  CHECK (status <> 'completed' OR (total IS NOT NULL AND score BETWEEN 0 AND total))
);

CREATE TABLE IF NOT EXISTS profiles (
  username    TEXT PRIMARY KEY,
  roll_number TEXT
);

CREATE TABLE IF NOT EXISTS course_students (
  course_code TEXT NOT NULL,
  roll_number TEXT NOT NULL,
  PRIMARY KEY (course_code, roll_number)
);

CREATE TABLE IF NOT EXISTS exam_lock_events (
  id               INTEGER PRIMARY KEY AUTOINCREMENT,
  exam_id          TEXT NOT NULL,
  student_username TEXT NOT NULL,
  recorded_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exam_lock_events_exam ON exam_lock_events (exam_id);
`
