package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vssut/academia-backend/internal/model"
)

// LockEventRepository appends to the exam_lock_events audit table.
type LockEventRepository struct {
	db *sql.DB
}

// NewLockEventRepository creates a new LockEventRepository.
func NewLockEventRepository(db *sql.DB) *LockEventRepository {
	return &LockEventRepository{db: db}
}

// CopyLockEvents inserts a batch in one transaction; SQLite has no COPY.
func (r *LockEventRepository) CopyLockEvents(ctx context.Context, events []model.LockEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO exam_lock_events (exam_id, student_username, recorded_at) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.ExamID.String(), e.StudentUsername, e.RecordedAt.UnixNano()); err != nil {
			return fmt.Errorf("insert lock event: %w", err)
		}
	}
	return tx.Commit()
}

// InsertLockEvent writes a single event.
func (r *LockEventRepository) InsertLockEvent(ctx context.Context, e model.LockEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exam_lock_events (exam_id, student_username, recorded_at) VALUES (?, ?, ?)`,
		e.ExamID.String(), e.StudentUsername, e.RecordedAt.UnixNano())
	return err
}

// ListLockEvents returns the audited locks of an exam, oldest first.
func (r *LockEventRepository) ListLockEvents(ctx context.Context, examID uuid.UUID) ([]model.LockEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT student_username, recorded_at FROM exam_lock_events
		 WHERE exam_id = ?
		 ORDER BY recorded_at ASC, id ASC`, examID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.LockEvent
	for rows.Next() {
		var (
			e  model.LockEvent
			at int64
		)
		if err := rows.Scan(&e.StudentUsername, &at); err != nil {
			return nil, err
		}
		e.ExamID = examID
		e.RecordedAt = time.Unix(0, at).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}
