package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vssut/academia-backend/internal/model"
)

// LockEventRepository appends to the exam_lock_events audit table.
type LockEventRepository struct {
	pool *pgxpool.Pool
}

// NewLockEventRepository creates a new LockEventRepository.
func NewLockEventRepository(pool *pgxpool.Pool) *LockEventRepository {
	return &LockEventRepository{pool: pool}
}

// CopyLockEvents bulk-loads a batch with COPY.
func (r *LockEventRepository) CopyLockEvents(ctx context.Context, events []model.LockEvent) error {
	rows := make([][]interface{}, 0, len(events))
	for _, e := range events {
		rows = append(rows, []interface{}{e.ExamID, e.StudentUsername, e.RecordedAt})
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"exam_lock_events"},
		[]string{"exam_id", "student_username", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// InsertLockEvent writes a single event.
func (r *LockEventRepository) InsertLockEvent(ctx context.Context, e model.LockEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_lock_events (exam_id, student_username, recorded_at)
		 VALUES ($1, $2, $3)`,
		e.ExamID, e.StudentUsername, e.RecordedAt)
	return err
}

// ListLockEvents returns the audited locks of an exam, oldest first.
func (r *LockEventRepository) ListLockEvents(ctx context.Context, examID uuid.UUID) ([]model.LockEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT exam_id, student_username, recorded_at
		 FROM exam_lock_events
		 WHERE exam_id = $1
		 ORDER BY recorded_at ASC, id ASC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.LockEvent
	for rows.Next() {
		var e model.LockEvent
		if err := rows.Scan(&e.ExamID, &e.StudentUsername, &e.RecordedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
