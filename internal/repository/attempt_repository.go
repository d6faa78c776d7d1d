package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vssut/academia-backend/internal/model"
)

// AttemptRepository is the Postgres attempt ledger.
// The (exam_id, student_username) primary key serializes concurrent starts.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// InsertIfAbsent creates an in-progress attempt, or returns ErrDuplicate if the
// key is taken. Check and insert are one statement.
func (r *AttemptRepository) InsertIfAbsent(ctx context.Context, a *model.ExamAttempt) error {
	var startedAt *time.Time
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exam_attempts (exam_id, student_username, status, score, started_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (exam_id, student_username) DO NOTHING
		 RETURNING started_at`,
		a.ExamID, a.StudentUsername, model.StatusInProgress, a.Score, a.StartedAt,
	).Scan(&startedAt)

	switch {
	case err == nil:
		a.StartedAt = startedAt
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrDuplicate
	case pgCode(err) == pgForeignKeyViolation:
		return ErrNotFound
	default:
		return err
	}
}

// Get retrieves the attempt for an exam-student pair.
func (r *AttemptRepository) Get(ctx context.Context, examID uuid.UUID, username string) (*model.ExamAttempt, error) {
	a := &model.ExamAttempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT exam_id, student_username, status, score, total, started_at, submitted_at
		 FROM exam_attempts
		 WHERE exam_id = $1 AND student_username = $2`, examID, username,
	).Scan(&a.ExamID, &a.StudentUsername, &a.Status, &a.Score, &a.Total, &a.StartedAt, &a.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpsertCompleted writes a completed attempt in one statement. With skipLocked
// the update is conditional and a locked row yields ErrLocked.
func (r *AttemptRepository) UpsertCompleted(ctx context.Context, a *model.ExamAttempt, skipLocked bool) error {
	query := `INSERT INTO exam_attempts (exam_id, student_username, status, score, total, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (exam_id, student_username) DO UPDATE
		 SET status = EXCLUDED.status,
		     score = EXCLUDED.score,
		     total = EXCLUDED.total,
		     submitted_at = EXCLUDED.submitted_at`
	if skipLocked {
		query += `
		 WHERE exam_attempts.status <> 'locked'`
	}
	query += `
		 RETURNING started_at`

	var startedAt *time.Time
	err := r.pool.QueryRow(ctx, query,
		a.ExamID, a.StudentUsername, model.StatusCompleted, a.Score, a.Total, a.SubmittedAt,
	).Scan(&startedAt)

	switch {
	case err == nil:
		a.StartedAt = startedAt
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrLocked
	case pgCode(err) == pgForeignKeyViolation:
		return ErrNotFound
	default:
		return err
	}
}

// MarkLocked sets status=locked on an existing attempt.
func (r *AttemptRepository) MarkLocked(ctx context.Context, examID uuid.UUID, username string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_attempts SET status = $1
		 WHERE exam_id = $2 AND student_username = $3`,
		model.StatusLocked, examID, username)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes the attempt for an exam-student pair.
func (r *AttemptRepository) Delete(ctx context.Context, examID uuid.UUID, username string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM exam_attempts WHERE exam_id = $1 AND student_username = $2`,
		examID, username)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListByExam retrieves every attempt for an exam.
func (r *AttemptRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT exam_id, student_username, status, score, total, started_at, submitted_at
		 FROM exam_attempts
		 WHERE exam_id = $1
		 ORDER BY student_username ASC`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.ExamAttempt
	for rows.Next() {
		var a model.ExamAttempt
		if err := rows.Scan(&a.ExamID, &a.StudentUsername, &a.Status, &a.Score, &a.Total, &a.StartedAt, &a.SubmittedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
