package sqlitestore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/vssut/academia-backend/internal/model"
	"github.com/vssut/academia-backend/internal/repository"
)

// AttemptRepository is the SQLite attempt ledger.
type AttemptRepository struct {
	db *sql.DB
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(db *sql.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

const attemptColumns = `exam_id, student_username, status, score, total, started_at, submitted_at`

// InsertIfAbsent creates an in-progress attempt or returns repository.ErrDuplicate.
func (r *AttemptRepository) InsertIfAbsent(ctx context.Context, a *model.ExamAttempt) error {
	var startedAt sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO exam_attempts (exam_id, student_username, status, score, started_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (exam_id, student_username) DO NOTHING
		 RETURNING started_at`,
		a.ExamID.String(), a.StudentUsername, string(model.StatusInProgress), a.Score, toNano(a.StartedAt),
	).Scan(&startedAt)

	switch {
	case err == nil:
		a.StartedAt = fromNano(startedAt)
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return repository.ErrDuplicate
	case isForeignKeyViolation(err):
		return repository.ErrNotFound
	default:
		return err
	}
}

// Get retrieves the attempt for an exam-student pair.
func (r *AttemptRepository) Get(ctx context.Context, examID uuid.UUID, username string) (*model.ExamAttempt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts
		 WHERE exam_id = ? AND student_username = ?`, examID.String(), username)

	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return a, err
}

// UpsertCompleted writes a completed attempt in one statement.
func (r *AttemptRepository) UpsertCompleted(ctx context.Context, a *model.ExamAttempt, skipLocked bool) error {
	query := `INSERT INTO exam_attempts (exam_id, student_username, status, score, total, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (exam_id, student_username) DO UPDATE
		 SET status = excluded.status,
		     score = excluded.score,
		     total = excluded.total,
		     submitted_at = excluded.submitted_at`
	if skipLocked {
		query += `
		 WHERE exam_attempts.status <> 'locked'`
	}
	query += `
		 RETURNING started_at`

	var startedAt sql.NullInt64
	err := r.db.QueryRowContext(ctx, query,
		a.ExamID.String(), a.StudentUsername, string(model.StatusCompleted), a.Score, nullInt(a.Total), toNano(a.SubmittedAt),
	).Scan(&startedAt)

	switch {
	case err == nil:
		a.StartedAt = fromNano(startedAt)
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return repository.ErrLocked
	case isForeignKeyViolation(err):
		return repository.ErrNotFound
	default:
		return err
	}
}

// MarkLocked sets status=locked on an existing attempt.
func (r *AttemptRepository) MarkLocked(ctx context.Context, examID uuid.UUID, username string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE exam_attempts SET status = ?
		 WHERE exam_id = ? AND student_username = ?`,
		string(model.StatusLocked), examID.String(), username)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes the attempt for an exam-student pair.
func (r *AttemptRepository) Delete(ctx context.Context, examID uuid.UUID, username string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM exam_attempts WHERE exam_id = ? AND student_username = ?`,
		examID.String(), username)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListByExam retrieves every attempt for an exam.
func (r *AttemptRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamAttempt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts
		 WHERE exam_id = ?
		 ORDER BY student_username ASC`, examID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.ExamAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

func scanAttempt(row scanner) (*model.ExamAttempt, error) {
	var (
		a                      model.ExamAttempt
		examID, status         string
		total                  sql.NullInt64
		startedAt, submittedAt sql.NullInt64
	)
	if err := row.Scan(&examID, &a.StudentUsername, &status, &a.Score, &total, &startedAt, &submittedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(examID)
	if err != nil {
		return nil, err
	}
	a.ExamID = id
	a.Status = model.AttemptStatus(status)
	a.Total = fromNullInt(total)
	a.StartedAt = fromNano(startedAt)
	a.SubmittedAt = fromNano(submittedAt)
	return &a, nil
}
