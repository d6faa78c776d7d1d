package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vssut/academia-backend/internal/model"
)

// ExamRepository handles exam definition data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `id, course_code, title, creator, questions, created_at`

// Create inserts a new exam. The caller assigns ID and CreatedAt.
func (r *ExamRepository) Create(ctx context.Context, e *model.ExamDefinition) error {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO exams (id, course_code, title, creator, questions, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.CourseCode, e.Title, e.Creator, questions, e.CreatedAt)
	if pgCode(err) == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamDefinition, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id)

	e, err := scanExam(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// ListByCreator returns the exams authored by creator in insertion order.
func (r *ExamRepository) ListByCreator(ctx context.Context, creator string) ([]model.ExamDefinition, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams WHERE creator = $1 ORDER BY seq`, creator)
	if err != nil {
		return nil, err
	}
	return collectExams(rows)
}

// ListByCourses returns the exams whose course code is in courseCodes, in insertion order.
func (r *ExamRepository) ListByCourses(ctx context.Context, courseCodes []string) ([]model.ExamDefinition, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams WHERE course_code = ANY($1) ORDER BY seq`, courseCodes)
	if err != nil {
		return nil, err
	}
	return collectExams(rows)
}

// Delete removes an exam; its attempts go with it (ON DELETE CASCADE).
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanExam(row pgx.Row) (*model.ExamDefinition, error) {
	var (
		e         model.ExamDefinition
		questions []byte
	)
	if err := row.Scan(&e.ID, &e.CourseCode, &e.Title, &e.Creator, &questions, &e.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &e.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions of exam %s: %w", e.ID, err)
	}
	return &e, nil
}

func collectExams(rows pgx.Rows) ([]model.ExamDefinition, error) {
	defer rows.Close()

	var exams []model.ExamDefinition
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}
