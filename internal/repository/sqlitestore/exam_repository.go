package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vssut/academia-backend/internal/model"
	"github.com/vssut/academia-backend/internal/repository"
)

// ExamRepository stores exam definitions; questions live in a JSON column.
type ExamRepository struct {
	db *sql.DB
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(db *sql.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

const examColumns = `id, course_code, title, creator, questions_json, created_at`

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.ExamDefinition) error {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO exams (id, course_code, title, creator, questions_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.CourseCode, e.Title, e.Creator, string(questions), e.CreatedAt.UnixNano())
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamDefinition, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = ?`, id.String())

	e, err := scanExam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return e, err
}

// ListByCreator returns the exams authored by creator in insertion order.
func (r *ExamRepository) ListByCreator(ctx context.Context, creator string) ([]model.ExamDefinition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+examColumns+` FROM exams WHERE creator = ? ORDER BY rowid`, creator)
	if err != nil {
		return nil, err
	}
	return collectExams(rows)
}

// ListByCourses returns the exams whose course code is in courseCodes, in insertion order.
func (r *ExamRepository) ListByCourses(ctx context.Context, courseCodes []string) ([]model.ExamDefinition, error) {
	if len(courseCodes) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(courseCodes)), ",")
	args := make([]any, len(courseCodes))
	for i, c := range courseCodes {
		args[i] = c
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+examColumns+` FROM exams WHERE course_code IN (`+placeholders+`) ORDER BY rowid`, args...)
	if err != nil {
		return nil, err
	}
	return collectExams(rows)
}

// Delete removes an exam and, through the foreign key, its attempts.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM exams WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExam(row scanner) (*model.ExamDefinition, error) {
	var (
		e         model.ExamDefinition
		id        string
		questions string
		createdAt int64
	)
	if err := row.Scan(&id, &e.CourseCode, &e.Title, &e.Creator, &questions, &createdAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse exam id %q: %w", id, err)
	}
	e.ID = parsed
	e.CreatedAt = time.Unix(0, createdAt).UTC()

	if err := json.Unmarshal([]byte(questions), &e.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions of exam %s: %w", id, err)
	}
	return &e, nil
}

func collectExams(rows *sql.Rows) ([]model.ExamDefinition, error) {
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
