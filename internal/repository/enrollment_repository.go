package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnrollmentRepository reads course rosters owned by the course service.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// CourseCodesForRoll returns the courses a roll number is enrolled in.
func (r *EnrollmentRepository) CourseCodesForRoll(ctx context.Context, rollNumber string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT course_code FROM course_students
		 WHERE roll_number = $1
		 ORDER BY course_code`, rollNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}
