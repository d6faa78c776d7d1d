package sqlitestore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vssut/academia-backend/internal/repository"
)

// ProfileRepository reads the profiles table.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// RollNumber returns the roll number for username ("" if the profile has none).
func (r *ProfileRepository) RollNumber(ctx context.Context, username string) (string, error) {
	var roll sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT roll_number FROM profiles WHERE username = ?`, username,
	).Scan(&roll)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	return roll.String, err
}

// EnrollmentRepository reads the course_students table.
type EnrollmentRepository struct {
	db *sql.DB
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(db *sql.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CourseCodesForRoll returns the courses a roll number is enrolled in.
func (r *EnrollmentRepository) CourseCodesForRoll(ctx context.Context, rollNumber string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT course_code FROM course_students
		 WHERE roll_number = ?
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
