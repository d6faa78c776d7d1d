package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository reads student profiles owned by the profile service.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// RollNumber returns the roll number for username ("" if the profile has none).
func (r *ProfileRepository) RollNumber(ctx context.Context, username string) (string, error) {
	var roll string
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(roll_number, '') FROM profiles WHERE username = $1`, username,
	).Scan(&roll)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return roll, err
}
