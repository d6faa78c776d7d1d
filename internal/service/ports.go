package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/vssut/academia-backend/internal/model"
)

// ExamStore persists exam definitions. GetByID returns repository.ErrNotFound
// when the exam does not exist.
type ExamStore interface {
	Create(ctx context.Context, exam *model.ExamDefinition) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamDefinition, error)
	ListByCreator(ctx context.Context, creator string) ([]model.ExamDefinition, error)
	ListByCourses(ctx context.Context, courseCodes []string) ([]model.ExamDefinition, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AttemptStore is the attempt ledger. Every method is a single atomic write or read.
type AttemptStore interface {
	// InsertIfAbsent creates an in-progress record. It returns
	// repository.ErrDuplicate when a record for the key already exists.
	InsertIfAbsent(ctx context.Context, attempt *model.ExamAttempt) error
	Get(ctx context.Context, examID uuid.UUID, username string) (*model.ExamAttempt, error)
	// UpsertCompleted writes a completed record whatever the current state.
	// With skipLocked set, a locked record is left untouched and
	// repository.ErrLocked is returned.
	UpsertCompleted(ctx context.Context, attempt *model.ExamAttempt, skipLocked bool) error
	// MarkLocked sets status=locked on an existing record. It reports whether
	// a record was updated.
	MarkLocked(ctx context.Context, examID uuid.UUID, username string) (bool, error)
	// Delete removes the record. It reports whether a record was removed.
	Delete(ctx context.Context, examID uuid.UUID, username string) (bool, error)
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.ExamAttempt, error)
}

// ProfileLookup resolves a username to its roll number. It returns
// repository.ErrNotFound when there is no profile; an empty roll number means
// the profile exists but has none.
type ProfileLookup interface {
	RollNumber(ctx context.Context, username string) (string, error)
}

// EnrollmentLookup resolves the course codes a roll number is enrolled in.
type EnrollmentLookup interface {
	CourseCodesForRoll(ctx context.Context, rollNumber string) ([]string, error)
}

// ExamCache is an optional read-through cache for exam definitions.
type ExamCache interface {
	Get(ctx context.Context, id uuid.UUID) (*model.ExamDefinition, bool, error)
	Set(ctx context.Context, exam *model.ExamDefinition) error
	Evict(ctx context.Context, id uuid.UUID) error
}

// AttemptEventPublisher receives ledger transitions. Publishing is best-effort.
type AttemptEventPublisher interface {
	Publish(ctx context.Context, event model.AttemptEvent) error
}
