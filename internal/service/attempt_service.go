package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vssut/academia-backend/internal/model"
	"github.com/vssut/academia-backend/internal/repository"
)

// AttemptService is the attempt ledger state machine:
//
//	new --start--> in-progress --submit--> completed
//	                    |                      ^
//	                    +--lock--> locked -----+ (submit, unless LockBlocksSubmit)
//	completed/locked --reset--> new
//
// "new" is the absence of a record. Every transition is one atomic store write.
type AttemptService struct {
	attempts         AttemptStore
	exams            *ExamService
	events           AttemptEventPublisher
	lockBlocksSubmit bool
	log              zerolog.Logger
	now              func() time.Time
}

// AttemptServiceOption customizes an AttemptService.
type AttemptServiceOption func(*AttemptService)

// WithEvents publishes every transition to p.
func WithEvents(p AttemptEventPublisher) AttemptServiceOption {
	return func(s *AttemptService) { s.events = p }
}

// WithLockBlocksSubmit makes submit fail with ErrAttemptLocked on a locked attempt.
func WithLockBlocksSubmit(block bool) AttemptServiceOption {
	return func(s *AttemptService) { s.lockBlocksSubmit = block }
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(attempts AttemptStore, exams *ExamService, log zerolog.Logger, opts ...AttemptServiceOption) *AttemptService {
	s := &AttemptService{
		attempts: attempts,
		exams:    exams,
		log:      log.With().Str("component", "attempt_service").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the attempt's current status, StatusNew when there is no record.
func (s *AttemptService) Status(ctx context.Context, examID uuid.UUID, username string) (*model.AttemptStatusView, error) {
	a, err := s.attempts.Get(ctx, examID, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.AttemptStatusView{Status: model.StatusNew}, nil
		}
		return nil, internal("get attempt", err)
	}

	score := a.Score
	return &model.AttemptStatusView{Status: a.Status, Score: &score, Total: a.Total}, nil
}

// Start opens an attempt. A second start for the same key fails with
// ErrConflict and leaves the existing record untouched.
func (s *AttemptService) Start(ctx context.Context, examID uuid.UUID, username string) (*model.ExamAttempt, error) {
	if _, err := s.exams.Get(ctx, examID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	attempt := &model.ExamAttempt{
		ExamID:          examID,
		StudentUsername: username,
		Status:          model.StatusInProgress,
		Score:           0,
		StartedAt:       &now,
	}

	if err := s.attempts.InsertIfAbsent(ctx, attempt); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			s.log.Debug().Str("exam_id", examID.String()).Str("username", username).Msg("Start rejected, attempt exists")
			return nil, ErrConflict
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("exam %s: %w", examID, ErrNotFound)
		default:
			return nil, internal("insert attempt", err)
		}
	}

	s.log.Info().Str("exam_id", examID.String()).Str("username", username).Msg("Attempt started")
	s.publish(ctx, model.EventAttemptStarted, attempt)
	return attempt, nil
}

// Submit grades answers and writes a completed record. It is an upsert: it
// succeeds from any state, including a missing record or a completed one.
func (s *AttemptService) Submit(ctx context.Context, examID uuid.UUID, username string, answers []int) (*model.SubmitResult, error) {
	exam, err := s.exams.Get(ctx, examID)
	if err != nil {
		return nil, err
	}

	score, total := Score(exam, answers)
	now := s.now().UTC()
	attempt := &model.ExamAttempt{
		ExamID:          examID,
		StudentUsername: username,
		Status:          model.StatusCompleted,
		Score:           score,
		Total:           &total,
		SubmittedAt:     &now,
	}

	if err := s.attempts.UpsertCompleted(ctx, attempt, s.lockBlocksSubmit); err != nil {
		switch {
		case errors.Is(err, repository.ErrLocked):
			s.log.Info().Str("exam_id", examID.String()).Str("username", username).Msg("Submit rejected, attempt locked")
			return nil, ErrAttemptLocked
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("exam %s: %w", examID, ErrNotFound)
		default:
			return nil, internal("complete attempt", err)
		}
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Str("username", username).
		Int("score", score).
		Int("total", total).
		Msg("Attempt completed")
	s.publish(ctx, model.EventAttemptCompleted, attempt)
	return &model.SubmitResult{Score: score, Total: total}, nil
}

// Lock marks an existing attempt as locked, whatever its status. Without a
// record it does nothing. It reports whether a record was locked.
func (s *AttemptService) Lock(ctx context.Context, examID uuid.UUID, username string) (bool, error) {
	locked, err := s.attempts.MarkLocked(ctx, examID, username)
	if err != nil {
		return false, internal("lock attempt", err)
	}
	if !locked {
		s.log.Debug().Str("exam_id", examID.String()).Str("username", username).Msg("Lock ignored, no attempt")
		return false, nil
	}

	s.log.Warn().Str("exam_id", examID.String()).Str("username", username).Msg("Attempt locked")
	s.publish(ctx, model.EventAttemptLocked, &model.ExamAttempt{
		ExamID:          examID,
		StudentUsername: username,
		Status:          model.StatusLocked,
	})
	return true, nil
}

// Reset deletes the record so the student is back to StatusNew. Resetting a
// missing record is a no-op. It reports whether a record was removed.
func (s *AttemptService) Reset(ctx context.Context, examID uuid.UUID, username string) (bool, error) {
	removed, err := s.attempts.Delete(ctx, examID, username)
	if err != nil {
		return false, internal("reset attempt", err)
	}
	if removed {
		s.log.Info().Str("exam_id", examID.String()).Str("username", username).Msg("Attempt reset")
		s.publish(ctx, model.EventAttemptReset, &model.ExamAttempt{
			ExamID:          examID,
			StudentUsername: username,
			Status:          model.StatusNew,
		})
	}
	return removed, nil
}

// Results lists every ledger record for an exam.
func (s *AttemptService) Results(ctx context.Context, examID uuid.UUID) ([]model.ExamAttempt, error) {
	results, err := s.attempts.ListByExam(ctx, examID)
	if err != nil {
		return nil, internal("list attempts", err)
	}
	if results == nil {
		results = []model.ExamAttempt{}
	}
	return results, nil
}

func (s *AttemptService) publish(ctx context.Context, typ model.AttemptEventType, a *model.ExamAttempt) {
	if s.events == nil {
		return
	}

	ev := model.AttemptEvent{
		Type:     typ,
		ExamID:   a.ExamID,
		Username: a.StudentUsername,
		Status:   a.Status,
		Total:    a.Total,
		At:       s.now().UTC(),
	}
	if a.Status == model.StatusCompleted {
		score := a.Score
		ev.Score = &score
	}

	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("exam_id", a.ExamID.String()).Str("event", string(typ)).Msg("Attempt event publish failed")
	}
}
