package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vssut/academia-backend/internal/model"
	"github.com/vssut/academia-backend/internal/repository"
)

// ExamService owns exam definitions: creation, lookup and deletion.
// Definitions never change after creation, so cached copies never go stale.
type ExamService struct {
	exams ExamStore
	cache ExamCache
	log   zerolog.Logger
	now   func() time.Time
}

// NewExamService creates a new ExamService. cache may be nil.
func NewExamService(exams ExamStore, cache ExamCache, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams: exams,
		cache: cache,
		log:   log.With().Str("component", "exam_service").Logger(),
		now:   time.Now,
	}
}

// Create validates and stores a new exam definition.
func (s *ExamService) Create(ctx context.Context, courseCode, title, creator string, questions []model.Question) (*model.ExamDefinition, error) {
	if verr := validateExam(courseCode, questions); verr != nil {
		return nil, verr
	}

	exam := &model.ExamDefinition{
		ID:         uuid.New(),
		CourseCode: strings.TrimSpace(courseCode),
		Title:      title,
		Creator:    creator,
		Questions:  questions,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, internal("create exam", err)
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Str("course_code", exam.CourseCode).
		Str("creator", exam.Creator).
		Int("questions", len(exam.Questions)).
		Msg("Exam created")
	return exam, nil
}

// validateExam returns nil or a *ValidationError.
func validateExam(courseCode string, questions []model.Question) *ValidationError {
	fields := make(map[string]string)
	if strings.TrimSpace(courseCode) == "" {
		fields["courseCode"] = "courseCode is a required field"
	}
	if len(questions) == 0 {
		fields["questions"] = "questions must contain at least 1 item"
	}
	for i, q := range questions {
		key := fmt.Sprintf("questions[%d]", i)
		switch {
		case len(q.Options) == 0:
			fields[key+".options"] = "options must contain at least 1 item"
		case q.CorrectOption < 0 || q.CorrectOption >= len(q.Options):
			fields[key+".correctOption"] = fmt.Sprintf("correctOption must be between 0 and %d", len(q.Options)-1)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Get returns a definition, consulting the cache first.
func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*model.ExamDefinition, error) {
	if s.cache != nil {
		exam, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Exam cache read failed, falling back to store")
		} else if ok {
			return exam, nil
		}
	}

	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("exam %s: %w", id, ErrNotFound)
		}
		return nil, internal("get exam", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, exam); err != nil {
			s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Exam cache write failed")
		}
	}
	return exam, nil
}

// ListForTeacher returns the exams authored by creator, in insertion order.
func (s *ExamService) ListForTeacher(ctx context.Context, creator string) ([]model.ExamDefinition, error) {
	exams, err := s.exams.ListByCreator(ctx, creator)
	if err != nil {
		return nil, internal("list exams by creator", err)
	}
	return nonNil(exams), nil
}

// ListForCourses returns the exams belonging to any of the given courses.
func (s *ExamService) ListForCourses(ctx context.Context, courseCodes []string) ([]model.ExamDefinition, error) {
	if len(courseCodes) == 0 {
		return []model.ExamDefinition{}, nil
	}
	exams, err := s.exams.ListByCourses(ctx, courseCodes)
	if err != nil {
		return nil, internal("list exams by courses", err)
	}
	return nonNil(exams), nil
}

// Delete removes a definition together with its ledger records.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.exams.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("exam %s: %w", id, ErrNotFound)
		}
		return internal("delete exam", err)
	}

	if s.cache != nil {
		if err := s.cache.Evict(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Exam cache evict failed")
		}
	}

	s.log.Info().Str("exam_id", id.String()).Msg("Exam deleted")
	return nil
}

func nonNil(exams []model.ExamDefinition) []model.ExamDefinition {
	if exams == nil {
		return []model.ExamDefinition{}
	}
	return exams
}
