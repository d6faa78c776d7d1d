package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/vssut/academia-backend/internal/model"
	"github.com/vssut/academia-backend/internal/repository"
)

// AccessService decides which exams a caller may see.
// It fails closed: an identity it cannot resolve sees nothing.
type AccessService struct {
	exams       *ExamService
	profiles    ProfileLookup
	enrollments EnrollmentLookup
	log         zerolog.Logger
}

// NewAccessService creates a new AccessService.
func NewAccessService(exams *ExamService, profiles ProfileLookup, enrollments EnrollmentLookup, log zerolog.Logger) *AccessService {
	return &AccessService{
		exams:       exams,
		profiles:    profiles,
		enrollments: enrollments,
		log:         log.With().Str("component", "access_service").Logger(),
	}
}

// VisibleExams returns the exams visible to (role, username).
func (s *AccessService) VisibleExams(ctx context.Context, role, username string) ([]model.ExamDefinition, error) {
	switch role {
	case model.RoleTeacher:
		return s.exams.ListForTeacher(ctx, username)
	case model.RoleStudent:
		return s.studentExams(ctx, username)
	default:
		return []model.ExamDefinition{}, nil
	}
}

func (s *AccessService) studentExams(ctx context.Context, username string) ([]model.ExamDefinition, error) {
	if username == "" {
		return []model.ExamDefinition{}, nil
	}

	roll, err := s.profiles.RollNumber(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Debug().Str("username", username).Msg("No profile, no exams visible")
			return []model.ExamDefinition{}, nil
		}
		return nil, internal("lookup profile", err)
	}
	if roll == "" {
		s.log.Debug().Str("username", username).Msg("Profile has no roll number, no exams visible")
		return []model.ExamDefinition{}, nil
	}

	codes, err := s.enrollments.CourseCodesForRoll(ctx, roll)
	if err != nil {
		return nil, internal("lookup enrollments", err)
	}

	return s.exams.ListForCourses(ctx, codes)
}
