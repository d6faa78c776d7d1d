package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vssut/academia-backend/internal/model"
)

func newAccessFixture(t *testing.T) (*AccessService, map[string]*model.ExamDefinition) {
	t.Helper()
	ctx := context.Background()
	exams := NewExamService(newMemExamStore(), nil, zerolog.Nop())

	created := make(map[string]*model.ExamDefinition)
	for _, course := range []string{"CS101", "MA201", "PH301"} {
		e, err := exams.Create(ctx, course, course+" quiz", "prof", threeQuestions())
		require.NoError(t, err)
		created[course] = e
	}

	profiles := memProfiles{"asha": "2101", "norole": ""}
	enrollments := memEnrollments{"2101": {"CS101", "MA201"}}

	return NewAccessService(exams, profiles, enrollments, zerolog.Nop()), created
}

func TestVisibleExams_Teacher(t *testing.T) {
	svc, _ := newAccessFixture(t)

	exams, err := svc.VisibleExams(context.Background(), model.RoleTeacher, "prof")
	require.NoError(t, err)
	assert.Len(t, exams, 3)

	exams, err = svc.VisibleExams(context.Background(), model.RoleTeacher, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, exams)
}

func TestVisibleExams_StudentSeesEnrolledCoursesOnly(t *testing.T) {
	svc, created := newAccessFixture(t)

	exams, err := svc.VisibleExams(context.Background(), model.RoleStudent, "asha")
	require.NoError(t, err)

	ids := make([]string, len(exams))
	for i, e := range exams {
		ids[i] = e.ID.String()
	}
	assert.ElementsMatch(t, []string{created["CS101"].ID.String(), created["MA201"].ID.String()}, ids)
}

func TestVisibleExams_FailsClosed(t *testing.T) {
	svc, _ := newAccessFixture(t)

	tests := []struct {
		name     string
		role     string
		username string
	}{
		{"student without profile", model.RoleStudent, "ghost"},
		{"student without roll number", model.RoleStudent, "norole"},
		{"student without username", model.RoleStudent, ""},
		{"unknown role", "admin", "prof"},
		{"missing role", "", "asha"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exams, err := svc.VisibleExams(context.Background(), tt.role, tt.username)
			require.NoError(t, err)
			assert.NotNil(t, exams)
			assert.Empty(t, exams)
		})
	}
}

func TestVisibleExams_StudentWithoutEnrollments(t *testing.T) {
	ctx := context.Background()
	exams := NewExamService(newMemExamStore(), nil, zerolog.Nop())
	_, err := exams.Create(ctx, "CS101", "q", "prof", threeQuestions())
	require.NoError(t, err)

	svc := NewAccessService(exams, memProfiles{"ravi": "2199"}, memEnrollments{}, zerolog.Nop())

	got, err := svc.VisibleExams(ctx, model.RoleStudent, "ravi")
	require.NoError(t, err)
	assert.Empty(t, got)
}
