package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vssut/academia-backend/internal/model"
)

func TestAuditService_LockEvents(t *testing.T) {
	ctx := context.Background()
	exams := NewExamService(newMemExamStore(), nil, zerolog.Nop())
	exam, err := exams.Create(ctx, "CS101", "Quiz", "prof", threeQuestions())
	require.NoError(t, err)

	reader := &memLockEvents{events: []model.LockEvent{
		{ExamID: exam.ID, StudentUsername: "asha", RecordedAt: time.Unix(100, 0)},
		{ExamID: uuid.New(), StudentUsername: "ravi", RecordedAt: time.Unix(200, 0)},
	}}
	svc := NewAuditService(reader, exams)

	events, err := svc.LockEvents(ctx, exam.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "asha", events[0].StudentUsername)

	_, err = svc.LockEvents(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	reader.err = errStoreDown
	_, err = svc.LockEvents(ctx, exam.ID)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestAuditService_EmptyHistory(t *testing.T) {
	ctx := context.Background()
	exams := NewExamService(newMemExamStore(), nil, zerolog.Nop())
	exam, err := exams.Create(ctx, "CS101", "Quiz", "prof", threeQuestions())
	require.NoError(t, err)

	events, err := NewAuditService(&memLockEvents{}, exams).LockEvents(ctx, exam.ID)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}
