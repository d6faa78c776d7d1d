package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/vssut/academia-backend/internal/model"
)

// LockEventReader reads the lock audit trail.
type LockEventReader interface {
	ListLockEvents(ctx context.Context, examID uuid.UUID) ([]model.LockEvent, error)
}

// AuditService exposes the lock history of an exam. The history survives a
// reset, unlike the ledger row.
type AuditService struct {
	events LockEventReader
	exams  *ExamService
}

// NewAuditService creates a new AuditService.
func NewAuditService(events LockEventReader, exams *ExamService) *AuditService {
	return &AuditService{events: events, exams: exams}
}

// LockEvents lists the audited locks for an existing exam.
func (s *AuditService) LockEvents(ctx context.Context, examID uuid.UUID) ([]model.LockEvent, error) {
	if _, err := s.exams.Get(ctx, examID); err != nil {
		return nil, err
	}

	events, err := s.events.ListLockEvents(ctx, examID)
	if err != nil {
		return nil, internal("list lock events", err)
	}
	if events == nil {
		events = []model.LockEvent{}
	}
	return events, nil
}
