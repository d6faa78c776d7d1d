package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates the states of a student's attempt at an exam.
// StatusNew is never stored: it is what an absent ledger record means.
type AttemptStatus string

const (
	StatusNew        AttemptStatus = "new"
	StatusInProgress AttemptStatus = "in-progress"
	StatusCompleted  AttemptStatus = "completed"
	StatusLocked     AttemptStatus = "locked"
)

// Valid reports whether s is one of the known statuses.
func (s AttemptStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusCompleted, StatusLocked:
		return true
	}
	return false
}

// Terminal reports whether only a reset can leave this status.
func (s AttemptStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusLocked
}

// ExamAttempt is the ledger row, keyed by (ExamID, StudentUsername).
type ExamAttempt struct {
	ExamID          uuid.UUID     `json:"examId"`
	StudentUsername string        `json:"studentUsername"`
	Status          AttemptStatus `json:"status"`
	Score           int           `json:"score"`
	Total           *int          `json:"total,omitempty"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	SubmittedAt     *time.Time    `json:"submitted_at,omitempty"`
}

// AttemptStatusView is the status-check answer. Score is omitted for StatusNew.
type AttemptStatusView struct {
	Status AttemptStatus `json:"status"`
	Score  *int          `json:"score,omitempty"`
	Total  *int          `json:"total,omitempty"`
}

// SubmitResult is returned by a submission.
type SubmitResult struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

// AttemptKeyRequest identifies an attempt by exam and student.
type AttemptKeyRequest struct {
	ExamID   string `json:"examId" binding:"required,uuid"`
	Username string `json:"username" binding:"required,max=100,username"`
}

// SubmitExamRequest is the payload for submitting answers. Answers are option
// indices, positionally matched against the exam's questions.
type SubmitExamRequest struct {
	ExamID   string `json:"examId" binding:"required,uuid"`
	Username string `json:"username" binding:"required,max=100,username"`
	Answers  []int  `json:"answers"`
}

// ResetExamRequest is sent by a supervising teacher to reset one student.
type ResetExamRequest struct {
	ExamID          string `json:"examId" binding:"required,uuid"`
	StudentUsername string `json:"studentUsername" binding:"required,max=100,username"`
}

// AttemptEventType names a ledger transition.
type AttemptEventType string

const (
	EventAttemptStarted   AttemptEventType = "started"
	EventAttemptCompleted AttemptEventType = "completed"
	EventAttemptLocked    AttemptEventType = "locked"
	EventAttemptReset     AttemptEventType = "reset"
)

// AttemptEvent is broadcast to monitors whenever the ledger changes.
type AttemptEvent struct {
	Type     AttemptEventType `json:"type"`
	ExamID   uuid.UUID        `json:"examId"`
	Username string           `json:"username"`
	Status   AttemptStatus    `json:"status"`
	Score    *int             `json:"score,omitempty"`
	Total    *int             `json:"total,omitempty"`
	At       time.Time        `json:"at"`
}

// LockEvent is one audited lock signal.
type LockEvent struct {
	ExamID          uuid.UUID `json:"examId"`
	StudentUsername string    `json:"studentUsername"`
	RecordedAt      time.Time `json:"recorded_at"`
}
