package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/vssut/academia-backend/internal/model"
	"github.com/vssut/academia-backend/internal/response"
	"github.com/vssut/academia-backend/internal/service"
	"github.com/vssut/academia-backend/internal/validator"
)

// AttemptHandler exposes the attempt ledger transitions.
type AttemptHandler struct {
	attemptService *service.AttemptService
	auditService   *service.AuditService
	log            zerolog.Logger
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(attemptService *service.AttemptService, auditService *service.AuditService, log zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		auditService:   auditService,
		log:            log.With().Str("component", "attempt_handler").Logger(),
	}
}

// Status godoc
// POST /api/exams/status
// Returns {status, score}; status is "new" when the student has no record.
func (h *AttemptHandler) Status(c *gin.Context) {
	var req model.AttemptKeyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	examID, ok := parseExamID(c, req.ExamID)
	if !ok {
		return
	}

	view, err := h.attemptService.Status(c.Request.Context(), examID, req.Username)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// Start godoc
// POST /api/exams/start
// Opens an attempt. A second start for the same student returns 400 CONFLICT.
func (h *AttemptHandler) Start(c *gin.Context) {
	var req model.AttemptKeyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	examID, ok := parseExamID(c, req.ExamID)
	if !ok {
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), examID, req.Username)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// Submit godoc
// POST /api/exams/submit
// Grades the answers and records a completed attempt.
func (h *AttemptHandler) Submit(c *gin.Context) {
	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	examID, ok := parseExamID(c, req.ExamID)
	if !ok {
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), examID, req.Username, req.Answers)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Lock godoc
// POST /api/exams/lock
// Locks the student's attempt. Without an attempt this is a no-op.
func (h *AttemptHandler) Lock(c *gin.Context) {
	var req model.AttemptKeyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	examID, ok := parseExamID(c, req.ExamID)
	if !ok {
		return
	}

	locked, err := h.attemptService.Lock(c.Request.Context(), examID, req.Username)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"locked": locked})
}

// Reset godoc
// POST /api/exams/reset
// Deletes the student's attempt so they can start again.
func (h *AttemptHandler) Reset(c *gin.Context) {
	var req model.ResetExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	examID, ok := parseExamID(c, req.ExamID)
	if !ok {
		return
	}

	removed, err := h.attemptService.Reset(c.Request.Context(), examID, req.StudentUsername)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"reset": removed})
}

// Results godoc
// GET /api/exams/results/:examId
// Lists every attempt record for the exam.
func (h *AttemptHandler) Results(c *gin.Context) {
	examID, ok := parseExamID(c, c.Param("examId"))
	if !ok {
		return
	}

	results, err := h.attemptService.Results(c.Request.Context(), examID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// LockEvents godoc
// GET /api/exams/:examId/lock-events
// Lists the audited lock signals for the exam, including ones later reset.
func (h *AttemptHandler) LockEvents(c *gin.Context) {
	examID, ok := parseExamID(c, c.Param("examId"))
	if !ok {
		return
	}

	events, err := h.auditService.LockEvents(c.Request.Context(), examID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"lock_events": events})
}
