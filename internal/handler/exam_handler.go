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

// ExamHandler handles exam definition endpoints.
type ExamHandler struct {
	examService   *service.ExamService
	accessService *service.AccessService
	log           zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, accessService *service.AccessService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService:   examService,
		accessService: accessService,
		log:           log.With().Str("component", "exam_handler").Logger(),
	}
}

// ListExams godoc
// GET /api/exams?role=&username=
// Lists the exams visible to the caller. Students get the view without the
// answer key. Unresolvable callers get an empty list, never an error.
func (h *ExamHandler) ListExams(c *gin.Context) {
	var q model.ListExamsQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exams, err := h.accessService.VisibleExams(c.Request.Context(), q.Role, q.Username)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	if q.Role == model.RoleStudent {
		views := make([]model.StudentExamView, len(exams))
		for i, e := range exams {
			views[i] = e.ForStudent()
		}
		response.Success(c, http.StatusOK, gin.H{"exams": views})
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// CreateExam godoc
// POST /api/exams
// Creates a new, immutable exam definition.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions := make([]model.Question, len(req.Questions))
	for i, q := range req.Questions {
		questions[i] = model.Question{
			Text:          q.Text,
			Options:       q.Options,
			CorrectOption: *q.CorrectOption,
		}
	}

	exam, err := h.examService.Create(c.Request.Context(), req.CourseCode, req.Title, req.Creator, questions)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// GetExam godoc
// GET /api/exams/:examId?role=
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID, ok := parseExamID(c, c.Param("examId"))
	if !ok {
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), examID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	if c.Query("role") == model.RoleStudent {
		response.Success(c, http.StatusOK, gin.H{"exam": exam.ForStudent()})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/exams/:examId
// Removes the definition together with its attempt records.
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	examID, ok := parseExamID(c, c.Param("examId"))
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID); err != nil {
		failFromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "exam deleted successfully"})
}
