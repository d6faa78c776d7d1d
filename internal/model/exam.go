package model

import (
	"time"

	"github.com/google/uuid"
)

// Question is a single multiple-choice item. Answers are matched by position,
// so the order of questions inside an exam is part of its meaning.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
}

// ExamDefinition is immutable after creation.
type ExamDefinition struct {
	ID         uuid.UUID  `json:"_id"`
	CourseCode string     `json:"courseCode"`
	Title      string     `json:"title"`
	Creator    string     `json:"creator"`
	Questions  []Question `json:"questions"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ForStudent returns a copy of the exam with the answer key removed.
func (e ExamDefinition) ForStudent() StudentExamView {
	qs := make([]StudentQuestion, len(e.Questions))
	for i, q := range e.Questions {
		qs[i] = StudentQuestion{Text: q.Text, Options: q.Options}
	}
	return StudentExamView{
		ID:         e.ID,
		CourseCode: e.CourseCode,
		Title:      e.Title,
		Creator:    e.Creator,
		Questions:  qs,
		CreatedAt:  e.CreatedAt,
	}
}

// StudentExamView is what a student receives when listing exams.
type StudentExamView struct {
	ID         uuid.UUID         `json:"_id"`
	CourseCode string            `json:"courseCode"`
	Title      string            `json:"title"`
	Creator    string            `json:"creator"`
	Questions  []StudentQuestion `json:"questions"`
	CreatedAt  time.Time         `json:"created_at"`
}

// StudentQuestion is a question without the correct answer.
type StudentQuestion struct {
	Text    string   `json:"question"`
	Options []string `json:"options"`
}

// QuestionInput is one question in a create request. CorrectOption is a pointer
// so an omitted index can be told apart from index 0.
type QuestionInput struct {
	Text          string   `json:"question" binding:"max=2000"`
	Options       []string `json:"options" binding:"required,min=1,dive,required"`
	CorrectOption *int     `json:"correctOption" binding:"required,min=0"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	CourseCode string          `json:"courseCode" binding:"required,max=50"`
	Title      string          `json:"title" binding:"max=255"`
	Creator    string          `json:"creator" binding:"required,max=100,username"`
	Questions  []QuestionInput `json:"questions" binding:"required,min=1,dive"`
}

// ListExamsQuery carries the caller identity for GET /exams.
type ListExamsQuery struct {
	Role     string `form:"role"`
	Username string `form:"username"`
}

// Caller roles understood by the exam listing.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)
