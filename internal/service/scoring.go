package service

import "github.com/vssut/academia-backend/internal/model"

// Score grades answers positionally against the exam. A question counts as
// correct only if an answer exists at its index and equals the correct option.
// Missing trailing answers are wrong; extra trailing answers are ignored.
func Score(exam *model.ExamDefinition, answers []int) (score, total int) {
	total = len(exam.Questions)
	for i, q := range exam.Questions {
		if i < len(answers) && answers[i] == q.CorrectOption {
			score++
		}
	}
	return score, total
}
