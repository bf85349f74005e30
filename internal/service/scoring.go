package service

import (
	"fmt"

	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/models"
)

// SessionScore is the outcome of scoring a session against the current question bank.
type SessionScore struct {
	Score       int
	Total       int
	Corrections []dto.MockTestCorrection
}

// ScoreSession compares answers positionally against the session's questions.
// Answers that are missing, null or out of range never match. Questions deleted
// since the session started count as incorrect and are flagged as missing.
func ScoreSession(questionIDs []uint, questionsByID map[uint]models.Question, answers []*int) SessionScore {
	result := SessionScore{
		Total:       len(questionIDs),
		Corrections: make([]dto.MockTestCorrection, 0, len(questionIDs)),
	}

	for i, id := range questionIDs {
		var answer *int
		if i < len(answers) && answers[i] != nil {
			value := *answers[i]
			answer = &value
		}

		question, ok := questionsByID[id]
		if !ok {
			result.Corrections = append(result.Corrections, dto.MockTestCorrection{
				QuestionID: id,
				Options:    []string{},
				UserAnswer: answer,
				Missing:    true,
			})
			continue
		}

		correct := question.IsCorrect(answer)
		if correct {
			result.Score++
		}

		result.Corrections = append(result.Corrections, dto.MockTestCorrection{
			QuestionID:    id,
			Question:      question.Question,
			Options:       append([]string(nil), question.Options...),
			CorrectOption: question.CorrectOption,
			UserAnswer:    answer,
			IsCorrect:     correct,
			Explanation:   question.Explanation,
		})
	}

	return result
}

// FormatPercentage renders score/total as a percentage with two decimals.
func FormatPercentage(score, total int) string {
	if total <= 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(score)/float64(total)*100)
}
