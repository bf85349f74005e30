package dto

import (
	"time"

	"github.com/noah-isme/quizhub-api/internal/models"
)

// QuestionCreateRequest validates a single question payload.
type QuestionCreateRequest struct {
	Question      string   `json:"question" yaml:"question" validate:"required,max=4000"`
	Options       []string `json:"options" yaml:"options" validate:"required,len=4,dive,required"`
	CorrectOption int      `json:"correctOption" yaml:"correctOption" validate:"required,gte=1,lte=4"`
	Explanation   string   `json:"explanation" yaml:"explanation" validate:"required"`
	Tags          []string `json:"tags" yaml:"tags" validate:"omitempty,dive,required,max=64"`
	Course        string   `json:"course" yaml:"course" validate:"required,max=64"`
}

// QuestionBatchEntry is a batch item; unlike single creation, tags are mandatory.
type QuestionBatchEntry struct {
	Question      string   `json:"question" yaml:"question" validate:"required,max=4000"`
	Options       []string `json:"options" yaml:"options" validate:"required,len=4,dive,required"`
	CorrectOption int      `json:"correctOption" yaml:"correctOption" validate:"required,gte=1,lte=4"`
	Explanation   string   `json:"explanation" yaml:"explanation" validate:"required"`
	Tags          []string `json:"tags" yaml:"tags" validate:"required,min=1,dive,required,max=64"`
	Course        string   `json:"course" yaml:"course" validate:"required,max=64"`
}

// QuestionBatchRequest wraps a batch of questions.
type QuestionBatchRequest struct {
	Questions []QuestionBatchEntry `json:"questions" yaml:"questions" validate:"required,min=1,max=500,dive"`
}

// QuestionUpdateRequest carries a partial question update.
type QuestionUpdateRequest struct {
	Question      *string   `json:"question" validate:"omitempty,min=1,max=4000"`
	Options       *[]string `json:"options" validate:"omitempty,len=4,dive,required"`
	CorrectOption *int      `json:"correctOption" validate:"omitempty,gte=1,lte=4"`
	Explanation   *string   `json:"explanation" validate:"omitempty,min=1"`
	Tags          *[]string `json:"tags" validate:"omitempty,dive,required,max=64"`
	Course        *string   `json:"course" validate:"omitempty,min=1,max=64"`
}

// QuestionListRequest captures query params for listing questions.
type QuestionListRequest struct {
	Page   int
	Limit  int
	Search string
	Tags   []string
	Course string
}

// QuestionSolveRequest checks a single answer against the bank.
type QuestionSolveRequest struct {
	QuestionID uint `json:"questionId" validate:"required"`
	Answer     *int `json:"answer" validate:"required,gte=1,lte=4"`
}

// QuestionSolveResponse reports the outcome of a solve attempt.
type QuestionSolveResponse struct {
	QuestionID    uint   `json:"questionId"`
	IsCorrect     bool   `json:"isCorrect"`
	CorrectOption int    `json:"correctOption"`
	Explanation   string `json:"explanation"`
}

// QuestionResponse serializes a question. CorrectOption is omitted unless the caller may see it.
type QuestionResponse struct {
	ID            uint      `json:"id"`
	Question      string    `json:"question"`
	Options       []string  `json:"options"`
	CorrectOption *int      `json:"correctOption,omitempty"`
	Explanation   string    `json:"explanation"`
	Tags          []string  `json:"tags"`
	Course        string    `json:"course"`
	AddedBy       uint      `json:"addedBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// QuestionListResult wraps a page of questions.
type QuestionListResult struct {
	Questions      []QuestionResponse `json:"questions"`
	TotalQuestions int64              `json:"totalQuestions"`
	TotalPages     int                `json:"totalPages"`
	CurrentPage    int                `json:"currentPage"`
}

// QuestionBatchResult reports the inserted batch.
type QuestionBatchResult struct {
	Inserted  int                `json:"inserted"`
	Questions []QuestionResponse `json:"questions"`
}

// FavoriteToggleResponse reports the favorite state after a toggle.
type FavoriteToggleResponse struct {
	QuestionID  uint `json:"questionId"`
	IsFavorited bool `json:"isFavorited"`
}

// NewQuestionResponse converts model -> DTO.
func NewQuestionResponse(question models.Question, revealAnswer bool) QuestionResponse {
	resp := QuestionResponse{
		ID:          question.ID,
		Question:    question.Question,
		Options:     append([]string(nil), question.Options...),
		Explanation: question.Explanation,
		Tags:        append([]string{}, question.Tags...),
		Course:      question.Course,
		AddedBy:     question.AddedBy,
		CreatedAt:   question.CreatedAt,
		UpdatedAt:   question.UpdatedAt,
	}
	if revealAnswer {
		correct := question.CorrectOption
		resp.CorrectOption = &correct
	}
	return resp
}

// NewQuestionResponseSlice converts a slice of questions.
func NewQuestionResponseSlice(questions []models.Question, revealAnswer bool) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(questions))
	for _, question := range questions {
		out = append(out, NewQuestionResponse(question, revealAnswer))
	}
	return out
}
