package dto

import "time"

// MockTestSubmitRequest carries the answers for a session. Answers are 1-based option
// indices aligned with the session's question order; null marks an unanswered question.
type MockTestSubmitRequest struct {
	SessionID uint   `json:"sessionId" validate:"required"`
	Answers   []*int `json:"answers" validate:"required"`
}

// MockTestQuestion is a question as presented during a session, without the answer key.
type MockTestQuestion struct {
	ID       uint     `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Tags     []string `json:"tags"`
	Course   string   `json:"course"`
}

// MockTestStartResponse is returned when a session starts.
type MockTestStartResponse struct {
	SessionID uint               `json:"sessionId"`
	Course    string             `json:"course"`
	StartTime time.Time          `json:"startTime"`
	Questions []MockTestQuestion `json:"questions"`
}

// MockTestCorrection describes the outcome for one question of a session.
type MockTestCorrection struct {
	QuestionID    uint     `json:"questionId"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	UserAnswer    *int     `json:"userAnswer"`
	IsCorrect     bool     `json:"isCorrect"`
	Explanation   string   `json:"explanation"`
	Missing       bool     `json:"missing"`
}

// MockTestResult is the scoring outcome of a submission.
type MockTestResult struct {
	SessionID   uint                 `json:"sessionId"`
	Score       int                  `json:"score"`
	Total       int                  `json:"total"`
	Percentage  string               `json:"percentage"`
	Corrections []MockTestCorrection `json:"corrections"`
}

// MockTestHistoryQuestion is the review view of a question inside the history list.
type MockTestHistoryQuestion struct {
	QuestionID  uint     `json:"questionId"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Explanation string   `json:"explanation"`
	Missing     bool     `json:"missing"`
}

// MockTestHistoryEntry summarises one past session.
type MockTestHistoryEntry struct {
	SessionID      uint                      `json:"sessionId"`
	Course         string                    `json:"course"`
	Score          int                       `json:"score"`
	TotalQuestions int                       `json:"totalQuestions"`
	Percentage     string                    `json:"percentage"`
	StartTime      time.Time                 `json:"startTime"`
	EndTime        *time.Time                `json:"endTime"`
	Submitted      bool                      `json:"submitted"`
	Questions      []MockTestHistoryQuestion `json:"questions"`
}

// MockTestDetail is a single session with its corrections.
type MockTestDetail struct {
	SessionID   uint                 `json:"sessionId"`
	UserID      uint                 `json:"userId"`
	Course      string               `json:"course"`
	Score       int                  `json:"score"`
	Total       int                  `json:"total"`
	Percentage  string               `json:"percentage"`
	StartTime   time.Time            `json:"startTime"`
	EndTime     *time.Time           `json:"endTime"`
	Submitted   bool                 `json:"submitted"`
	Corrections []MockTestCorrection `json:"corrections"`
}
