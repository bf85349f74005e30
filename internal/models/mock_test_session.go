package models

import (
	"time"

	"gorm.io/datatypes"
)

// MockTestSession is a single mock test attempt with a fixed question set.
type MockTestSession struct {
	ID          uint                      `gorm:"primaryKey" json:"id"`
	UserID      uint                      `gorm:"index;not null" json:"userId"`
	Course      string                    `gorm:"size:64;not null" json:"course"`
	QuestionIDs datatypes.JSONSlice[uint] `gorm:"column:questions;not null" json:"questions"`
	Answers     datatypes.JSONSlice[*int] `gorm:"column:answers" json:"answers"`
	StartTime   time.Time                 `gorm:"index;not null" json:"startTime"`
	EndTime     *time.Time                `json:"endTime"`
	Score       int                       `gorm:"not null;default:0" json:"score"`
}

// Submitted reports whether answers have been scored for the session.
func (s MockTestSession) Submitted() bool {
	return s.EndTime != nil
}

// Total returns the number of questions fixed at session creation.
func (s MockTestSession) Total() int {
	return len(s.QuestionIDs)
}
