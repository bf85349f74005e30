package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// QuestionOptionCount is the number of options every question carries.
	QuestionOptionCount = 4
)

// Question is a multiple choice item in the question bank.
type Question struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	Question      string                      `gorm:"type:text;not null" json:"question"`
	Options       datatypes.JSONSlice[string] `gorm:"not null" json:"options"`
	CorrectOption int                         `gorm:"not null" json:"correctOption"`
	Explanation   string                      `gorm:"type:text;not null" json:"explanation"`
	TagsRaw       string                      `gorm:"column:tags;type:text" json:"-"`
	Course        string                      `gorm:"size:64;index;not null" json:"course"`
	AddedBy       uint                        `gorm:"index;not null" json:"addedBy"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
	Tags          []string                    `gorm:"-" json:"tags"`
}

// IsCorrect reports whether the 1-based answer matches the stored option.
func (q Question) IsCorrect(answer *int) bool {
	return answer != nil && *answer == q.CorrectOption
}

// BeforeSave normalises tag data before persisting.
func (q *Question) BeforeSave(tx *gorm.DB) error {
	q.TagsRaw = EncodeTags(q.Tags)
	q.Tags = DecodeTags(q.TagsRaw)
	return nil
}

// AfterFind hydrates the tag list after retrieval.
func (q *Question) AfterFind(tx *gorm.DB) error {
	q.Tags = DecodeTags(q.TagsRaw)
	return nil
}

// NormalizeTag lowercases and trims a tag.
func NormalizeTag(tag string) string {
	return strings.TrimSpace(strings.ToLower(tag))
}

// EncodeTags stores tags as a pipe delimited string so that a single tag can be matched with LIKE.
func EncodeTags(tags []string) string {
	seen := make(map[string]struct{}, len(tags))
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		normalized := NormalizeTag(tag)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		cleaned = append(cleaned, normalized)
	}
	if len(cleaned) == 0 {
		return ""
	}
	return "|" + strings.Join(cleaned, "|") + "|"
}

// DecodeTags reverses EncodeTags.
func DecodeTags(raw string) []string {
	raw = strings.Trim(raw, "|")
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, "|")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		tags = append(tags, trimmed)
	}
	return tags
}
