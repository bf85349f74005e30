package models

import "time"

const (
	// RoleUser is the default role granted at signup.
	RoleUser = "user"
	// RoleAdmin may manage the question bank, communities and users.
	RoleAdmin = "admin"
)

// User represents a registered learner or administrator.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Fullname     string    `gorm:"size:255;not null" json:"fullname"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password;size:255;not null" json:"-"`
	Role         string    `gorm:"size:16;not null;default:'user'" json:"role"`
	University   string    `gorm:"size:255;not null" json:"university"`
	Course       string    `gorm:"size:128;not null" json:"course"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FavoriteQuestion links a user to a bookmarked question.
type FavoriteQuestion struct {
	UserID     uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	QuestionID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"questionId"`
	CreatedAt  time.Time `json:"createdAt"`
}
