package dto

import (
	"time"

	"github.com/noah-isme/quizhub-api/internal/models"
)

// UserResponse serializes a user without credentials.
type UserResponse struct {
	ID         uint      `json:"id"`
	Fullname   string    `json:"fullname"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	University string    `json:"university"`
	Course     string    `json:"course"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UpdateProfileRequest carries a partial profile update. Role is honoured for admins only.
type UpdateProfileRequest struct {
	Fullname   *string `json:"fullname" validate:"omitempty,min=3,max=255"`
	Email      *string `json:"email" validate:"omitempty,email,max=255"`
	University *string `json:"university" validate:"omitempty,max=255"`
	Course     *string `json:"course" validate:"omitempty,max=128"`
	Role       *string `json:"role" validate:"omitempty,oneof=user admin"`
}

// NewUserResponse converts model -> DTO.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Fullname:   user.Fullname,
		Username:   user.Username,
		Email:      user.Email,
		Role:       user.Role,
		University: user.University,
		Course:     user.Course,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

// NewUserResponseSlice converts a slice of users.
func NewUserResponseSlice(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserResponse(user))
	}
	return out
}
