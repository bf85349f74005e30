package dto

// SignupRequest validates account registration payloads.
type SignupRequest struct {
	Fullname   string `json:"fullname" validate:"required,min=3,max=255"`
	Username   string `json:"username" validate:"required,min=3,max=64"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	University string `json:"university" validate:"required,max=255"`
	Course     string `json:"course" validate:"required,max=128"`
}

// LoginRequest validates credential payloads.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned after a successful login or signup.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// TokenResponse is returned after the access token is refreshed.
type TokenResponse struct {
	Token string `json:"token"`
}
