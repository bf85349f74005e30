package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map these to HTTP statuses; use errors.Is against them.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error is a client safe failure tagged with one of the error kinds.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func validationErrorf(format string, args ...interface{}) *Error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

var (
	// ErrUserExists indicates the email or username is already registered.
	ErrUserExists = newError(ErrConflict, "User already exists")
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = newError(ErrUnauthorized, "Invalid email or password")
	// ErrRefreshTokenMissing indicates the refresh cookie was absent.
	ErrRefreshTokenMissing = newError(ErrUnauthorized, "Refresh token not provided.")
	// ErrRefreshTokenInvalid indicates the refresh token failed verification or was revoked.
	ErrRefreshTokenInvalid = newError(ErrUnauthorized, "Invalid or expired refresh token.")
	// ErrUserNotFound indicates user lookup failed.
	ErrUserNotFound = newError(ErrNotFound, "User not found.")
	// ErrPasswordTooLong indicates a password longer than bcrypt accepts (72 bytes).
	ErrPasswordTooLong = newError(ErrValidation, "password must be at most 72 bytes")
	// ErrEmailTaken indicates a profile update collided with another account.
	ErrEmailTaken = newError(ErrConflict, "Email is already in use.")

	ErrQuestionNotFound     = newError(ErrNotFound, "Question not found.")
	ErrNoQuestionsForCourse = newError(ErrNotFound, "No questions found for this course.")
	ErrCourseRequired       = newError(ErrValidation, "Course is required.")
	ErrSessionNotFound      = newError(ErrNotFound, "Mock test session not found.")
	ErrNoMockTestHistory    = newError(ErrNotFound, "No mock test history found.")
	ErrUnsupportedImport    = newError(ErrValidation, "Unsupported import format; upload JSON or YAML.")

	ErrCommunityNotFound  = newError(ErrNotFound, "Community not found.")
	ErrCommunityNameTaken = newError(ErrConflict, "A community with this name already exists.")
	ErrAlreadyMember      = newError(ErrConflict, "You are already a member of this community.")
	ErrNotCommunityMember = newError(ErrNotFound, "You are not a member of this community.")
	ErrPostRequiresMember = newError(ErrForbidden, "You must be a member to post in this community.")
	ErrReadRequiresMember = newError(ErrForbidden, "You must be a member to view this community.")
	ErrMessageEmpty       = newError(ErrValidation, "Message cannot be empty.")
)
