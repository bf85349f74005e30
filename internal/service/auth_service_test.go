package service

import (
	"context"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/models"
	"github.com/noah-isme/quizhub-api/internal/repository"
	"github.com/noah-isme/quizhub-api/internal/utils"
)

var testTokenSettings = TokenSettings{
	AccessSecret:  "access-secret",
	RefreshSecret: "refresh-secret",
	AccessTTL:     time.Hour,
	RefreshTTL:    24 * time.Hour,
}

func setupAuthService(t *testing.T) (*miniredis.Miniredis, AuthService) {
	t.Helper()
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	db := setupServiceDB(t)
	svc := NewAuthService(repository.NewUserRepository(db), redisClient, testTokenSettings, utils.NewValidator(), zerolog.Nop()).(*authService)
	svc.hashCost = bcrypt.MinCost
	return mini, svc
}

func signupRequest(username string) dto.SignupRequest {
	return dto.SignupRequest{
		Fullname:   "Ada Lovelace",
		Username:   username,
		Email:      username + "@Example.com",
		Password:   "secret1",
		University: "Unilag",
		Course:     "Computer Science",
	}
}

func TestAuthServiceSignupRejectsDuplicates(t *testing.T) {
	_, svc := setupAuthService(t)

	user, err := svc.Signup(context.Background(), signupRequest("ada"))
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", user.Email)
	require.Equal(t, models.RoleUser, user.Role)

	_, err = svc.Signup(context.Background(), signupRequest("ada"))
	require.ErrorIs(t, err, ErrUserExists)
	require.ErrorIs(t, err, ErrConflict)

	other := signupRequest("grace")
	other.Email = "ada@example.com"
	_, err = svc.Signup(context.Background(), other)
	require.ErrorIs(t, err, ErrUserExists)

	short := signupRequest("linus")
	short.Password = "123"
	_, err = svc.Signup(context.Background(), short)
	require.Error(t, err)
}

func TestAuthServiceSignupRejectsOverlongPasswords(t *testing.T) {
	_, svc := setupAuthService(t)

	long := signupRequest("ken")
	long.Password = strings.Repeat("a", 100)
	_, err := svc.Signup(context.Background(), long)
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
	require.Equal(t, "password must be at most 72 characters", utils.ValidationMessage(err))

	// 40 two-byte runes pass the character limit but exceed bcrypt's byte limit.
	wide := signupRequest("rob")
	wide.Password = strings.Repeat("é", 40)
	_, err = svc.Signup(context.Background(), wide)
	require.ErrorIs(t, err, ErrPasswordTooLong)
	require.ErrorIs(t, err, ErrValidation)

	atLimit := signupRequest("dennis")
	atLimit.Password = strings.Repeat("b", 72)
	_, err = svc.Signup(context.Background(), atLimit)
	require.NoError(t, err)
}

func TestAuthServiceLoginIssuesTokens(t *testing.T) {
	mini, svc := setupAuthService(t)

	_, err := svc.Signup(context.Background(), signupRequest("ada"))
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	result, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Response.Token)
	require.NotEmpty(t, result.RefreshToken)
	require.Equal(t, "ada", result.Response.User.Username)

	claims, err := ParseToken(result.Response.Token, testTokenSettings.AccessSecret)
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, claims.Role)

	_, err = ParseToken(result.Response.Token, testTokenSettings.RefreshSecret)
	require.Error(t, err)

	refreshClaims, err := ParseToken(result.RefreshToken, testTokenSettings.RefreshSecret)
	require.NoError(t, err)
	require.True(t, mini.Exists(refreshTokenKeyPrefix+refreshClaims.ID))
}

func TestAuthServiceRefreshRotatesAndLogoutRevokes(t *testing.T) {
	_, svc := setupAuthService(t)

	_, err := svc.Signup(context.Background(), signupRequest("ada"))
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), "")
	require.ErrorIs(t, err, ErrRefreshTokenMissing)

	rotated, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)
	require.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshTokenInvalid)

	require.NoError(t, svc.Logout(context.Background(), rotated.RefreshToken))
	_, err = svc.Refresh(context.Background(), rotated.RefreshToken)
	require.ErrorIs(t, err, ErrRefreshTokenInvalid)

	_, err = svc.Refresh(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	require.True(t, CheckPasswordHash("secret1", hash))
	require.False(t, CheckPasswordHash("secret2", hash))
}
