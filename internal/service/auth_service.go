package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/quizhub-api/internal/dto"
	"github.com/noah-isme/quizhub-api/internal/models"
	"github.com/noah-isme/quizhub-api/internal/repository"
)

const refreshTokenKeyPrefix = "quizhub:refresh:"

// TokenSettings configures token signing and lifetimes.
type TokenSettings struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenClaims is the JWT payload for access and refresh tokens.
type TokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult carries the response body plus the refresh token destined for a cookie.
type LoginResult struct {
	Response         dto.AuthResponse
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RefreshResult carries a rotated token pair.
type RefreshResult struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthService registers users and issues tokens.
type AuthService interface {
	Signup(ctx context.Context, payload dto.SignupRequest) (dto.UserResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (RefreshResult, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	users     repository.UserRepository
	redis     *redis.Client
	settings  TokenSettings
	validator *validator.Validate
	logger    zerolog.Logger
	hashCost  int
	now       func() time.Time
}

// NewAuthService constructs the authentication service. A nil Redis client disables refresh token revocation.
func NewAuthService(users repository.UserRepository, redisClient *redis.Client, settings TokenSettings, validate *validator.Validate, logger zerolog.Logger) AuthService {
	if settings.AccessTTL <= 0 {
		settings.AccessTTL = 72 * time.Hour
	}
	if settings.RefreshTTL <= 0 {
		settings.RefreshTTL = 7 * 24 * time.Hour
	}
	return &authService{
		users:     users,
		redis:     redisClient,
		settings:  settings,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		hashCost:  bcrypt.DefaultCost,
		now:       time.Now,
	}
}

func (s *authService) Signup(ctx context.Context, payload dto.SignupRequest) (dto.UserResponse, error) {
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	payload.Username = strings.TrimSpace(payload.Username)
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, payload.Email, payload.Username)
	if err != nil {
		return dto.UserResponse{}, err
	}
	if exists {
		return dto.UserResponse{}, ErrUserExists
	}

	hash, err := HashPassword(payload.Password, s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return dto.UserResponse{}, ErrPasswordTooLong
		}
		return dto.UserResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Fullname:     strings.TrimSpace(payload.Fullname),
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		University:   strings.TrimSpace(payload.University),
		Course:       strings.TrimSpace(payload.Course),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.UserResponse{}, ErrUserExists
		}
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user registered")
	return dto.NewUserResponse(user), nil
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (LoginResult, error) {
	if err := s.validator.Struct(payload); err != nil {
		return LoginResult{}, err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !CheckPasswordHash(payload.Password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	access, err := s.signAccessToken(user)
	if err != nil {
		return LoginResult{}, err
	}
	refresh, expiresAt, err := s.issueRefreshToken(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		Response:         dto.AuthResponse{Token: access, User: dto.NewUserResponse(user)},
		RefreshToken:     refresh,
		RefreshExpiresAt: expiresAt,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return RefreshResult{}, ErrRefreshTokenMissing
	}

	claims, err := ParseToken(refreshToken, s.settings.RefreshSecret)
	if err != nil {
		return RefreshResult{}, ErrRefreshTokenInvalid
	}

	if s.redis != nil {
		if err := s.redis.GetDel(ctx, refreshTokenKeyPrefix+claims.ID).Err(); err != nil {
			if errors.Is(err, redis.Nil) {
				return RefreshResult{}, ErrRefreshTokenInvalid
			}
			return RefreshResult{}, err
		}
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return RefreshResult{}, ErrRefreshTokenInvalid
	}
	user, err := s.users.GetByID(ctx, uint(userID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RefreshResult{}, ErrRefreshTokenInvalid
		}
		return RefreshResult{}, err
	}

	access, err := s.signAccessToken(user)
	if err != nil {
		return RefreshResult{}, err
	}
	refresh, expiresAt, err := s.issueRefreshToken(ctx, user)
	if err != nil {
		return RefreshResult{}, err
	}

	return RefreshResult{AccessToken: access, RefreshToken: refresh, RefreshExpiresAt: expiresAt}, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" || s.redis == nil {
		return nil
	}
	claims, err := ParseToken(refreshToken, s.settings.RefreshSecret)
	if err != nil {
		return nil
	}
	if err := s.redis.Del(ctx, refreshTokenKeyPrefix+claims.ID).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to revoke refresh token")
		return err
	}
	return nil
}

func (s *authService) signAccessToken(user models.User) (string, error) {
	now := s.now()
	claims := TokenClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.settings.AccessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.settings.AccessSecret))
}

func (s *authService) issueRefreshToken(ctx context.Context, user models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.settings.RefreshTTL)
	claims := TokenClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.settings.RefreshSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	if s.redis != nil {
		key := refreshTokenKeyPrefix + claims.ID
		if err := s.redis.Set(ctx, key, claims.Subject, s.settings.RefreshTTL).Err(); err != nil {
			return "", time.Time{}, fmt.Errorf("store refresh token: %w", err)
		}
	}

	return token, expiresAt, nil
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(tokenString, secret string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPasswordHash reports whether the password matches the stored hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
