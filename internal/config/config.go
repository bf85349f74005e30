package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	LogLevel         string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	CookieSecure     bool
	AuthRateLimit    int
	QuestionPoolTTL  time.Duration
	RealtimeChannel  string
	CORSOrigins      string
	MockTest         MockTestConfig
}

// MockTestConfig describes how many questions a mock test session draws per course.
type MockTestConfig struct {
	DefaultSize int
	CourseSizes map[string]int
}

// SizeFor returns the sample size configured for the course.
func (m MockTestConfig) SizeFor(course string) int {
	if size, ok := m.CourseSizes[strings.ToUpper(strings.TrimSpace(course))]; ok && size > 0 {
		return size
	}
	if m.DefaultSize > 0 {
		return m.DefaultSize
	}
	return defaultMockTestSize
}

const (
	defaultMockTestSize = 20
	defaultCourseSizes  = "GST111=60"
)

// DefaultMockTestConfig returns the stock sampling policy.
func DefaultMockTestConfig() MockTestConfig {
	sizes, _ := parseCourseSizes(defaultCourseSizes)
	return MockTestConfig{DefaultSize: defaultMockTestSize, CourseSizes: sizes}
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsDevelopment reports whether the service runs in development mode.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// Load reads configuration values from environment variables and optional .env files.
func Load(envFiles ...string) (Config, error) {
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.SetEnvPrefix("QUIZHUB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "QuizHub API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5000")
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.access_ttl", "72h")
	v.SetDefault("jwt.refresh_ttl", "168h")
	v.SetDefault("cookie.secure", false)
	v.SetDefault("auth.rate_limit", 20)
	v.SetDefault("question_pool.ttl", "10m")
	v.SetDefault("realtime.channel", "quizhub")
	v.SetDefault("cors.origins", "*")
	v.SetDefault("mocktest.default_size", defaultMockTestSize)
	v.SetDefault("mocktest.course_sizes", defaultCourseSizes)

	accessTTL, err := parseDuration(v.GetString("jwt.access_ttl"), 72*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid access token ttl: %w", err)
	}

	refreshTTL, err := parseDuration(v.GetString("jwt.refresh_ttl"), 7*24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid refresh token ttl: %w", err)
	}

	poolTTL, err := parseDuration(v.GetString("question_pool.ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid question pool ttl: %w", err)
	}

	courseSizes, err := parseCourseSizes(v.GetString("mocktest.course_sizes"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid mock test course sizes: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		LogLevel:         strings.ToLower(v.GetString("log.level")),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		JWTRefreshSecret: v.GetString("jwt.refresh_secret"),
		AccessTokenTTL:   accessTTL,
		RefreshTokenTTL:  refreshTTL,
		CookieSecure:     v.GetBool("cookie.secure"),
		AuthRateLimit:    v.GetInt("auth.rate_limit"),
		QuestionPoolTTL:  poolTTL,
		RealtimeChannel:  v.GetString("realtime.channel"),
		CORSOrigins:      v.GetString("cors.origins"),
		MockTest: MockTestConfig{
			DefaultSize: v.GetInt("mocktest.default_size"),
			CourseSizes: courseSizes,
		},
	}

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	if cfg.MockTest.DefaultSize <= 0 {
		cfg.MockTest.DefaultSize = defaultMockTestSize
	}

	if cfg.AuthRateLimit <= 0 {
		cfg.AuthRateLimit = 20
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

// parseCourseSizes reads "COURSE=N,COURSE=N" pairs.
func parseCourseSizes(raw string) (map[string]int, error) {
	sizes := make(map[string]int)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		course, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected COURSE=SIZE, got %q", pair)
		}
		size, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("invalid size for course %q", course)
		}
		sizes[strings.ToUpper(strings.TrimSpace(course))] = size
	}
	return sizes, nil
}
