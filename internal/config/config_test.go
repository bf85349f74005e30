package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecrets(t *testing.T) {
	t.Setenv("QUIZHUB_JWT_SECRET", "")
	t.Setenv("QUIZHUB_JWT_REFRESH_SECRET", "")

	_, err := Load("testdata/missing.env")
	require.Error(t, err)
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	t.Setenv("QUIZHUB_JWT_SECRET", "access")
	t.Setenv("QUIZHUB_JWT_REFRESH_SECRET", "refresh")
	t.Setenv("QUIZHUB_MOCKTEST_COURSE_SIZES", "gst111=60, mth101=30")
	t.Setenv("QUIZHUB_JWT_ACCESS_TTL", "1h")

	cfg, err := Load("testdata/missing.env")
	require.NoError(t, err)
	require.Equal(t, ":5000", cfg.HTTPAddress())
	require.Equal(t, time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, 60, cfg.MockTest.SizeFor("GST111"))
	require.Equal(t, 30, cfg.MockTest.SizeFor("mth101"))
	require.Equal(t, 20, cfg.MockTest.SizeFor("CSC201"))
}

func TestLoadRejectsMalformedCourseSizes(t *testing.T) {
	t.Setenv("QUIZHUB_JWT_SECRET", "access")
	t.Setenv("QUIZHUB_JWT_REFRESH_SECRET", "refresh")
	t.Setenv("QUIZHUB_MOCKTEST_COURSE_SIZES", "GST111")

	_, err := Load("testdata/missing.env")
	require.Error(t, err)
}

func TestDefaultMockTestConfig(t *testing.T) {
	cfg := DefaultMockTestConfig()
	require.Equal(t, 60, cfg.SizeFor("GST111"))
	require.Equal(t, 20, cfg.SizeFor("PHY101"))
	require.Equal(t, 20, MockTestConfig{}.SizeFor("PHY101"))
}
