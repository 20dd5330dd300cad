package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, []string{".sd7"}, cfg.AllowedFileExtensions)
	assert.Equal(t, int64(100<<20), cfg.MaxUploadSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("MAX_PAGE_SIZE", "50")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 50, cfg.MaxPageSize)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadConfig_InvalidInteger(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("MAX_PAGE_SIZE", "lots")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "MAX_PAGE_SIZE")
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := &Config{
		HTTPPort:              0,
		DBDriver:              "mysql",
		DatabaseURL:           "x",
		JWTSecret:             "short",
		AccessTokenTTL:        time.Hour,
		RateLimitPerMinute:    1,
		LogLevel:              "info",
		LogFormat:             "xml",
		MaxUploadSize:         1,
		AllowedFileExtensions: []string{"sd7"},
		DefaultPageSize:       200,
		MaxPageSize:           100,
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"HTTP_PORT", "DB_DRIVER", "LOG_FORMAT", "JWT_SECRET", "ALLOWED_FILE_EXTENSIONS", "DEFAULT_PAGE_SIZE"} {
		assert.ErrorContains(t, err, want)
	}
}
