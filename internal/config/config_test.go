package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "PORT", "BASE_URL", "JWT_SECRET", "JWT_TTL", "CORS_ALLOW_ORIGINS", "DEFAULT_DUE_DAYS", "DB_DSN", "OVERDUE_SWEEP_INTERVAL", "UPLOAD_DIR"} {
		t.Setenv(k, "")
	}

	cfg, _ := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowOrigins)
	assert.Equal(t, 30, cfg.DefaultDueDays)
	assert.Equal(t, time.Hour, cfg.OverdueSweep)
	assert.Equal(t, "./uploads", cfg.UploadDir)
	assert.NotEmpty(t, cfg.JWTSecret)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("DEFAULT_DUE_DAYS", "15")
	t.Setenv("PROMETHEUS_ENABLED", "true")
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/pdv")

	cfg, _ := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.Equal(t, 15, cfg.DefaultDueDays)
	assert.True(t, cfg.PrometheusEnabled)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}
