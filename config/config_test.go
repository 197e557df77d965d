package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("RESET_CLEARS_SEEN", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.False(t, cfg.ResetClearsSeen)
	assert.Equal(t, time.Second, cfg.CelebrationTick)
	assert.Equal(t, 30*time.Minute, cfg.CelebrationIdleTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("RESET_CLEARS_SEEN", "yes")
	t.Setenv("CELEBRATION_TICK", "250ms")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_MAX", "not-a-number")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, cfg.ResetClearsSeen)
	assert.Equal(t, 250*time.Millisecond, cfg.CelebrationTick)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 120, cfg.RateLimitMax)
}
