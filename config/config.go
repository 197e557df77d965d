package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port    string
	Env     string
	LogFile string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	JWTSecret    string
	AuthRequired bool
	CORSOrigins  []string
	CSRFAuthKey  string
	AdminToken   string

	// ResetClearsSeen decides whether a progress reset also forgets which
	// ranks, milestones and achievements the user has already been shown.
	ResetClearsSeen bool

	CelebrationTick    time.Duration
	// CelebrationIdleTTL is how long an untouched coordinator with pending
	// celebrations is kept in memory.
	CelebrationIdleTTL time.Duration
	RateLimitMax       int
	RateLimitWindow    time.Duration
	UserCacheTTL       time.Duration
	SummaryConcurrency int
}

func Load() Config {
	return Config{
		Port:    getEnv("PORT", "8080"),
		Env:     getEnv("APP_ENV", "development"),
		LogFile: getEnv("LOG_FILE", "./logs/app.log"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "1234"),
		DBName:     getEnv("DB_NAME", "quittracker_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "./data/quittracker.db"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getInt("REDIS_DB", 0),

		JWTSecret:    getEnv("JWT_SECRET", "supersecretkey"),
		AuthRequired: getBool("AUTH_REQUIRED", false),
		CORSOrigins:  getList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		CSRFAuthKey:  getEnv("CSRF_AUTH_KEY", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		ResetClearsSeen: getBool("RESET_CLEARS_SEEN", false),

		CelebrationTick:    getDuration("CELEBRATION_TICK", time.Second),
		CelebrationIdleTTL: getDuration("CELEBRATION_IDLE_TTL", 30*time.Minute),
		RateLimitMax:       getInt("RATE_LIMIT_MAX", 120),
		RateLimitWindow:    getDuration("RATE_LIMIT_WINDOW", time.Minute),
		UserCacheTTL:       getDuration("USER_CACHE_TTL", 30*time.Second),
		SummaryConcurrency: getInt("SUMMARY_CONCURRENCY", 8),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
