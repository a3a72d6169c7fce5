package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL      string
	MigrationsDir    string
	DBMaxConns       int
	DBMinConns       int
	DBConnectTimeout time.Duration

	// Redis
	RedisURL    string
	LabStateTTL time.Duration

	// AI provider
	AIProvider       string // "gateway" | "gemini"
	AIGatewayURL     string
	AIGatewayKey     string
	AIModel          string
	GeminiAPIKey     string
	AIMaxAttempts    int
	AIRetryDelay     time.Duration
	AIRequestTimeout time.Duration

	// HTTP
	CORSAllowOrigin        string
	FunctionRequestsPerMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:          getEnvOrDefault("PORT", "8080"),
		Env:           getEnvOrDefault("ENV", "development"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", ""),
		DatabaseURL:   mustGetEnv("DATABASE_URL"),
		MigrationsDir: getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:      mustGetEnv("REDIS_URL"),
		LabStateTTL:   time.Duration(getEnvAsIntOrDefault("LAB_STATE_TTL_HOURS", 168)) * time.Hour,

		DBMaxConns:       getEnvAsIntOrDefault("DB_MAX_CONNS", 10),
		DBMinConns:       getEnvAsIntOrDefault("DB_MIN_CONNS", 2),
		DBConnectTimeout: getEnvAsDurationMsOrDefault("DB_CONNECT_TIMEOUT_MS", 10*time.Second),

		AIProvider:       getEnvOrDefault("AI_PROVIDER", "gateway"),
		AIGatewayURL:     getEnvOrDefault("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev"),
		AIGatewayKey:     getEnvOrDefault("AI_GATEWAY_KEY", ""),
		AIModel:          getEnvOrDefault("AI_MODEL", "google/gemini-3-flash-preview"),
		GeminiAPIKey:     getEnvOrDefault("GEMINI_API_KEY", ""),
		AIMaxAttempts:    getEnvAsIntOrDefault("AI_MAX_ATTEMPTS", 3),
		AIRetryDelay:     getEnvAsDurationMsOrDefault("AI_RETRY_DELAY_MS", 1500*time.Millisecond),
		AIRequestTimeout: getEnvAsDurationMsOrDefault("AI_REQUEST_TIMEOUT_MS", 60*time.Second),

		CORSAllowOrigin:        getEnvOrDefault("CORS_ALLOW_ORIGIN", "*"),
		FunctionRequestsPerMin: getEnvAsIntOrDefault("FUNCTION_REQUESTS_PER_MINUTE", 20),
	}

	if cfg.DBMaxConns < 1 {
		panic("DB_MAX_CONNS must be at least 1")
	}
	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		panic("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}

	switch cfg.AIProvider {
	case "gateway":
		if cfg.AIGatewayKey == "" {
			panic("required environment variable AI_GATEWAY_KEY is not set")
		}
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			panic("required environment variable GEMINI_API_KEY is not set")
		}
	default:
		panic(fmt.Sprintf("unsupported AI_PROVIDER %q", cfg.AIProvider))
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationMsOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	ms, err := strconv.Atoi(val)
	if err != nil || ms < 0 {
		return defaultVal
	}
	return time.Duration(ms) * time.Millisecond
}
