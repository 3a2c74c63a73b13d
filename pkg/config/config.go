package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Ledger    LedgerConfig
	Retention RetentionConfig
	Worker    WorkerConfig
	RateLimit RateLimitConfig
	VisionAPI VisionAPIConfig
}

type AppConfig struct {
	Name string
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

// LedgerConfig holds the attendance ledger tunables. The defaults are product
// defaults, not derived constraints; deployments override them via env.
type LedgerConfig struct {
	// ConfidenceThreshold is the minimum recognition confidence for an event
	// to count as an identification at all (inclusive)
	ConfidenceThreshold float64
	// Cooldown is the minimum gap between two accepted detections for the
	// same identity
	Cooldown time.Duration
	// CacheTTL bounds staleness of cached identity statistics
	CacheTTL time.Duration
	// Timezone defines the calendar day boundary for the whole deployment
	Timezone string
	// HistoryWindowDays is the default rolling window for identity statistics
	HistoryWindowDays int
}

type RetentionConfig struct {
	// SessionDays is how long detection session audit rows are kept
	SessionDays int
	// CleanupCron schedules the nightly retention job
	CleanupCron string
}

type WorkerConfig struct {
	QueueSize   int
	Concurrency int
}

type RateLimitConfig struct {
	Enabled           bool
	MaxRequests       int
	WindowSeconds     int
	AuthMaxRequests   int
	AuthWindowSeconds int
}

type VisionAPIConfig struct {
	BaseURL string // Base URL of the detection/recognition service
	Enabled bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists (optional for production)
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	config := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "SafeSight Ledger"),
			Port: getEnv("APP_PORT", "3000"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "safesight"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
		},
		Ledger: LedgerConfig{
			ConfidenceThreshold: getEnvFloat("LEDGER_CONFIDENCE_THRESHOLD", 0.55),
			Cooldown:            getEnvDuration("LEDGER_COOLDOWN", 30*time.Second),
			CacheTTL:            getEnvDuration("LEDGER_CACHE_TTL", 5*time.Minute),
			Timezone:            getEnv("LEDGER_TIMEZONE", "Local"),
			HistoryWindowDays:   getEnvInt("LEDGER_HISTORY_WINDOW_DAYS", 30),
		},
		Retention: RetentionConfig{
			SessionDays: getEnvInt("RETENTION_SESSION_DAYS", 90),
			CleanupCron: getEnv("RETENTION_CLEANUP_CRON", "30 3 * * *"),
		},
		Worker: WorkerConfig{
			QueueSize:   getEnvInt("WORKER_QUEUE_SIZE", 1024),
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnv("RATE_LIMIT_ENABLED", "true") == "true",
			MaxRequests:       getEnvInt("RATE_LIMIT_MAX_REQUESTS", 300),
			WindowSeconds:     getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
			AuthMaxRequests:   getEnvInt("RATE_LIMIT_AUTH_MAX_REQUESTS", 10),
			AuthWindowSeconds: getEnvInt("RATE_LIMIT_AUTH_WINDOW_SECONDS", 60),
		},
		VisionAPI: VisionAPIConfig{
			BaseURL: getEnv("VISION_API_URL", "http://localhost:5000"),
			Enabled: getEnv("VISION_API_ENABLED", "true") == "true",
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
