// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreDialect selects the Performance Store's storage backend.
type StoreDialect string

const (
	DialectPostgres StoreDialect = "postgres"
	DialectSQLite   StoreDialect = "sqlite"
)

// JobStoreDialect selects the Job Store's storage backend.
type JobStoreDialect string

const (
	JobStoreMemory JobStoreDialect = "memory"
	JobStoreRedis  JobStoreDialect = "redis"
)

// Config holds every environment-derived setting for the service.
type Config struct {
	HTTPPort    string
	Environment string
	LogLevel    string
	LogFormat   string

	DatabaseURL string
	SQLitePath  string
	StoreDialect StoreDialect

	RedisURL        string
	JobStoreDialect JobStoreDialect

	ProxyList []string

	WorkerPoolSize int

	FetchTimeout        time.Duration
	FetchTotalTimeout   time.Duration
	ChecklistTimeout    time.Duration
	JobSoftBudget       time.Duration
	FetchMaxRetries     int
	FetchRetryBaseDelay time.Duration

	CORSAllowedOrigins []string
}

// Load reads configuration from the environment, falling back to defaults
// modeled on the marketplace's staging profile.
func Load() *Config {
	return &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "console"),

		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SQLitePath:   getEnv("SQLITE_PATH", "./data/analyzer.db"),
		StoreDialect: StoreDialect(getEnv("STORE_DIALECT", string(DialectSQLite))),

		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		JobStoreDialect: JobStoreDialect(getEnv("JOB_STORE_DIALECT", string(JobStoreMemory))),

		ProxyList: splitAndTrim(getEnv("PROXY_LIST", "")),

		WorkerPoolSize: getEnvInt("WORKER_POOL_SIZE", 4),

		FetchTimeout:        getEnvSeconds("FETCH_TIMEOUT_S", 15*time.Second),
		FetchTotalTimeout:    getEnvSeconds("FETCH_TOTAL_TIMEOUT_S", 45*time.Second),
		ChecklistTimeout:    getEnvSeconds("CHECKLIST_TIMEOUT_S", 5*time.Second),
		JobSoftBudget:       getEnvSeconds("JOB_SOFT_BUDGET_S", 60*time.Second),
		FetchMaxRetries:     getEnvInt("FETCH_MAX_RETRIES", 2),
		FetchRetryBaseDelay: getEnvSeconds("FETCH_RETRY_BASE_DELAY_S", 1*time.Second),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return defaultValue
}

func splitAndTrim(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
