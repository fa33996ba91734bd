package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// JobsConfig tunes the document processing queue and its workers.
type JobsConfig struct {
	MaxAttempts      int
	PollIntervalSec  int
	JobTimeoutSec    int
	Concurrency      int
	ReaperWindowMin  int
	RetentionDays    int
	SweepIntervalMin int
}

// AuditConfig tunes the audit trail.
type AuditConfig struct {
	RetentionYears int
	RetryBuffer    int
}

// CacheConfig tunes the external-lookup response cache.
type CacheConfig struct {
	DefaultTTLSec    int
	GraceFactor      int
	SweepIntervalMin int
}

// ProvidersConfig holds upstream lookup provider endpoints. Empty base URLs
// disable the corresponding provider.
type ProvidersConfig struct {
	EPCBaseURL      string
	FloodBaseURL    string
	PlanningBaseURL string
	TimeoutSec      int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Jobs      JobsConfig
	Audit     AuditConfig
	Cache     CacheConfig
	Providers ProvidersConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Jobs: JobsConfig{
			MaxAttempts:      getEnvInt("JOBS_MAX_ATTEMPTS", 3),
			PollIntervalSec:  getEnvInt("JOBS_POLL_INTERVAL_SEC", 2),
			JobTimeoutSec:    getEnvInt("JOBS_TIMEOUT_SEC", 120),
			Concurrency:      getEnvInt("JOBS_CONCURRENCY", 2),
			ReaperWindowMin:  getEnvInt("JOBS_REAPER_WINDOW_MIN", 15),
			RetentionDays:    getEnvInt("JOBS_RETENTION_DAYS", 30),
			SweepIntervalMin: getEnvInt("JOBS_SWEEP_INTERVAL_MIN", 60),
		},
		Audit: AuditConfig{
			RetentionYears: getEnvInt("AUDIT_RETENTION_YEARS", 6),
			RetryBuffer:    getEnvInt("AUDIT_RETRY_BUFFER", 256),
		},
		Cache: CacheConfig{
			DefaultTTLSec:    getEnvInt("CACHE_DEFAULT_TTL_SEC", 86400),
			GraceFactor:      getEnvInt("CACHE_GRACE_FACTOR", 7),
			SweepIntervalMin: getEnvInt("CACHE_SWEEP_INTERVAL_MIN", 60),
		},
		Providers: ProvidersConfig{
			EPCBaseURL:      getEnv("PROVIDER_EPC_BASE_URL", ""),
			FloodBaseURL:    getEnv("PROVIDER_FLOOD_BASE_URL", ""),
			PlanningBaseURL: getEnv("PROVIDER_PLANNING_BASE_URL", ""),
			TimeoutSec:      getEnvInt("PROVIDER_TIMEOUT_SEC", 10),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
