package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	LogLevel  string
	LogFormat string // "json" | "console"

	// Edumon REST backend.
	APIBaseURL     string
	APITimeout     time.Duration // dial, TLS handshake and response-header timeout
	PollInterval   time.Duration
	PollPageSize   int
	DedupPolicy    string // "recent" | "last-seen"
	RecentIDsLimit int

	// Session record storage.
	StorageDriver string // "dynamo" | "redis" | "memory"
	RecordID      string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	S3BucketName string

	SNSRegion    string
	SNSTargetARN string // endpoint or topic ARN; empty disables the SNS display

	APIJWTSecret string // empty disables auth on the local API
	APIJWTExpiry time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	SessionRecords string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:   getEnv("APP_PORT", "3000"),
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		APIBaseURL:     getEnv("EDUMON_API_URL", "http://localhost:4000/api/"),
		APITimeout:     getEnvDuration("EDUMON_API_TIMEOUT", 30*time.Second),
		PollInterval:   getEnvDuration("POLL_INTERVAL", 5*time.Minute),
		PollPageSize:   getEnvInt("POLL_PAGE_SIZE", 50),
		DedupPolicy:    getEnv("DEDUP_POLICY", "recent"),
		RecentIDsLimit: getEnvInt("RECENT_IDS_LIMIT", 100),

		StorageDriver: getEnv("STORAGE_DRIVER", "dynamo"),
		RecordID:      getEnv("SESSION_RECORD_ID", "edumon_prefs"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			SessionRecords: getEnv("DYNAMO_TABLE_SESSION_RECORDS", "session_records"),
		},

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		S3BucketName: getEnv("S3_BUCKET_NAME", "edumon-profiles"),

		SNSRegion:    getEnv("SNS_REGION", "us-east-1"),
		SNSTargetARN: getEnv("SNS_TARGET_ARN", ""),

		APIJWTSecret: getEnv("API_JWT_SECRET", ""),
		APIJWTExpiry: getEnvDuration("API_JWT_EXPIRY", 24*time.Hour),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("5m") or, under KEY_SECONDS, a plain
// number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
