package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends accepted by CHANGE_LOG_BACKEND.
const (
	BackendFile     = "file"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// App holds runtime configuration derived from env vars or files.
type App struct {
	APIPort     string
	Environment string
	LogLevel    string
	LogEncoding string
	CORSOrigins []string

	// Change log storage
	StoreBackend string
	LogPath      string
	DatabaseURL  string

	// Publishing recorded changes
	KafkaBrokers string
	KafkaTopic   string

	// Retention
	RetentionDays int
	PruneSchedule string
	PruneTimezone string

	// Fetch proxy
	FetchTimeout     time.Duration
	FetchMaxBytes    int64
	FetchRatePerHost float64

	// Notifications
	NotifyFromEmail string
	SendGridBaseURL string
	MailgunBaseURL  string
}

// FromEnv loads the application configuration from environment variables.
func FromEnv() App {
	return App{
		APIPort:     getEnv("API_PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "production"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogEncoding: getEnv("LOG_ENCODING", "json"),
		CORSOrigins: getCORSOrigins(),

		StoreBackend: strings.ToLower(getEnv("CHANGE_LOG_BACKEND", BackendFile)),
		LogPath:      getEnv("CHANGE_LOG_PATH", "changes.log"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "change-events"),

		RetentionDays: getEnvInt("RETENTION_DAYS", 30),
		PruneSchedule: getEnv("PRUNE_SCHEDULE", "@daily"),
		PruneTimezone: os.Getenv("PRUNE_TIMEZONE"),

		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchMaxBytes:    int64(getEnvInt("FETCH_MAX_BYTES", 10<<20)),
		FetchRatePerHost: getEnvFloat("FETCH_RATE_PER_HOST", 2),

		NotifyFromEmail: getEnv("NOTIFY_FROM_EMAIL", "notifications@urlmonitor.vercel.app"),
		SendGridBaseURL: getEnv("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
		MailgunBaseURL:  getEnv("MAILGUN_BASE_URL", "https://api.mailgun.net"),
	}
}

// Brokers splits KafkaBrokers into a clean list; empty means publishing is disabled.
func (a App) Brokers() []string {
	return splitList(a.KafkaBrokers)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

// getCORSOrigins parses CORS_ORIGINS as a comma separated list; unset means "*".
func getCORSOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return []string{"*"}
	}
	return splitList(raw)
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
