package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Escalation   EscalationConfig
	Archive      ArchiveConfig
	Jobs         JobsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// NotificationConfig holds the dispatcher boundary values.
type NotificationConfig struct {
	QueueKey        string
	EmailFrom       string
	WebhookURL      string
	FallbackAddress string
}

// EscalationConfig holds the shared alert-day table and scan cadence for the
// escalation jobs. Both jobs read the same table on purpose.
type EscalationConfig struct {
	AlertDays          []int
	RunIntervalMinutes int
}

// ArchiveConfig controls message archiving of closed tickets.
type ArchiveConfig struct {
	RetentionDays int
}

// JobsConfig holds the cron expressions for the batch daemon.
type JobsConfig struct {
	ContractSchedule   string
	EscalationSchedule string
	ArchiveSchedule    string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	alertDays, err := getEnvAsIntList("ESCALATION_ALERT_DAYS", []int{1, 2, 4, 7, 14, 21, 28})
	if err != nil {
		return nil, fmt.Errorf("invalid ESCALATION_ALERT_DAYS: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "damage-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			QueueKey:        getEnv("NOTIFY_QUEUE_KEY", "damage:notifications"),
			EmailFrom:       getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL:      getEnv("NOTIFY_WEBHOOK_URL", ""),
			FallbackAddress: getEnv("NOTIFY_FALLBACK_ADDRESS", "facility@example.com"),
		},
		Escalation: EscalationConfig{
			AlertDays:          alertDays,
			RunIntervalMinutes: getEnvAsInt("ESCALATION_RUN_INTERVAL_MINUTES", 60),
		},
		Archive: ArchiveConfig{
			RetentionDays: getEnvAsInt("ARCHIVE_RETENTION_DAYS", 90),
		},
		Jobs: JobsConfig{
			ContractSchedule:   getEnv("JOBS_CONTRACT_SCHEDULE", "0 3 * * *"),
			EscalationSchedule: getEnv("JOBS_ESCALATION_SCHEDULE", "@hourly"),
			ArchiveSchedule:    getEnv("JOBS_ARCHIVE_SCHEDULE", "30 4 * * *"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// RunInterval returns the escalation scan cadence as a duration.
func (e EscalationConfig) RunInterval() time.Duration {
	if e.RunIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(e.RunIntervalMinutes) * time.Minute
}

// Retention returns the archive window as a duration.
func (a ArchiveConfig) Retention() time.Duration {
	if a.RetentionDays <= 0 {
		return 90 * 24 * time.Hour
	}
	return time.Duration(a.RetentionDays) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsIntList(key string, fallback []int) ([]int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parts := strings.Split(val, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		parsed, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}
