// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// StoreConfig bounds every request-scoped store operation.
type StoreConfig interface {
	GetStoreTimeout() time.Duration
}

// JWTConfig provides JWT validation settings for the admin middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// IngestConfig provides settings for the conversational agent endpoints.
type IngestConfig interface {
	GetIngestToken() string
	GetIngestRatePerMinute() int
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetRollupCron() string
	GetFollowUpCron() string
	GetDailyReportCron() string
	GetWeeklyReportCron() string
	GetMonthlyReportCron() string
	GetExportCron() string
}

// SMTPConfig provides settings for outbound admin mail.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFromName() string
	GetSMTPFromAddress() string
	GetAdminReportEmail() string
	IsSMTPEnabled() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketAnalyticsExports() string
	IsMinIOEnabled() bool
}

// ReportConfig provides the clinic's reporting calendar.
type ReportConfig interface {
	GetReportLocation() *time.Location
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                        string
	HTTPAddr                   string
	DatabaseURL                string
	StoreTimeout               time.Duration
	JWTAccessSecret            string
	CORSAllowAll               bool
	CORSOrigins                []string
	CORSAllowCreds             bool
	IngestToken                string
	IngestRatePerMinute        int
	RedisURL                   string
	RedisTLSInsecure           bool
	AsynqQueueName             string
	AsynqConcurrency           int
	RollupCron                 string
	FollowUpCron               string
	DailyReportCron            string
	WeeklyReportCron           string
	MonthlyReportCron          string
	ExportCron                 string
	SMTPHost                   string
	SMTPPort                   int
	SMTPUsername               string
	SMTPPassword               string
	SMTPFromName               string
	SMTPFromAddress            string
	AdminReportEmail           string
	MinIOEndpoint              string
	MinIOAccessKey             string
	MinIOSecretKey             string
	MinIOUseSSL                bool
	MinioBucketAnalyticsExport string
	ReportLocation             *time.Location
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// StoreConfig implementation
func (c *Config) GetStoreTimeout() time.Duration { return c.StoreTimeout }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// IngestConfig implementation
func (c *Config) GetIngestToken() string      { return c.IngestToken }
func (c *Config) GetIngestRatePerMinute() int { return c.IngestRatePerMinute }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool    { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string    { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int     { return c.AsynqConcurrency }
func (c *Config) GetRollupCron() string        { return c.RollupCron }
func (c *Config) GetFollowUpCron() string      { return c.FollowUpCron }
func (c *Config) GetDailyReportCron() string   { return c.DailyReportCron }
func (c *Config) GetWeeklyReportCron() string  { return c.WeeklyReportCron }
func (c *Config) GetMonthlyReportCron() string { return c.MonthlyReportCron }
func (c *Config) GetExportCron() string        { return c.ExportCron }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetSMTPFromName() string     { return c.SMTPFromName }
func (c *Config) GetSMTPFromAddress() string  { return c.SMTPFromAddress }
func (c *Config) GetAdminReportEmail() string { return c.AdminReportEmail }
func (c *Config) IsSMTPEnabled() bool {
	return c.SMTPHost != "" && c.AdminReportEmail != ""
}

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketAnalyticsExports() string {
	return c.MinioBucketAnalyticsExport
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// ReportConfig implementation
func (c *Config) GetReportLocation() *time.Location { return c.ReportLocation }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	location, err := time.LoadLocation(getEnv("REPORT_TIMEZONE", "Asia/Baku"))
	if err != nil {
		return nil, fmt.Errorf("REPORT_TIMEZONE: %w", err)
	}

	cfg := &Config{
		Env:                        getEnv("APP_ENV", "development"),
		HTTPAddr:                   getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		StoreTimeout:               mustDuration(getEnv("STORE_TIMEOUT", "5s")),
		JWTAccessSecret:            getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:               corsAllowAll,
		CORSOrigins:                corsOrigins,
		CORSAllowCreds:             strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		IngestToken:                getEnv("INGEST_TOKEN", ""),
		IngestRatePerMinute:        mustInt(getEnv("INGEST_RATE_PER_MINUTE", "600")),
		RedisURL:                   getEnv("REDIS_URL", ""),
		RedisTLSInsecure:           strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:             getEnv("ASYNQ_QUEUE", "marketing"),
		AsynqConcurrency:           mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		RollupCron:                 getEnv("ROLLUP_CRON", "@every 1h"),
		FollowUpCron:               getEnv("FOLLOW_UP_CRON", "@every 1h"),
		DailyReportCron:            getEnv("DAILY_REPORT_CRON", "0 9 * * *"),
		WeeklyReportCron:           getEnv("WEEKLY_REPORT_CRON", "0 9 * * 1"),
		MonthlyReportCron:          getEnv("MONTHLY_REPORT_CRON", "0 9 1 * *"),
		ExportCron:                 getEnv("EXPORT_CRON", "30 0 * * *"),
		SMTPHost:                   getEnv("SMTP_HOST", ""),
		SMTPPort:                   mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:               getEnv("SMTP_USERNAME", ""),
		SMTPPassword:               getEnv("SMTP_PASSWORD", ""),
		SMTPFromName:               getEnv("SMTP_FROM_NAME", "Briz-L Marketing"),
		SMTPFromAddress:            getEnv("SMTP_FROM_ADDRESS", ""),
		AdminReportEmail:           getEnv("ADMIN_REPORT_EMAIL", ""),
		MinIOEndpoint:              getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:             getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:             getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketAnalyticsExport: getEnv("MINIO_BUCKET_ANALYTICS_EXPORTS", "analytics-exports"),
		ReportLocation:             location,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.IngestToken == "" {
		return fmt.Errorf("INGEST_TOKEN is required")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be a positive duration")
	}
	if c.IngestRatePerMinute <= 0 {
		return fmt.Errorf("INGEST_RATE_PER_MINUTE must be positive")
	}
	if c.SMTPHost != "" && c.SMTPFromAddress == "" {
		return fmt.Errorf("SMTP_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
