package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. Values come from the environment,
// optionally seeded from a .env file in the working directory.
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string
	BaseURL   string

	// CronSecret, when set, is required as a bearer token on the
	// manual reconciliation endpoint.
	CronSecret string
	// ReconcileAt is the local time of day ("HH:MM") the daily
	// reconciliation job runs.
	ReconcileAt string

	MailjetAPIKey    string
	MailjetAPISecret string
	MailjetFromEmail string
	MailjetFromName  string

	GeminiAPIKey string

	VAPIDPublicKey  string
	VAPIDPrivateKey string

	BackupS3Endpoint  string
	BackupS3Region    string
	BackupS3Bucket    string
	BackupS3AccessKey string
	BackupS3SecretKey string
	BackupPassphrase  string
	BackupSchedule    string
}

// Load reads configuration from the environment. A .env file is loaded
// first if present; missing files are not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("ZINGER_PORT", "8080"),
		DBPath:    getEnv("ZINGER_DB_PATH", "zinger.db"),
		LogLevel:  getEnv("ZINGER_LOG_LEVEL", "info"),
		LogFormat: getEnv("ZINGER_LOG_FORMAT", "text"),
		BaseURL:   getEnv("ZINGER_BASE_URL", ""),

		CronSecret:  getEnv("ZINGER_CRON_SECRET", ""),
		ReconcileAt: getEnv("ZINGER_RECONCILE_AT", "00:05"),

		MailjetAPIKey:    getEnv("MAILJET_API_KEY", ""),
		MailjetAPISecret: getEnv("MAILJET_API_SECRET", ""),
		MailjetFromEmail: getEnv("MAILJET_FROM_EMAIL", ""),
		MailjetFromName:  getEnv("MAILJET_FROM_NAME", "Zinger"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),

		VAPIDPublicKey:  getEnv("ZINGER_VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("ZINGER_VAPID_PRIVATE_KEY", ""),

		BackupS3Endpoint:  getEnv("ZINGER_BACKUP_S3_ENDPOINT", ""),
		BackupS3Region:    getEnv("ZINGER_BACKUP_S3_REGION", "auto"),
		BackupS3Bucket:    getEnv("ZINGER_BACKUP_S3_BUCKET", ""),
		BackupS3AccessKey: getEnv("ZINGER_BACKUP_S3_ACCESS_KEY", ""),
		BackupS3SecretKey: getEnv("ZINGER_BACKUP_S3_SECRET_KEY", ""),
		BackupPassphrase:  getEnv("ZINGER_BACKUP_PASSPHRASE", ""),
		BackupSchedule:    getEnv("ZINGER_BACKUP_SCHEDULE", "0 3 * * *"),
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%s", cfg.Port)
	}

	if _, _, err := ParseClock(cfg.ReconcileAt); err != nil {
		return nil, fmt.Errorf("ZINGER_RECONCILE_AT: %w", err)
	}

	return cfg, nil
}

// ParseClock parses an "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
