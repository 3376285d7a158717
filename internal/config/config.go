package config

import (
	"log/slog"
	"os"
	"time"
)

// Config carries the process settings the scheduling code needs. It is
// built once at startup and passed by reference; nothing here is read
// from globals after that.
type Config struct {
	Port      string
	DBPath    string
	Location  *time.Location
	TouchMode bool
	LogLevel  string

	// Backup upload target; S3 upload is skipped when Bucket is empty.
	// A non-empty passphrase encrypts snapshots before upload.
	BackupBucket     string
	BackupEndpoint   string
	BackupRegion     string
	BackupKeyID      string
	BackupSecret     string
	BackupPassphrase string
}

// Load reads CHOREWHEEL_* environment variables, applying defaults for
// anything unset. An unparseable time zone logs a warning and falls back
// to UTC rather than failing startup.
func Load(logger *slog.Logger) Config {
	cfg := Config{
		Port:           envOr("CHOREWHEEL_PORT", "8080"),
		DBPath:         envOr("CHOREWHEEL_DB_PATH", "chorewheel.db"),
		Location:       time.UTC,
		TouchMode:      os.Getenv("CHOREWHEEL_TOUCH") == "1",
		LogLevel:       envOr("CHOREWHEEL_LOG_LEVEL", "info"),
		BackupBucket:   os.Getenv("CHOREWHEEL_BACKUP_BUCKET"),
		BackupEndpoint: os.Getenv("CHOREWHEEL_BACKUP_ENDPOINT"),
		BackupRegion:   envOr("CHOREWHEEL_BACKUP_REGION", "auto"),
		BackupKeyID:    os.Getenv("CHOREWHEEL_BACKUP_KEY_ID"),
		BackupSecret:   os.Getenv("CHOREWHEEL_BACKUP_SECRET"),
	}
	cfg.BackupPassphrase = os.Getenv("CHOREWHEEL_BACKUP_PASSPHRASE")

	if tz := os.Getenv("CHOREWHEEL_TZ"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			logger.Warn("invalid time zone, falling back to UTC", "tz", tz, "error", err)
		} else {
			cfg.Location = loc
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
