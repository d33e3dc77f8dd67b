package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the catalog.
type Config struct {
	TelegramToken  string
	StorageURL     string
	SeedSource     string
	BackupDir      string
	BackupTime     string
	BackupInterval time.Duration
	AllowedUserIDs []int64
	LogLevel       string
	LogFormat      string
}

// LoadDotEnv reads a .env file into the environment if one exists.
// Variables already set take precedence.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		StorageURL:     strings.TrimSpace(os.Getenv("STORAGE_URL")),
		SeedSource:     strings.TrimSpace(os.Getenv("SEED_SOURCE")),
		BackupDir:      strings.TrimSpace(os.Getenv("BACKUP_DIR")),
		BackupTime:     strings.TrimSpace(os.Getenv("BACKUP_TIME")),
		BackupInterval: parseInterval(strings.TrimSpace(os.Getenv("BACKUP_INTERVAL_HOURS"))),
		LogLevel:       strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		LogFormat:      strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))),
	}

	if cfg.StorageURL == "" {
		cfg.StorageURL = "movie_cinema.db"
	}
	if cfg.SeedSource == "" {
		cfg.SeedSource = "data.json"
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = "backups"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}

	ids, err := parseUserIDs(os.Getenv("ALLOWED_USER_IDS"))
	if err != nil {
		return cfg, err
	}
	cfg.AllowedUserIDs = ids

	return cfg, nil
}

// RequireTelegram reports an error when the bot token is missing.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

// BackupsEnabled is true when either a daily time or an interval is set.
func (c Config) BackupsEnabled() bool {
	return c.BackupTime != "" || c.BackupInterval > 0
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ALLOWED_USER_IDS: invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
