package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	BotToken    string `env:"BOT_TOKEN,required"`
	WebhookHost string `env:"WEBHOOK_HOST"`
	Port        string `env:"PORT" envDefault:"8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER" envDefault:"postgres"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME" envDefault:"tgbot"`

	EnableTelemetry bool    `env:"ENABLE_TELEMETRY" envDefault:"false"`
	AdminUserIDs    []int64 `env:"ADMIN_USER_IDS" envSeparator:","`
	SeedFile        string  `env:"SEED_FILE"`

	DefaultMuteDuration time.Duration `env:"DEFAULT_MUTE_DURATION" envDefault:"10m"`
	SchedulerInterval   time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"60s"`
	CleanupInterval     time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1s"`
	StateCacheSize      int           `env:"STATE_CACHE_SIZE" envDefault:"50000"`

	Delays DeleteDelays
}

// DeleteDelays holds how long bot notices stay in a chat, per action type.
type DeleteDelays struct {
	Warn      time.Duration `env:"WARN_MESSAGE_DELETE_DELAY" envDefault:"3s"`
	Kick      time.Duration `env:"KICK_MESSAGE_DELETE_DELAY" envDefault:"3s"`
	Ban       time.Duration `env:"BAN_MESSAGE_DELETE_DELAY" envDefault:"3s"`
	Mute      time.Duration `env:"MUTE_MESSAGE_DELETE_DELAY" envDefault:"3s"`
	Rep       time.Duration `env:"REP_MESSAGE_DELETE_DELAY" envDefault:"3s"`
	Antiflood time.Duration `env:"ANTIFLOOD_MESSAGE_DELETE_DELAY" envDefault:"5s"`
	Antimat   time.Duration `env:"ANTIMAT_MESSAGE_DELETE_DELAY" envDefault:"3s"`
	Captcha   time.Duration `env:"CAPTCHA_MESSAGE_DELETE_DELAY" envDefault:"3s"`
}

func (c *Config) GetDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

// IsConfigAdmin reports whether userID is listed in ADMIN_USER_IDS.
func (c *Config) IsConfigAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.DatabaseURL == "" && cfg.DBPassword == "" {
		return nil, fmt.Errorf("failed to parse config: DATABASE_URL or DB_PASSWORD must be set")
	}
	if cfg.SchedulerInterval <= 0 {
		return nil, fmt.Errorf("failed to parse config: SCHEDULER_INTERVAL must be positive")
	}
	return cfg, nil
}
