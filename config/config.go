package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything resolved at construction time. Credentials for
// the notifier transports come from the environment and are passed through
// untouched; the engine itself never reads them.
type Config struct {
	DatabasePath  string
	CheckInterval time.Duration

	// Fetch behavior.
	HostMinDelay time.Duration // politeness throttle per remote host
	FetchTimeout time.Duration
	MaxRetries   int // transient retry ceiling per check
	UserAgent    string
	Parallelism  int // concurrent product pipelines per cycle

	// Presentation.
	Currency  string
	Precision int32

	LogLevel    string
	LogEncoding string

	// Notification transports. A transport with an empty primary field is
	// considered disabled.
	SMTP     SMTPConfig
	Telegram TelegramConfig

	// Recipients for fired alerts: email addresses or, for the Telegram
	// transport, chat ids.
	Recipients []string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type TelegramConfig struct {
	Token string
}

// Load reads configuration from environment variables, applying defaults
// for everything optional.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:  envOr("PRICEWATCH_DB_PATH", "./pricewatch.db"),
		CheckInterval: 30 * time.Minute,
		HostMinDelay:  2 * time.Second,
		FetchTimeout:  30 * time.Second,
		MaxRetries:    2,
		UserAgent:     envOr("PRICEWATCH_USER_AGENT", "pricewatch/1.0 (+price tracking)"),
		Parallelism:   4,
		Currency:      envOr("PRICEWATCH_CURRENCY", "USD"),
		Precision:     2,
		LogLevel:      envOr("PRICEWATCH_LOG_LEVEL", "info"),
		LogEncoding:   envOr("PRICEWATCH_LOG_ENCODING", "json"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     587,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		Telegram: TelegramConfig{
			Token: os.Getenv("TELEGRAM_BOT_TOKEN"),
		},
	}

	var err error
	if cfg.CheckInterval, err = durationEnv("PRICEWATCH_CHECK_INTERVAL", cfg.CheckInterval); err != nil {
		return nil, err
	}
	if cfg.HostMinDelay, err = durationEnv("PRICEWATCH_HOST_DELAY", cfg.HostMinDelay); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = durationEnv("PRICEWATCH_FETCH_TIMEOUT", cfg.FetchTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = intEnv("PRICEWATCH_MAX_RETRIES", cfg.MaxRetries); err != nil {
		return nil, err
	}
	if cfg.Parallelism, err = intEnv("PRICEWATCH_PARALLELISM", cfg.Parallelism); err != nil {
		return nil, err
	}
	if cfg.SMTP.Port, err = intEnv("SMTP_PORT", cfg.SMTP.Port); err != nil {
		return nil, err
	}
	prec, err := intEnv("PRICEWATCH_PRECISION", int(cfg.Precision))
	if err != nil {
		return nil, err
	}
	cfg.Precision = int32(prec)

	if raw := os.Getenv("ALERT_RECIPIENTS"); raw != "" {
		for _, r := range strings.Split(raw, ",") {
			if r = strings.TrimSpace(r); r != "" {
				cfg.Recipients = append(cfg.Recipients, r)
			}
		}
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("PRICEWATCH_MAX_RETRIES must not be negative")
	}
	if cfg.Parallelism < 1 {
		return nil, fmt.Errorf("PRICEWATCH_PARALLELISM must be at least 1")
	}
	if cfg.HostMinDelay < 0 {
		return nil, fmt.Errorf("PRICEWATCH_HOST_DELAY must not be negative")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
