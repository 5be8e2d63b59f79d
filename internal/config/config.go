package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string
	StateDB       string // empty: conversation state kept in memory

	LogLevel   string
	LogConsole bool

	StateTTL      time.Duration
	SweepInterval time.Duration
	SendRate      int
	HTTPTimeout   time.Duration
	MaxRelative   time.Duration
}

const (
	SecretPath = "/run/secrets/bot_auth_token"

	defaultStateTTL      = 24 * time.Hour
	defaultSweepInterval = 10 * time.Minute
	defaultSendRate      = 25
	defaultHTTPTimeout   = 75 * time.Second
	defaultMaxRelative   = 366 * 24 * time.Hour
)

var ErrNoToken = errors.New("bot token not found: set BOT_AUTH_TOKEN or provide " + SecretPath)

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return load(SecretPath)
}

func load(secretPath string) (Config, error) {
	cfg := Config{
		TelegramToken: botToken(secretPath),
		StateDB:       strings.TrimSpace(os.Getenv("STATE_DB")),
		LogLevel:      envOr("LOG_LEVEL", "info"),
	}
	if cfg.TelegramToken == "" {
		return Config{}, ErrNoToken
	}

	var err error
	if cfg.LogConsole, err = envBool("LOG_CONSOLE", true); err != nil {
		return Config{}, err
	}
	if cfg.StateTTL, err = envDuration("STATE_TTL", defaultStateTTL); err != nil {
		return Config{}, err
	}
	if cfg.SweepInterval, err = envDuration("SWEEP_INTERVAL", defaultSweepInterval); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = envDuration("HTTP_TIMEOUT", defaultHTTPTimeout); err != nil {
		return Config{}, err
	}
	if cfg.MaxRelative, err = envDuration("MAX_RELATIVE", defaultMaxRelative); err != nil {
		return Config{}, err
	}
	if cfg.SendRate, err = envInt("SEND_RATE", defaultSendRate); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// botToken prefers a Docker secret, then BOT_AUTH_TOKEN, then the legacy
// TELEGRAM_BOT_TOKEN.
func botToken(secretPath string) string {
	if data, err := os.ReadFile(secretPath); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}
	for _, key := range []string{"BOT_AUTH_TOKEN", "TELEGRAM_BOT_TOKEN"} {
		if token := strings.TrimSpace(os.Getenv(key)); token != "" {
			return token
		}
	}
	return ""
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be > 0", key, v)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
