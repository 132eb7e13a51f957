package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultBaseURL  = "https://finlife.fss.or.kr/finlifeapi"
	defaultCategory = "020000" // banks
	defaultPageSize = 20
	defaultTimeout  = 10 * time.Second
	defaultInterval = 24 * time.Hour
)

// Config is read once at startup from the environment (a .env file is loaded
// first when present).
type Config struct {
	DatabaseDSN    string
	APIBaseURL     string
	APIKey         string
	Categories     []string
	PageSize       int
	RequestTimeout time.Duration
	SyncInterval   time.Duration
}

// Load reads the environment into a Config, applying defaults. It fails only
// on malformed values; required-field checks belong to the command that needs
// the field.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseDSN: os.Getenv("DB_DSN"),
		APIBaseURL:  envStr("FINLIFE_BASE_URL", defaultBaseURL),
		APIKey:      os.Getenv("FINLIFE_API_KEY"),
		Categories:  splitList(envStr("SYNC_CATEGORIES", defaultCategory)),
	}

	var err error
	if cfg.PageSize, err = envInt("SYNC_PAGE_SIZE", defaultPageSize); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = envDuration("HTTP_TIMEOUT", defaultTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SyncInterval, err = envDuration("SYNC_INTERVAL", defaultInterval); err != nil {
		return Config{}, err
	}
	if cfg.PageSize < 1 {
		return Config{}, fmt.Errorf("SYNC_PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	return cfg, nil
}

// RequireDB fails unless a database DSN is configured.
func (c Config) RequireDB() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	return nil
}

// RequireAPI fails unless the upstream API credentials are configured.
func (c Config) RequireAPI() error {
	if c.APIKey == "" {
		return fmt.Errorf("FINLIFE_API_KEY is required")
	}
	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer: %q", key, v)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: not a duration: %q", key, v)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
