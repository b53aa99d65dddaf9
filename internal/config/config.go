package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	// GeminiAPIKey enables drafting themed content. Empty disables it.
	GeminiAPIKey string

	SaveDir     string
	DBPath      string
	ContentPath string // empty means the built-in library

	// Seed pins the random source when HasSeed is set.
	Seed    int64
	HasSeed bool

	EventDelay   time.Duration
	PhaseDelay   time.Duration
	MinPlayers   int
	ListenAddr   string
	GameInterval time.Duration
	LogLevel     string
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		SaveDir:      getenv("TRIBUTE_SAVE_DIR", ".saves"),
		DBPath:       getenv("TRIBUTE_DB_PATH", "data/tribute-games.db"),
		ContentPath:  os.Getenv("TRIBUTE_CONTENT"),
		ListenAddr:   getenv("TRIBUTE_LISTEN_ADDR", ":8080"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
	}

	var err error
	if v := os.Getenv("TRIBUTE_SEED"); v != "" {
		cfg.Seed, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TRIBUTE_SEED: %w", err)
		}
		cfg.HasSeed = true
	}
	if cfg.EventDelay, err = duration("TRIBUTE_EVENT_DELAY", 1500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.PhaseDelay, err = duration("TRIBUTE_PHASE_DELAY", 4*time.Second); err != nil {
		return nil, err
	}
	if cfg.GameInterval, err = duration("TRIBUTE_GAME_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.GameInterval <= 0 {
		return nil, fmt.Errorf("TRIBUTE_GAME_INTERVAL must be positive, got %s", cfg.GameInterval)
	}

	cfg.MinPlayers = 2
	if v := os.Getenv("TRIBUTE_MIN_PLAYERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TRIBUTE_MIN_PLAYERS: %w", err)
		}
		if n < 2 {
			return nil, fmt.Errorf("TRIBUTE_MIN_PLAYERS must be at least 2, got %d", n)
		}
		cfg.MinPlayers = n
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, d)
	}
	return d, nil
}
