// Package config loads Sage's settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Config holds every runtime setting.
type Config struct {
	DataDir     string
	LogLevel    string
	LogJSON     bool
	IntentsFile string

	WakeWord           string
	ContextDepth       int
	ReminderInterval   time.Duration
	PreferenceCacheTTL time.Duration

	// Generator
	GeminiAPIKey string
	Model        string

	// AllowPower lets shutdown and restart reach the automator.
	AllowPower bool
	// Timezone is an IANA name; empty means the local zone.
	Timezone string
}

// Load reads envFile (when it exists) and then the environment. Values
// already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	dataDir := envStr("SAGE_DATA_DIR", defaultDataDir())
	cfg := &Config{
		DataDir:            dataDir,
		LogLevel:           envStr("SAGE_LOG_LEVEL", "info"),
		LogJSON:            envBool("SAGE_LOG_JSON", false),
		IntentsFile:        envStr("SAGE_INTENTS_FILE", filepath.Join(dataDir, "intents.yaml")),
		WakeWord:           envStr("SAGE_WAKE_WORD", "jarvis"),
		ContextDepth:       envInt("SAGE_CONTEXT_DEPTH", 3),
		ReminderInterval:   envDuration("SAGE_REMINDER_INTERVAL", 30*time.Second),
		PreferenceCacheTTL: envDuration("SAGE_PREFERENCE_CACHE_TTL", 10*time.Minute),
		GeminiAPIKey:       envStr("GEMINI_API_KEY", ""),
		Model:              envStr("SAGE_MODEL", "gemini-2.0-flash"),
		AllowPower:         envBool("SAGE_ALLOW_POWER", false),
		Timezone:           envStr("SAGE_TIMEZONE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("SAGE_DATA_DIR must not be empty")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("SAGE_LOG_LEVEL: %w", err)
	}
	if c.ContextDepth < 1 {
		return fmt.Errorf("SAGE_CONTEXT_DEPTH must be positive, got %d", c.ContextDepth)
	}
	if c.ReminderInterval < time.Second {
		return fmt.Errorf("SAGE_REMINDER_INTERVAL must be at least 1s, got %s", c.ReminderInterval)
	}
	if c.PreferenceCacheTTL < 0 {
		return fmt.Errorf("SAGE_PREFERENCE_CACHE_TTL must not be negative, got %s", c.PreferenceCacheTTL)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("SAGE_TIMEZONE: %w", err)
	}
	return loc, nil
}

// DBPath is where the memory database lives.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "memory.db")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sage"
	}
	return filepath.Join(home, ".sage")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
