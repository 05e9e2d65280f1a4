// Package config loads process settings from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds every setting the bot reads at start-up.
type Config struct {
	BotToken       string        `env:"AQUATALLYON_BOT_TOKEN"`
	DBPath         string        `env:"AQUATALLYON_DB_PATH" envDefault:"aquatallyon.db"`
	RestoreOnStart bool          `env:"AQUATALLYON_RESTORE_ON_START" envDefault:"true"`
	OrganizerIDs   []uint64      `env:"AQUATALLYON_ORGANIZER_IDS" envSeparator:","`
	UpdateTimeout  time.Duration `env:"AQUATALLYON_UPDATE_TIMEOUT" envDefault:"15s"`
	PressRate      int           `env:"AQUATALLYON_PRESS_RATE" envDefault:"5"`
	PressInterval  time.Duration `env:"AQUATALLYON_PRESS_INTERVAL" envDefault:"10s"`

	HTTPAddr          string `env:"AQUATALLYON_HTTP_ADDR" envDefault:":8080"`
	AdminPasswordHash string `env:"AQUATALLYON_ADMIN_PASSWORD_HASH"`
	CSRFKeyHex        string `env:"AQUATALLYON_CSRF_KEY"`

	AutoRollCron   string `env:"AQUATALLYON_AUTO_ROLL_CRON"`
	AnnounceChatID int64  `env:"AQUATALLYON_ANNOUNCE_CHAT_ID"`

	ResendKey  string   `env:"AQUATALLYON_RESEND_KEY"`
	DigestFrom string   `env:"AQUATALLYON_DIGEST_FROM"`
	DigestTo   []string `env:"AQUATALLYON_DIGEST_TO" envSeparator:","`

	LogLevel     string `env:"AQUATALLYON_LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"AQUATALLYON_LOG_FORMAT" envDefault:"text"`
	SlowQueryMs  int    `env:"AQUATALLYON_SLOW_QUERY_MS" envDefault:"50"`
	SlowUpdateMs int    `env:"AQUATALLYON_SLOW_UPDATE_MS" envDefault:"200"`
}

// Load reads an optional dotenv file, then parses and validates the environment.
// Variables already set in the process win over the file.
// PRE: none
// POST: Returns a validated Config or an error naming every bad variable
func Load(dotenvFiles ...string) (Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field rules the tags cannot express.
func (c Config) Validate() error {
	var errs []error
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("AQUATALLYON_LOG_FORMAT: want text or json, got %q", c.LogFormat))
	}
	if c.PressRate <= 0 {
		errs = append(errs, fmt.Errorf("AQUATALLYON_PRESS_RATE: must be positive, got %d", c.PressRate))
	}
	if c.PressInterval <= 0 {
		errs = append(errs, fmt.Errorf("AQUATALLYON_PRESS_INTERVAL: must be positive, got %s", c.PressInterval))
	}
	if c.UpdateTimeout <= 0 {
		errs = append(errs, fmt.Errorf("AQUATALLYON_UPDATE_TIMEOUT: must be positive, got %s", c.UpdateTimeout))
	}
	if c.CSRFKeyHex != "" {
		if b, err := hex.DecodeString(c.CSRFKeyHex); err != nil || len(b) != 32 {
			errs = append(errs, errors.New("AQUATALLYON_CSRF_KEY: want 64 hex characters"))
		}
	}
	if c.AdminPasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(c.AdminPasswordHash)); err != nil {
			errs = append(errs, fmt.Errorf("AQUATALLYON_ADMIN_PASSWORD_HASH: %w", err))
		}
	}
	if len(c.DigestTo) > 0 && c.DigestFrom == "" && c.ResendKey != "" {
		errs = append(errs, errors.New("AQUATALLYON_DIGEST_FROM: required when AQUATALLYON_DIGEST_TO and AQUATALLYON_RESEND_KEY are set"))
	}
	return errors.Join(errs...)
}

// RequireBot checks the settings only the serve command needs.
func (c Config) RequireBot() error {
	if strings.TrimSpace(c.BotToken) == "" {
		return errors.New("AQUATALLYON_BOT_TOKEN: required")
	}
	return nil
}

// SlogLevel returns the configured level; Validate has already rejected bad values.
func (c Config) SlogLevel() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("AQUATALLYON_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// CSRFKey returns the configured 32-byte key, or a random one when unset.
// A random key invalidates admin forms on restart.
func (c Config) CSRFKey() ([]byte, error) {
	if c.CSRFKeyHex != "" {
		key, err := hex.DecodeString(c.CSRFKeyHex)
		if err == nil && len(key) == 32 {
			return key, nil
		}
		return nil, errors.New("AQUATALLYON_CSRF_KEY: want 64 hex characters")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	slog.Warn("csrf_key_generated", "hint", "set AQUATALLYON_CSRF_KEY to keep admin forms valid across restarts")
	return key, nil
}
