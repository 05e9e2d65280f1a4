package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func missingDotenv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

// TestLoad_Defaults tests the documented defaults.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(missingDotenv(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "aquatallyon.db" || !cfg.RestoreOnStart || cfg.HTTPAddr != ":8080" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.UpdateTimeout != 15*time.Second || cfg.PressRate != 5 || cfg.PressInterval != 10*time.Second {
		t.Errorf("unexpected limits: %+v", cfg)
	}
	if cfg.SlowQueryMs != 50 || cfg.SlowUpdateMs != 200 {
		t.Errorf("unexpected thresholds: %+v", cfg)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("level = %v, want info", cfg.SlogLevel())
	}
	if err := cfg.RequireBot(); err == nil {
		t.Error("expected missing token error")
	}
}

// TestLoad_FromEnv tests list and duration parsing.
func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("AQUATALLYON_BOT_TOKEN", "123:abc")
	t.Setenv("AQUATALLYON_ORGANIZER_IDS", "42,7")
	t.Setenv("AQUATALLYON_DIGEST_TO", "a@example.org,b@example.org")
	t.Setenv("AQUATALLYON_UPDATE_TIMEOUT", "2s")
	t.Setenv("AQUATALLYON_LOG_LEVEL", "debug")

	cfg, err := Load(missingDotenv(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.OrganizerIDs) != 2 || cfg.OrganizerIDs[0] != 42 || cfg.OrganizerIDs[1] != 7 {
		t.Errorf("OrganizerIDs = %v", cfg.OrganizerIDs)
	}
	if len(cfg.DigestTo) != 2 {
		t.Errorf("DigestTo = %v", cfg.DigestTo)
	}
	if cfg.UpdateTimeout != 2*time.Second {
		t.Errorf("UpdateTimeout = %v", cfg.UpdateTimeout)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", cfg.SlogLevel())
	}
	if err := cfg.RequireBot(); err != nil {
		t.Errorf("RequireBot: %v", err)
	}
}

// TestLoad_Dotenv tests that a dotenv file fills unset variables only.
func TestLoad_Dotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "AQUATALLYON_DB_PATH=/tmp/from-file.db\nAQUATALLYON_HTTP_ADDR=:9999\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	t.Setenv("AQUATALLYON_HTTP_ADDR", ":7000")
	t.Cleanup(func() { os.Unsetenv("AQUATALLYON_DB_PATH") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/from-file.db" {
		t.Errorf("DBPath = %q, want value from file", cfg.DBPath)
	}
	if cfg.HTTPAddr != ":7000" {
		t.Errorf("HTTPAddr = %q, process env should win", cfg.HTTPAddr)
	}
}

// TestLoad_Invalid tests that every bad variable is reported.
func TestLoad_Invalid(t *testing.T) {
	t.Setenv("AQUATALLYON_LOG_LEVEL", "loud")
	t.Setenv("AQUATALLYON_LOG_FORMAT", "xml")
	t.Setenv("AQUATALLYON_CSRF_KEY", "abc")
	t.Setenv("AQUATALLYON_PRESS_RATE", "0")
	t.Setenv("AQUATALLYON_ADMIN_PASSWORD_HASH", "plaintext")

	_, err := Load(missingDotenv(t))
	if err == nil {
		t.Fatal("expected error")
	}
	for _, name := range []string{"LOG_LEVEL", "LOG_FORMAT", "CSRF_KEY", "PRESS_RATE", "ADMIN_PASSWORD_HASH"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %s", err, name)
		}
	}
}

// TestLoad_ParseError tests type errors from the env parser.
func TestLoad_ParseError(t *testing.T) {
	t.Setenv("AQUATALLYON_ORGANIZER_IDS", "42,not-a-number")
	_, err := Load(missingDotenv(t))
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

// TestCSRFKey tests configured and generated keys.
func TestCSRFKey(t *testing.T) {
	cfg := Config{CSRFKeyHex: strings.Repeat("ab", 32)}
	key, err := cfg.CSRFKey()
	if err != nil || len(key) != 32 || key[0] != 0xab {
		t.Errorf("configured key = %x, %v", key, err)
	}

	key, err = Config{}.CSRFKey()
	if err != nil || len(key) != 32 {
		t.Errorf("generated key len = %d, %v", len(key), err)
	}
}
