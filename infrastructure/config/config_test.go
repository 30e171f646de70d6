package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"grocer-go/infrastructure/browser"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.HTTP.BasePath != "/api" {
		t.Errorf("BasePath = %v, want /api", cfg.HTTP.BasePath)
	}
	if cfg.Mongo.Database != "grocer-auth-wizard" {
		t.Errorf("Database = %v, want grocer-auth-wizard", cfg.Mongo.Database)
	}
	if cfg.Settle.AfterOtp != 2*time.Second {
		t.Errorf("Settle.AfterOtp = %v, want 2s", cfg.Settle.AfterOtp)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("Session.TTL = %v, want 24h", cfg.Session.TTL)
	}
}

func TestLoadWithEnv_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grocer.yaml")
	content := `
http:
  addr: ":9000"
  base_path: /v2
store: memory
browser:
  engine: rod
  step_timeout: 5s
  max_concurrent: 2
  blocked_resource_types: [Image]
settle:
  after_otp: 3s
session:
  ttl: 1h
log:
  level: debug
  json: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithEnv(path, envMap(nil))
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}

	if cfg.HTTP.Addr != ":9000" || cfg.HTTP.BasePath != "/v2" {
		t.Errorf("HTTP = %+v", cfg.HTTP)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("Store = %v, want memory", cfg.Store)
	}
	if cfg.Browser.StepTimeout != 5*time.Second {
		t.Errorf("StepTimeout = %v, want 5s", cfg.Browser.StepTimeout)
	}
	// Unset keys keep their defaults.
	if cfg.Browser.NavigationTimeout != 45*time.Second {
		t.Errorf("NavigationTimeout = %v, want 45s", cfg.Browser.NavigationTimeout)
	}
	if cfg.Settle.AfterOtp != 3*time.Second || cfg.Settle.AfterAddToCart != time.Second {
		t.Errorf("Settle = %+v", cfg.Settle)
	}

	dc := cfg.DriverConfig()
	if dc.Engine != browser.EngineRod {
		t.Errorf("DriverConfig().Engine = %v, want rod", dc.Engine)
	}
	if dc.ShouldBlock(browser.ResourceFont) || !dc.ShouldBlock(browser.ResourceImage) {
		t.Errorf("BlockedResourceTypes = %v, want only Image", dc.BlockedResourceTypes)
	}

	lc := cfg.LoggingConfig()
	if lc.Level != slog.LevelDebug || !lc.JSON {
		t.Errorf("LoggingConfig() = %+v", lc)
	}
}

func TestLoadWithEnv_Overrides(t *testing.T) {
	cfg, err := LoadWithEnv("", envMap(map[string]string{
		"PORT":                  "8081",
		"MONGODB_URI":           "mongodb://db:27017",
		"GROCER_STORE":          "MEMORY",
		"GROCER_BROWSER_ENGINE": "rod",
		"GROCER_HEADLESS":       "false",
		"GROCER_LOG_LEVEL":      "warn",
		"GROCER_SESSION_TTL":    "30m",
	}))
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}

	if cfg.HTTP.Addr != ":8081" {
		t.Errorf("Addr = %v, want :8081", cfg.HTTP.Addr)
	}
	if cfg.Mongo.URI != "mongodb://db:27017" {
		t.Errorf("URI = %v", cfg.Mongo.URI)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("Store = %v, want memory", cfg.Store)
	}
	if cfg.Browser.Headless {
		t.Error("Headless should be false")
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("TTL = %v, want 30m", cfg.Session.TTL)
	}
	if cfg.MongoDBConfig().URI != "mongodb://db:27017" {
		t.Errorf("MongoDBConfig().URI = %v", cfg.MongoDBConfig().URI)
	}
}

func TestLoadWithEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad store", map[string]string{"GROCER_STORE": "redis"}},
		{"bad engine", map[string]string{"GROCER_BROWSER_ENGINE": "webkit"}},
		{"bad headless", map[string]string{"GROCER_HEADLESS": "maybe"}},
		{"bad ttl", map[string]string{"GROCER_SESSION_TTL": "forever"}},
		{"bad level", map[string]string{"GROCER_LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadWithEnv("", envMap(tt.env)); err == nil {
				t.Error("LoadWithEnv() should fail")
			}
		})
	}
}

func TestLoadWithEnv_MissingFile(t *testing.T) {
	if _, err := LoadWithEnv(filepath.Join(t.TempDir(), "nope.yaml"), envMap(nil)); err == nil {
		t.Error("LoadWithEnv() should fail for a missing config file")
	}
}

func TestLoadWithEnv_ConfigPathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grocer.yaml")
	if err := os.WriteFile(path, []byte("store: memory\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithEnv("", envMap(map[string]string{"GROCER_CONFIG": path}))
	if err != nil {
		t.Fatalf("LoadWithEnv() error = %v", err)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("Store = %v, want %v", cfg.Store, StoreMemory)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("GROCER_TEST_DOTENV=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GROCER_TEST_DOTENV", "")
	os.Unsetenv("GROCER_TEST_DOTENV")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("GROCER_TEST_DOTENV"); got != "from-file" {
		t.Errorf("GROCER_TEST_DOTENV = %q, want from-file", got)
	}
}
