// Package config loads service configuration from a YAML file, a .env file and
// environment overrides, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"grocer-go/infrastructure/browser"
	"grocer-go/infrastructure/logging"
	"grocer-go/infrastructure/repository"
)

// Store backends.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config is the full service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Store   string        `yaml:"store"`
	Browser BrowserConfig `yaml:"browser"`
	Settle  SettleConfig  `yaml:"settle"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Addr            string          `yaml:"addr"`
	BasePath        string          `yaml:"base_path"`
	ReadTimeout     time.Duration   `yaml:"read_timeout"`
	WriteTimeout    time.Duration   `yaml:"write_timeout"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	// TrustProxy keys rate limiting on X-Forwarded-For instead of the peer address.
	TrustProxy bool `yaml:"trust_proxy"`
}

// RateLimitConfig bounds automation requests per client address.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// MongoConfig configures the durable session store.
type MongoConfig struct {
	URI              string        `yaml:"uri"`
	Database         string        `yaml:"database"`
	Collection       string        `yaml:"collection"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	PingTimeout      time.Duration `yaml:"ping_timeout"`
	OperationTimeout time.Duration `yaml:"operation_timeout"`
}

// BrowserConfig configures the disposable browsers.
type BrowserConfig struct {
	Engine               string        `yaml:"engine"`
	Headless             bool          `yaml:"headless"`
	WindowWidth          int           `yaml:"window_width"`
	WindowHeight         int           `yaml:"window_height"`
	NoSandbox            bool          `yaml:"no_sandbox"`
	BypassCSP            bool          `yaml:"bypass_csp"`
	BlockedResourceTypes []string      `yaml:"blocked_resource_types"`
	ExecPath             string        `yaml:"exec_path"`
	StepTimeout          time.Duration `yaml:"step_timeout"`
	NavigationTimeout    time.Duration `yaml:"navigation_timeout"`
	MaxConcurrent        int           `yaml:"max_concurrent"`
}

// SettleConfig holds the fixed waits used where pages give no completion signal.
type SettleConfig struct {
	AfterOtp       time.Duration `yaml:"after_otp"`
	VariantOpen    time.Duration `yaml:"variant_open"`
	VariantSelect  time.Duration `yaml:"variant_select"`
	AfterAddToCart time.Duration `yaml:"after_add_to_cart"`
}

// SessionConfig configures record lifetime and per-session locking.
type SessionConfig struct {
	TTL         time.Duration `yaml:"ttl"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level   string `yaml:"level"`
	JSON    bool   `yaml:"json"`
	Dir     string `yaml:"dir"`
	Console bool   `yaml:"console"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":5000",
			BasePath:        "/api",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 30,
				Burst:             5,
			},
		},
		Mongo: MongoConfig{
			URI:              "mongodb://localhost:27017",
			Database:         "grocer-auth-wizard",
			Collection:       "sessions",
			ConnectTimeout:   10 * time.Second,
			PingTimeout:      5 * time.Second,
			OperationTimeout: 5 * time.Second,
		},
		Store: StoreMongo,
		Browser: BrowserConfig{
			Engine:               string(browser.EngineChromeDP),
			Headless:             true,
			WindowWidth:          1280,
			WindowHeight:         900,
			NoSandbox:            true,
			BypassCSP:            true,
			BlockedResourceTypes: append([]string(nil), browser.DefaultBlockedResourceTypes...),
			StepTimeout:          20 * time.Second,
			NavigationTimeout:    45 * time.Second,
			MaxConcurrent:        4,
		},
		Settle: SettleConfig{
			AfterOtp:       2 * time.Second,
			VariantOpen:    500 * time.Millisecond,
			VariantSelect:  500 * time.Millisecond,
			AfterAddToCart: time.Second,
		},
		Session: SessionConfig{
			TTL:         24 * time.Hour,
			LockTimeout: 2 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path and the process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment lookup.
// An empty path falls back to GROCER_CONFIG.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path == "" {
		path, _ = lookup("GROCER_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from .env files into the process environment.
// Existing variables win and missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		c.HTTP.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v, ok := lookup("MONGODB_URI"); ok && v != "" {
		c.Mongo.URI = v
	}
	if v, ok := lookup("GROCER_STORE"); ok && v != "" {
		c.Store = strings.ToLower(v)
	}
	if v, ok := lookup("GROCER_BROWSER_ENGINE"); ok && v != "" {
		c.Browser.Engine = strings.ToLower(v)
	}
	if v, ok := lookup("GROCER_HEADLESS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GROCER_HEADLESS: %w", err)
		}
		c.Browser.Headless = b
	}
	if v, ok := lookup("GROCER_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("GROCER_SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GROCER_SESSION_TTL: %w", err)
		}
		c.Session.TTL = d
	}
	return nil
}

// Validate checks values that would otherwise fail at first use.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	switch browser.Engine(c.Browser.Engine) {
	case browser.EngineChromeDP, browser.EngineRod:
	default:
		return fmt.Errorf("unknown browser engine %q", c.Browser.Engine)
	}
	if c.Browser.MaxConcurrent <= 0 {
		return fmt.Errorf("browser.max_concurrent must be positive")
	}
	if c.Browser.StepTimeout <= 0 || c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser timeouts must be positive")
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must not be negative")
	}
	if c.HTTP.BasePath != "" && !strings.HasPrefix(c.HTTP.BasePath, "/") {
		return fmt.Errorf("http.base_path must start with /")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// DriverConfig maps the browser section onto a driver configuration.
func (c *Config) DriverConfig() *browser.DriverConfig {
	dc := browser.DefaultDriverConfig()
	dc.Engine = browser.Engine(c.Browser.Engine)
	dc.Headless = c.Browser.Headless
	dc.WindowWidth = c.Browser.WindowWidth
	dc.WindowHeight = c.Browser.WindowHeight
	dc.NoSandbox = c.Browser.NoSandbox
	dc.BypassCSP = c.Browser.BypassCSP
	dc.BlockedResourceTypes = append([]string(nil), c.Browser.BlockedResourceTypes...)
	dc.ExecPath = c.Browser.ExecPath
	return dc
}

// MongoDBConfig maps the mongo section onto a connection configuration.
func (c *Config) MongoDBConfig() *repository.MongoDBConfig {
	return &repository.MongoDBConfig{
		URI:              c.Mongo.URI,
		Database:         c.Mongo.Database,
		Collection:       c.Mongo.Collection,
		ConnectTimeout:   c.Mongo.ConnectTimeout,
		PingTimeout:      c.Mongo.PingTimeout,
		OperationTimeout: c.Mongo.OperationTimeout,
	}
}

// LoggingConfig maps the log section onto a logging configuration.
func (c *Config) LoggingConfig() *logging.Config {
	lc := logging.DefaultConfig()
	// Validate has already rejected unknown levels.
	lc.Level, _ = logging.ParseLevel(c.Log.Level)
	lc.JSON = c.Log.JSON
	lc.Dir = c.Log.Dir
	lc.Console = c.Log.Console
	return lc
}
