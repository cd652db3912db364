// Copyright 2026 The Kiosk Bank Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable Load reads the config path from.
const EnvVar = "ATM_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for kiosks pointed at a test bank.
	Staging Environment = "staging"
	// Production is for kiosks in the field.
	Production Environment = "production"
)

// Storage backend names accepted by StorageConfig.Backend.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the master configuration for the ATM client and the mock
// bank.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Root is the base directory for client state. Other paths may
	// reference it as ${ATM_ROOT}.
	Root string `yaml:"root"`

	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Balance  BalanceConfig  `yaml:"balance"`
	Receipts ReceiptsConfig `yaml:"receipts"`
	Log      LogConfig      `yaml:"log"`
	MockBank MockBankConfig `yaml:"mockbank"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains fields that can be overridden per environment.
type Overrides struct {
	API     *APIConfig     `yaml:"api,omitempty"`
	Storage *StorageConfig `yaml:"storage,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

// APIConfig locates the bank API.
type APIConfig struct {
	// BaseURL is prefixed to every request path.
	// Default: http://127.0.0.1:8000
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single round trip.
	// Default: 15s
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig selects where the session record and cookies persist.
type StorageConfig struct {
	// Backend is one of none, memory, file, sqlite, redis.
	// Default: file
	Backend string `yaml:"backend"`

	// Path is the directory (file backend) or database file (sqlite
	// backend). Default: ${ATM_ROOT}/state
	Path string `yaml:"path"`

	// RedisAddr is host:port of the Redis server (redis backend).
	RedisAddr string `yaml:"redis_addr"`

	// RedisPrefix namespaces keys per kiosk on a shared Redis.
	// Default: atm:
	RedisPrefix string `yaml:"redis_prefix"`

	// SealKeyFile, when set, names an age identity file. Values are
	// encrypted to that identity before they reach the backend.
	SealKeyFile string `yaml:"seal_key_file"`
}

// BalanceConfig tunes the balance query.
type BalanceConfig struct {
	// StaleTime is how long a fetched balance is served from cache.
	// Default: 60s
	StaleTime time.Duration `yaml:"stale_time"`
}

// ReceiptsConfig configures the local receipt journal.
type ReceiptsConfig struct {
	// Path is the journal file. Empty disables receipts.
	// Default: ${ATM_ROOT}/receipts.cbor
	Path string `yaml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn, or error. Default: info
	Level string `yaml:"level"`

	// Output is a file path for rotated JSON logs. Empty logs to
	// stderr. The terminal UI always needs a file, since it owns the
	// terminal. Default: ${ATM_ROOT}/atm.log
	Output string `yaml:"output"`

	// MaxSizeMB is the size at which the log file rotates.
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is how many rotated files are kept.
	MaxBackups int `yaml:"max_backups"`
}

// MockBankConfig configures the development bank server.
type MockBankConfig struct {
	// Listen is the TCP address to serve on. Default: 127.0.0.1:8000
	Listen string `yaml:"listen"`

	// SeedFile is a JSONC file of seed cards. Empty uses the built-in
	// seeds.
	SeedFile string `yaml:"seed_file"`

	// SessionTTL is the lifetime of a bank session cookie.
	// Default: 15m
	SessionTTL time.Duration `yaml:"session_ttl"`

	// LockoutThreshold is the number of consecutive wrong PINs that
	// lock a card. Default: 5
	LockoutThreshold int `yaml:"lockout_threshold"`

	// LockoutDuration is how long a locked card stays locked.
	// Default: 15m
	LockoutDuration time.Duration `yaml:"lockout_duration"`
}

// Default returns the default configuration: a development kiosk
// talking to a mock bank on localhost.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	root := filepath.Join(homeDir, ".local", "state", "atm")

	return &Config{
		Environment: Development,
		Root:        root,
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8000",
			Timeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Backend:     BackendFile,
			Path:        filepath.Join(root, "state"),
			RedisPrefix: "atm:",
		},
		Balance: BalanceConfig{
			StaleTime: 60 * time.Second,
		},
		Receipts: ReceiptsConfig{
			Path: filepath.Join(root, "receipts.cbor"),
		},
		Log: LogConfig{
			Level:      "info",
			Output:     filepath.Join(root, "atm.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		MockBank: MockBankConfig{
			Listen:           "127.0.0.1:8000",
			SessionTTL:       15 * time.Minute,
			LockoutThreshold: 5,
			LockoutDuration:  15 * time.Minute,
		},
	}
}

// Load loads configuration from the file named by ATM_CONFIG. It
// fails when the variable is unset; callers that accept a built-in
// default use Resolve.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your atm.yaml config file, or use --config flag", EnvVar)
	}
	return LoadFile(configPath)
}

// Resolve picks the configuration for a command: an explicit path
// wins, then ATM_CONFIG, then Default.
func Resolve(path string) (*Config, error) {
	if path != "" {
		return LoadFile(path)
	}
	if os.Getenv(EnvVar) != "" {
		return Load()
	}
	cfg := Default()
	cfg.expandVariables()
	return cfg, nil
}

// LoadFile loads configuration from a specific file path. Values in
// the file replace defaults; environment variables are only consulted
// for ${VAR} expansion inside path values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Field kiosks log at warn unless the file says otherwise.
		if overrides == nil {
			overrides = &Overrides{
				Log: &LogConfig{Level: "warn"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.API != nil {
		if overrides.API.BaseURL != "" {
			c.API.BaseURL = overrides.API.BaseURL
		}
		if overrides.API.Timeout != 0 {
			c.API.Timeout = overrides.API.Timeout
		}
	}

	if overrides.Storage != nil {
		if overrides.Storage.Backend != "" {
			c.Storage.Backend = overrides.Storage.Backend
		}
		if overrides.Storage.Path != "" {
			c.Storage.Path = overrides.Storage.Path
		}
		if overrides.Storage.RedisAddr != "" {
			c.Storage.RedisAddr = overrides.Storage.RedisAddr
		}
		if overrides.Storage.RedisPrefix != "" {
			c.Storage.RedisPrefix = overrides.Storage.RedisPrefix
		}
		if overrides.Storage.SealKeyFile != "" {
			c.Storage.SealKeyFile = overrides.Storage.SealKeyFile
		}
	}

	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
		if overrides.Log.Output != "" {
			c.Log.Output = overrides.Log.Output
		}
		if overrides.Log.MaxSizeMB != 0 {
			c.Log.MaxSizeMB = overrides.Log.MaxSizeMB
		}
		if overrides.Log.MaxBackups != 0 {
			c.Log.MaxBackups = overrides.Log.MaxBackups
		}
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"ATM_ROOT": c.Root,
		"HOME":     os.Getenv("HOME"),
	}

	c.Root = expandVars(c.Root, vars)
	vars["ATM_ROOT"] = c.Root

	c.Storage.Path = expandVars(c.Storage.Path, vars)
	c.Storage.SealKeyFile = expandVars(c.Storage.SealKeyFile, vars)
	c.Receipts.Path = expandVars(c.Receipts.Path, vars)
	c.Log.Output = expandVars(c.Log.Output, vars)
	c.MockBank.SeedFile = expandVars(c.MockBank.SeedFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns. Provided
// vars take precedence over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.API.BaseURL == "" {
		errs = append(errs, fmt.Errorf("api.base_url is required"))
	} else if parsed, err := url.Parse(c.API.BaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, fmt.Errorf("api.timeout must not be negative"))
	}

	backends := []string{BackendNone, BackendMemory, BackendFile, BackendSQLite, BackendRedis}
	if !contains(backends, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("storage.backend must be one of: %v", backends))
	}
	if (c.Storage.Backend == BackendFile || c.Storage.Backend == BackendSQLite) && c.Storage.Path == "" {
		errs = append(errs, fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend))
	}
	if c.Storage.Backend == BackendRedis && c.Storage.RedisAddr == "" {
		errs = append(errs, fmt.Errorf("storage.redis_addr is required for the redis backend"))
	}

	if c.Balance.StaleTime < 0 {
		errs = append(errs, fmt.Errorf("balance.stale_time must not be negative"))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}

	if c.MockBank.LockoutThreshold < 1 {
		errs = append(errs, fmt.Errorf("mockbank.lockout_threshold must be at least 1"))
	}
	if c.MockBank.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("mockbank.session_ttl must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsureRoot creates the state directory tree if it does not exist.
func (c *Config) EnsureRoot() error {
	if c.Root == "" {
		return nil
	}
	if err := os.MkdirAll(c.Root, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", c.Root, err)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
