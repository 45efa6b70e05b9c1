package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL         = "http://localhost:8000"
	DefaultRequestTimeout = 15 * time.Second
	DefaultShowRoleNotice = true
	DefaultLogLevel       = "info"

	dataDirName       = ".portal-login"
	defaultSessionDB  = "session.db"
	defaultConfigFile = "config.yaml"
)

// Config holds the client settings
type Config struct {
	APIURL         string        `yaml:"api_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// SessionDB is the sqlite file the session is persisted in. Empty means
	// ~/.portal-login/session.db.
	SessionDB      string `yaml:"session_db"`
	ShowRoleNotice bool   `yaml:"show_role_notice"`
	LogLevel       string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		RequestTimeout: DefaultRequestTimeout,
		ShowRoleNotice: DefaultShowRoleNotice,
		LogLevel:       DefaultLogLevel,
	}
}

// DataDir returns the per-user directory the client keeps its files in,
// creating it if needed.
func DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	dir := filepath.Join(homeDir, dataDirName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return dir, nil
}

// DefaultConfigPath is the config file looked up when none is given.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, dataDirName, defaultConfigFile)
}

// Load builds the configuration from defaults, the YAML file at path (if it
// exists), a .env file in the working directory and finally the process
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	// A missing .env is the normal case.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("API_URL"); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := os.LookupEnv("REQUEST_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", v, err)
		}
		c.RequestTimeout = d
	}
	if v, ok := os.LookupEnv("SESSION_DB"); ok && v != "" {
		c.SessionDB = v
	}
	if v, ok := os.LookupEnv("SHOW_ROLE_NOTICE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SHOW_ROLE_NOTICE %q: %w", v, err)
		}
		c.ShowRoleNotice = b
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks the settings that would otherwise fail only at login time.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api_url %q: %w", c.APIURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("api_url %q must be an absolute URL", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// SessionDBPath resolves where the session database lives.
func (c *Config) SessionDBPath() (string, error) {
	if c.SessionDB != "" {
		return c.SessionDB, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, defaultSessionDB), nil
}
