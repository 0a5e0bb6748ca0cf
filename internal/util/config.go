// Package util provides common utilities for pcapview.
package util

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	DataDir       string `mapstructure:"data_dir"`
	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`

	// Analysis service
	ServiceURL     string        `mapstructure:"service_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// History presentation
	PageSize       int `mapstructure:"page_size"`
	MaxPageButtons int `mapstructure:"max_page_buttons"`

	// Web server
	WebPort     int      `mapstructure:"web_port"`
	CORSOrigins []string `mapstructure:"cors_origins"`

	// Optional offline enrichment of external hosts
	GeoIPCityDB string `mapstructure:"geoip_city_db"`
	GeoIPASNDB  string `mapstructure:"geoip_asn_db"`

	JournalEnabled bool `mapstructure:"journal_enabled"`

	// JournalRetention is how long journal entries are kept by the web
	// server's pruning loop. Zero keeps them forever.
	JournalRetention time.Duration `mapstructure:"journal_retention"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".pcapview")

	return &Config{
		DataDir:       dataDir,
		LogLevel:      "info",
		LogFile:       filepath.Join(dataDir, "pcapview.log"),
		LogMaxSizeMB:  20,
		LogMaxBackups: 3,

		ServiceURL:     "http://localhost:8000",
		RequestTimeout: 10 * time.Minute,

		PageSize:       10,
		MaxPageButtons: 5,

		WebPort:     8080,
		CORSOrigins: []string{"*"},

		JournalEnabled:   true,
		JournalRetention: 30 * 24 * time.Hour,
	}
}

// LoadConfig loads configuration from file and environment.
// An empty cfgFile searches the data dir and the working directory.
func LoadConfig(cfgFile string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(cfg.DataDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PCAPVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults in viper
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("log_max_size_mb", cfg.LogMaxSizeMB)
	v.SetDefault("log_max_backups", cfg.LogMaxBackups)
	v.SetDefault("service_url", cfg.ServiceURL)
	v.SetDefault("request_timeout", cfg.RequestTimeout)
	v.SetDefault("page_size", cfg.PageSize)
	v.SetDefault("max_page_buttons", cfg.MaxPageButtons)
	v.SetDefault("web_port", cfg.WebPort)
	v.SetDefault("cors_origins", cfg.CORSOrigins)
	v.SetDefault("geoip_city_db", "")
	v.SetDefault("geoip_asn_db", "")
	v.SetDefault("journal_enabled", cfg.JournalEnabled)
	v.SetDefault("journal_retention", cfg.JournalRetention)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise break paging or transport.
func (c *Config) Validate() error {
	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.MaxPageButtons < 1 {
		return fmt.Errorf("max_page_buttons must be positive, got %d", c.MaxPageButtons)
	}
	if c.JournalRetention < 0 {
		return fmt.Errorf("journal_retention must not be negative, got %s", c.JournalRetention)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	u, err := url.Parse(c.ServiceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("service_url %q is not an absolute URL", c.ServiceURL)
	}
	return nil
}

// JournalPath returns the location of the local upload journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, "journal.db")
}

// EnsureDir ensures a directory exists.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
