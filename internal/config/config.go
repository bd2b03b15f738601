package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	S3        S3Config  `yaml:"s3"`
	P4        P4Config  `yaml:"p4"`
	Migration Migration `yaml:"migration"`
	LogLevel  string    `yaml:"log_level"`
	LogFile   string    `yaml:"log_file"`
}

// S3Config represents the destination S3-compatible storage configuration
type S3Config struct {
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	SessionToken string `yaml:"session_token"`
	Secure       bool   `yaml:"secure"`
}

// P4Config represents the Perforce server connection settings
type P4Config struct {
	Port   string `yaml:"port"`
	User   string `yaml:"user"`
	Passwd string `yaml:"passwd"`
}

// Migration represents migration-specific configuration
type Migration struct {
	LocalFolder       string `yaml:"local_folder"`
	Bucket            string `yaml:"bucket"`
	Prefix            string `yaml:"prefix"`
	IncludeRootFolder bool   `yaml:"include_root_folder"`
	Concurrency       int    `yaml:"concurrency"`
	Retries           int    `yaml:"retries"`
	RetryBackoffMs    int    `yaml:"retry_backoff_ms"`
	DryRun            bool   `yaml:"dry_run"`
	MetricsAddr       string `yaml:"metrics_addr"`
}

// Load loads configuration from file and command line flags
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	cfg := &Config{
		LogLevel: "info",
		LogFile:  "s3_migration.log",
		S3:       S3Config{Secure: true},
		Migration: Migration{
			Concurrency:    4,
			Retries:        3,
			RetryBackoffMs: 2000,
		},
	}

	// Load from YAML file if provided
	if configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with command line flags
	loadFromFlags(cfg, flags)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func loadFromFlags(cfg *Config, flags *pflag.FlagSet) {
	if flags.Changed("endpoint") {
		cfg.S3.Endpoint, _ = flags.GetString("endpoint")
	}
	if flags.Changed("region") {
		cfg.S3.Region, _ = flags.GetString("region")
	}
	if flags.Changed("access-key") {
		cfg.S3.AccessKey, _ = flags.GetString("access-key")
	}
	if flags.Changed("secret-key") {
		cfg.S3.SecretKey, _ = flags.GetString("secret-key")
	}
	if flags.Changed("token") {
		cfg.S3.SessionToken, _ = flags.GetString("token")
	}
	if flags.Changed("secure") {
		cfg.S3.Secure, _ = flags.GetBool("secure")
	}

	if flags.Changed("local-folder") {
		cfg.Migration.LocalFolder, _ = flags.GetString("local-folder")
	}
	if flags.Changed("bucket") {
		cfg.Migration.Bucket, _ = flags.GetString("bucket")
	}
	if flags.Changed("prefix") {
		cfg.Migration.Prefix, _ = flags.GetString("prefix")
	}
	if flags.Changed("include-root-folder") {
		cfg.Migration.IncludeRootFolder, _ = flags.GetBool("include-root-folder")
	}
	if flags.Changed("concurrency") {
		cfg.Migration.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("retries") {
		cfg.Migration.Retries, _ = flags.GetInt("retries")
	}
	if flags.Changed("retry-backoff-ms") {
		cfg.Migration.RetryBackoffMs, _ = flags.GetInt("retry-backoff-ms")
	}
	if flags.Changed("dry-run") {
		cfg.Migration.DryRun, _ = flags.GetBool("dry-run")
	}
	if flags.Changed("metrics-addr") {
		cfg.Migration.MetricsAddr, _ = flags.GetString("metrics-addr")
	}

	if flags.Changed("p4port") {
		cfg.P4.Port, _ = flags.GetString("p4port")
	}
	if flags.Changed("p4user") {
		cfg.P4.User, _ = flags.GetString("p4user")
	}
	if flags.Changed("p4passwd") {
		cfg.P4.Passwd, _ = flags.GetString("p4passwd")
	}

	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
}

func (c *Config) validate() error {
	if c.Migration.LocalFolder == "" {
		return fmt.Errorf("local folder is required")
	}
	if c.Migration.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if c.S3.AccessKey == "" {
		return fmt.Errorf("access key is required")
	}
	if c.S3.SecretKey == "" {
		return fmt.Errorf("secret key is required")
	}
	if c.S3.Endpoint == "" && c.S3.Region == "" {
		return fmt.Errorf("either an endpoint or an AWS region is required")
	}

	if c.Migration.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.Migration.Retries < 0 {
		return fmt.Errorf("retries must not be negative")
	}
	if c.Migration.RetryBackoffMs <= 0 {
		return fmt.Errorf("retry backoff must be positive")
	}

	return nil
}
