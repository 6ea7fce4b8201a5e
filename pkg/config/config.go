package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override DSNs from the config file
const (
	EnvSourceDSN = "SOURCE_DSN"
	EnvTargetDSN = "TARGET_DSN"
)

// Config holds all configuration for the migration tool
type Config struct {
	// Legacy WordPress database
	Source SourceConfig `yaml:"source"`

	// Target plugin tables
	Target TargetConfig `yaml:"target"`

	// Migration behavior
	Migration MigrationConfig `yaml:"migration"`

	// Photo storage
	Media MediaConfig `yaml:"media"`

	// Field type detection for discovered fields
	FieldTypes FieldTypeConfig `yaml:"field_types"`

	// Concurrency configuration
	Concurrency ConcurrencyConfig `yaml:"concurrency"`

	// Checkpoint configuration
	Checkpoint CheckpointConfig `yaml:"checkpoint"`

	// Output configuration
	Output OutputConfig `yaml:"output"`
}

// SourceConfig holds the legacy WordPress database configuration
type SourceConfig struct {
	Driver      string `yaml:"driver"` // mysql, postgres, sqlite
	DSN         string `yaml:"dsn"`
	TablePrefix string `yaml:"table_prefix"`
	UploadsDir  string `yaml:"uploads_dir"`
	SiteURL     string `yaml:"site_url"` // empty: read the siteurl option
}

// TargetConfig holds the target database configuration
type TargetConfig struct {
	Driver      string `yaml:"driver"` // empty: same as source
	DSN         string `yaml:"dsn"`    // empty: same database as source
	TablePrefix string `yaml:"table_prefix"`
}

// MigrationConfig holds migration behavior configuration
type MigrationConfig struct {
	Plugin           string `yaml:"plugin"` // ultimate-member, buddypress
	FieldMappingFile string `yaml:"field_mapping_file"`
	Preset           string `yaml:"preset"`
	SendEmails       bool   `yaml:"send_emails"`
	SetVerified      bool   `yaml:"set_verified"`
	SkipExisting     bool   `yaml:"skip_existing"`
	BatchSize        int    `yaml:"batch_size"`
	BatchOffset      int    `yaml:"batch_offset"`
	CopyPhotos       bool   `yaml:"copy_photos"`
	Cursor           bool   `yaml:"cursor"` // page by last user ID instead of offset
	LoginPath        string `yaml:"login_path"`
}

// MediaConfig holds photo storage configuration
type MediaConfig struct {
	Backend string   `yaml:"backend"` // fs, s3
	Dir     string   `yaml:"dir"`
	S3      S3Config `yaml:"s3"`
}

// S3Config holds the S3 media backend configuration
type S3Config struct {
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`
}

// FieldTypeConfig holds field type detection configuration
type FieldTypeConfig struct {
	TypeOverrideFile       string              `yaml:"type_override_file"`
	Patterns               map[string][]string `yaml:"patterns"` // type -> key regexes
	DefaultType            string              `yaml:"default_type"`
	DisableBuiltinPatterns bool                `yaml:"disable_builtin_patterns"`
}

// ConcurrencyConfig holds concurrency configuration
type ConcurrencyConfig struct {
	Workers       int           `yaml:"workers"`
	RateLimit     int           `yaml:"rate_limit"` // users per second, 0 = unlimited
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
}

// CheckpointConfig holds checkpoint/resume configuration
type CheckpointConfig struct {
	File   string `yaml:"file"`
	Resume bool   `yaml:"resume"`
}

// OutputConfig holds output configuration
type OutputConfig struct {
	DryRun          bool   `yaml:"dry_run"`
	ReportFile      string `yaml:"report_file"`
	Format          string `yaml:"format"` // table, json
	Progress        bool   `yaml:"progress"`
	LogFile         string `yaml:"log_file"`
	LogLevel        string `yaml:"log_level"` // debug, info, warn, error
	SecurityLogFile string `yaml:"security_log_file"`
}

// NewDefaultConfig returns a Config with default values
func NewDefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Driver:      "mysql",
			TablePrefix: "wp_",
			UploadsDir:  "wp-content/uploads",
		},
		Target: TargetConfig{
			TablePrefix: "nbuf_",
		},
		Migration: MigrationConfig{
			SendEmails:   false,
			SetVerified:  true,
			SkipExisting: true,
			BatchSize:    50,
			BatchOffset:  0,
			CopyPhotos:   true,
			Cursor:       true,
			LoginPath:    "/wp-login.php",
		},
		Media: MediaConfig{
			Backend: "fs",
			Dir:     "media",
		},
		FieldTypes: FieldTypeConfig{
			DefaultType:            "text",
			DisableBuiltinPatterns: false,
		},
		Concurrency: ConcurrencyConfig{
			Workers:       1,
			RateLimit:     0,
			RetryAttempts: 0,
			RetryDelay:    time.Second,
		},
		Checkpoint: CheckpointConfig{
			File: ".profile-migrator-checkpoint.json",
		},
		Output: OutputConfig{
			Format:   "table",
			Progress: true,
			LogLevel: "info",
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := NewDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv fills DSNs from the environment when set
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvSourceDSN); v != "" {
		c.Source.DSN = v
	}
	if v := getenv(EnvTargetDSN); v != "" {
		c.Target.DSN = v
	}
}

// TargetDriver returns the target driver, defaulting to the source driver
func (c *Config) TargetDriver() string {
	if c.Target.Driver != "" {
		return c.Target.Driver
	}
	return c.Source.Driver
}

// SameDatabase reports whether source and target share one connection
func (c *Config) SameDatabase() bool {
	return c.Target.DSN == "" || (c.Target.DSN == c.Source.DSN && c.TargetDriver() == c.Source.Driver)
}
