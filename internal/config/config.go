// Copyright (c) 2024 Netskope, Inc. All rights reserved.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the location of the config file relative to the project directory.
const ConfigFileName = "input/config.yml"

const (
	defaultLogDir   = "/tmp"
	defaultLogName  = "gchat-groups"
	defaultDBPort   = 3306
	defaultDBName   = "gchat"
	defaultDBTable  = "gchat_groups"
	defaultS3Prefix = "gchat-groups"
	defaultTimeout  = 5
)

// Config holds all configuration for the group importer.
type Config struct {
	// Export root, absolute or relative to the working directory
	FolderLocation string `yaml:"folderLocation"`

	// Max extractions in flight; 0 means unbounded
	MaxParallelGroups int `yaml:"maxParallelGroups"`

	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	S3       S3Config       `yaml:"s3"`
}

// LogConfig controls where structured logs go.
type LogConfig struct {
	Dir    string `yaml:"dir"`
	Name   string `yaml:"name"`
	Stdout bool   `yaml:"stdout"`
	Debug  bool   `yaml:"debug"`
}

// DatabaseConfig describes the optional MySQL/MariaDB sink.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Table    string `yaml:"table"`
	Secret   string `yaml:"secret"` // AWS Secrets Manager secret name
	Region   string `yaml:"region"` // AWS region for Secrets Manager
	Timeout  int    `yaml:"timeout"`
}

// S3Config describes the optional S3 snapshot target.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
}

// Overrides carries values given on the command line.
type Overrides struct {
	MaxParallelGroups int
	LogStdout         bool
	Debug             bool
}

// Enabled reports whether the database sink is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// Enabled reports whether the S3 snapshot is configured.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// Address returns host:port for the database.
func (d DatabaseConfig) Address() string {
	if d.Port > 0 {
		return fmt.Sprintf("%s:%d", d.Host, d.Port)
	}
	return d.Host
}

// LoadConfig loads configuration from <projectDir>/input/config.yml, environment variables and CLI overrides.
// Priority: CLI overrides > environment variables > YAML file > defaults
func LoadConfig(projectDir string, ov Overrides) (*Config, error) {
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		projectDir = wd
	}

	cfg, err := loadFromYAML(filepath.Join(projectDir, ConfigFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	loadFromEnv(cfg)

	if ov.MaxParallelGroups > 0 {
		cfg.MaxParallelGroups = ov.MaxParallelGroups
	}
	if ov.LogStdout {
		cfg.Log.Stdout = true
	}
	if ov.Debug {
		cfg.Log.Debug = true
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromYAML parses a YAML file. A missing file is an error.
func loadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// loadFromEnv loads configuration from environment variables.
func loadFromEnv(cfg *Config) {
	if val := os.Getenv("GCHAT_FOLDER_LOCATION"); val != "" {
		cfg.FolderLocation = val
	}
	if val := os.Getenv("GCHAT_MAX_PARALLEL_GROUPS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.MaxParallelGroups = n
		}
	}
	if val := os.Getenv("GCHAT_LOG_DEBUG"); val != "" {
		cfg.Log.Debug = (val == "true" || val == "1")
	}
	if val := os.Getenv("GCHAT_DB_HOST"); val != "" {
		cfg.Database.Host = val
	}
	if val := os.Getenv("GCHAT_DB_USER"); val != "" {
		cfg.Database.User = val
	}
	if val := os.Getenv("GCHAT_DB_PASSWORD"); val != "" {
		cfg.Database.Password = val
	}
	if val := os.Getenv("GCHAT_S3_BUCKET"); val != "" {
		cfg.S3.Bucket = val
	}
	if val := os.Getenv("GCHAT_S3_REGION"); val != "" {
		cfg.S3.Region = val
	}
}

func (c *Config) setDefaults() {
	if c.MaxParallelGroups < 0 {
		c.MaxParallelGroups = 0
	}
	if c.Log.Dir == "" {
		c.Log.Dir = defaultLogDir
	}
	if c.Log.Name == "" {
		c.Log.Name = defaultLogName
	}
	if c.Database.Enabled() {
		if c.Database.Port == 0 {
			c.Database.Port = defaultDBPort
		}
		if c.Database.Name == "" {
			c.Database.Name = defaultDBName
		}
		if c.Database.Table == "" {
			c.Database.Table = defaultDBTable
		}
		if c.Database.Timeout == 0 {
			c.Database.Timeout = defaultTimeout
		}
	}
	if c.S3.Enabled() && c.S3.Prefix == "" {
		c.S3.Prefix = defaultS3Prefix
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.FolderLocation == "" {
		return fmt.Errorf("folderLocation is required")
	}
	if c.S3.Enabled() && c.S3.Region == "" {
		return fmt.Errorf("s3.region is required when s3.bucket is set")
	}
	if c.Database.Secret != "" && c.Database.Region == "" {
		return fmt.Errorf("database.region is required when database.secret is set")
	}
	return nil
}
