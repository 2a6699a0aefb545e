// Package config handles wmhtool configuration loading and management.
package config

import (
	"fmt"
	"time"
)

// Config holds all tool settings.
type Config struct {
	Export   ExportConfig   `yaml:"export"`
	Textures TexturesConfig `yaml:"textures"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ExportConfig holds the default export options.
type ExportConfig struct {
	IncludeNormals   bool `yaml:"include_normals"`
	IncludeTangents  bool `yaml:"include_tangents"`
	IncludeSkeleton  bool `yaml:"include_skeleton"`  // accepted, not supported
	IncludeAnimation bool `yaml:"include_animation"` // accepted, not supported
}

// TexturesConfig controls how image names are checked against disk.
type TexturesConfig struct {
	SearchPaths []string `yaml:"search_paths"`
	Archives    []string `yaml:"archives,omitempty"` // GRF archives searched for models and textures
	Require     bool     `yaml:"require"`            // fail the export when the image is missing
}

// StorageConfig holds output storage settings.
type StorageConfig struct {
	Timeout time.Duration `yaml:"timeout"` // upload timeout for object storage
	MinIO   MinIOConfig   `yaml:"minio"`
}

// MinIOConfig holds S3-compatible object storage settings, used for
// s3:// destinations.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"` // default bucket when the destination names none
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			IncludeNormals:   true,
			IncludeTangents:  false,
			IncludeSkeleton:  false,
			IncludeAnimation: false,
		},
		Textures: TexturesConfig{
			SearchPaths: []string{"."},
			Require:     false,
		},
		Storage: StorageConfig{
			Timeout: 30 * time.Second,
			MinIO: MinIOConfig{
				Region: "us-east-1",
				UseSSL: true,
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that cannot be fixed up silently.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	if c.Storage.Timeout < 0 {
		return fmt.Errorf("storage.timeout: must not be negative, got %s", c.Storage.Timeout)
	}
	return nil
}
