package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrInvalidEnv is returned when a WMH_* variable cannot be parsed.
var ErrInvalidEnv = errors.New("invalid environment variable")

// dotEnvFile is loaded from the working directory when present.
const dotEnvFile = ".env"

// loadDotEnv copies the variables of a .env file into the process
// environment. Variables already set are not overridden; a missing file is
// not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// applyEnv overrides config values from WMH_* environment variables.
// Unparsable values leave the config unchanged and are reported together.
func applyEnv(cfg *Config) error {
	var errs []error
	cfg.Logging.Level = getEnv("WMH_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.LogFile = getEnv("WMH_LOG_FILE", cfg.Logging.LogFile)

	if v := os.Getenv("WMH_TEXTURE_PATHS"); v != "" {
		cfg.Textures.SearchPaths = filepath.SplitList(v)
	}
	if v := os.Getenv("WMH_GRF_ARCHIVES"); v != "" {
		cfg.Textures.Archives = filepath.SplitList(v)
	}
	errs = append(errs, getEnvBool("WMH_TEXTURES_REQUIRE", &cfg.Textures.Require))

	errs = append(errs, getEnvDuration("WMH_STORAGE_TIMEOUT", &cfg.Storage.Timeout))

	m := &cfg.Storage.MinIO
	m.Endpoint = getEnv("WMH_MINIO_ENDPOINT", m.Endpoint)
	m.AccessKey = getEnv("WMH_MINIO_ACCESS_KEY", m.AccessKey)
	m.SecretKey = getEnv("WMH_MINIO_SECRET_KEY", m.SecretKey)
	m.Bucket = getEnv("WMH_MINIO_BUCKET", m.Bucket)
	m.Region = getEnv("WMH_MINIO_REGION", m.Region)
	errs = append(errs, getEnvBool("WMH_MINIO_USE_SSL", &m.UseSSL))

	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvBool sets *dst from key when the variable is set.
func getEnvBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q: want true or false", ErrInvalidEnv, key, v)
	}
	*dst = b
	return nil
}

// getEnvDuration sets *dst from key when the variable is set.
func getEnvDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q: want a duration like 30s", ErrInvalidEnv, key, v)
	}
	*dst = d
	return nil
}
