// Package config loads qrgen configuration from a TOML base file, an optional
// environment overlay, and QRGEN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/qrgen/internal/generation"
	"github.com/JaimeStill/qrgen/internal/sink"
	"github.com/JaimeStill/qrgen/pkg/storage"
)

const (
	BaseConfigFile       = "qrgen.toml"
	OverlayConfigPattern = "qrgen.%s.toml"

	EnvQrgenEnv             = "QRGEN_ENV"
	EnvQrgenShutdownTimeout = "QRGEN_SHUTDOWN_TIMEOUT"
	EnvQrgenPreviewDir      = "QRGEN_PREVIEW_DIR"
	EnvQrgenVersion         = "QRGEN_VERSION"
)

var serviceEnv = &generation.Env{
	BaseURL:         "QRGEN_SERVICE_BASE_URL",
	UploadPath:      "QRGEN_SERVICE_UPLOAD_PATH",
	FieldName:       "QRGEN_SERVICE_FIELD_NAME",
	Timeout:         "QRGEN_SERVICE_TIMEOUT",
	MaxFileSize:     "QRGEN_SERVICE_MAX_FILE_SIZE",
	MaxResponseSize: "QRGEN_SERVICE_MAX_RESPONSE_SIZE",
}

var outputEnv = &sink.Env{
	Kind:   "QRGEN_OUTPUT_SINK",
	Dir:    "QRGEN_OUTPUT_DIR",
	Prefix: "QRGEN_OUTPUT_PREFIX",
}

var storageEnv = &storage.Env{
	ContainerName:    "QRGEN_STORAGE_CONTAINER_NAME",
	ConnectionString: "QRGEN_STORAGE_CONNECTION_STRING",
	ServiceURL:       "QRGEN_STORAGE_SERVICE_URL",
	MaxRetries:       "QRGEN_STORAGE_MAX_RETRIES",
}

// Config is the root configuration for qrgen.
type Config struct {
	Service         generation.Config `toml:"service"`
	Output          sink.Config       `toml:"output"`
	Storage         storage.Config    `toml:"storage"`
	PreviewDir      string            `toml:"preview_dir"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the QRGEN_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvQrgenEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config, applies any environment overlay found next to
// it, and finalizes all values. An empty path means qrgen.toml in the working
// directory, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	base := path
	if base == "" {
		base = BaseConfigFile
	}

	switch _, err := os.Stat(base); {
	case err == nil:
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case path != "" || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("stat config %s: %w", base, err)
	}

	if overlay := overlayPath(filepath.Dir(base)); overlay != "" {
		loaded, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(loaded)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.PreviewDir != "" {
		c.PreviewDir = overlay.PreviewDir
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Service.Merge(&overlay.Service)
	c.Output.Merge(&overlay.Output)
	c.Storage.Merge(&overlay.Storage)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Service.Finalize(serviceEnv); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	if err := c.Output.Finalize(outputEnv); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	// storage is only required when artifacts go to blob storage
	if c.Output.Kind == sink.KindAzure {
		if err := c.Storage.Finalize(storageEnv); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "10s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvQrgenShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvQrgenPreviewDir); v != "" {
		c.PreviewDir = v
	}
	if v := os.Getenv(EnvQrgenVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvQrgenEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
