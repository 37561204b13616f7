package generation

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/JaimeStill/qrgen/pkg/formatting"
)

// Config describes how to reach the generation service.
type Config struct {
	BaseURL         string `toml:"base_url"`
	UploadPath      string `toml:"upload_path"`
	FieldName       string `toml:"field_name"`
	Timeout         string `toml:"timeout"`
	MaxFileSize     string `toml:"max_file_size"`
	MaxResponseSize string `toml:"max_response_size"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL         string
	UploadPath      string
	FieldName       string
	Timeout         string
	MaxFileSize     string
	MaxResponseSize string
}

// Endpoint returns the absolute upload URL.
func (c *Config) Endpoint() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(c.UploadPath, "/")
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// MaxFileSizeBytes returns the largest CSV the client will submit.
func (c *Config) MaxFileSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxFileSize)
	if err != nil {
		return 10 * 1024 * 1024
	}
	return size
}

// MaxResponseSizeBytes returns the largest PDF body the client will buffer.
func (c *Config) MaxResponseSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxResponseSize)
	if err != nil {
		return 100 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.UploadPath != "" {
		c.UploadPath = overlay.UploadPath
	}
	if overlay.FieldName != "" {
		c.FieldName = overlay.FieldName
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxFileSize != "" {
		c.MaxFileSize = overlay.MaxFileSize
	}
	if overlay.MaxResponseSize != "" {
		c.MaxResponseSize = overlay.MaxResponseSize
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://127.0.0.1:5000"
	}
	if c.UploadPath == "" {
		c.UploadPath = "/upload"
	}
	if c.FieldName == "" {
		c.FieldName = "csv"
	}
	if c.Timeout == "" {
		c.Timeout = "2m"
	}
	if c.MaxFileSize == "" {
		c.MaxFileSize = "10MB"
	}
	if c.MaxResponseSize == "" {
		c.MaxResponseSize = "100MB"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, field *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}

	set(env.BaseURL, &c.BaseURL)
	set(env.UploadPath, &c.UploadPath)
	set(env.FieldName, &c.FieldName)
	set(env.Timeout, &c.Timeout)
	set(env.MaxFileSize, &c.MaxFileSize)
	set(env.MaxResponseSize, &c.MaxResponseSize)
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base_url scheme: %q", u.Scheme)
	}
	if c.FieldName == "" {
		return fmt.Errorf("field_name required")
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := formatting.ParseBytes(c.MaxFileSize); err != nil {
		return fmt.Errorf("invalid max_file_size: %w", err)
	}
	if _, err := formatting.ParseBytes(c.MaxResponseSize); err != nil {
		return fmt.Errorf("invalid max_response_size: %w", err)
	}
	return nil
}
