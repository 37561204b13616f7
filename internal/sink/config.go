package sink

import (
	"fmt"
	"os"
)

// Kinds of sink.
const (
	KindLocal = "local"
	KindAzure = "azure"
)

// Config selects where downloaded artifacts go.
type Config struct {
	Kind   string `toml:"sink"`
	Dir    string `toml:"dir"`
	Prefix string `toml:"prefix"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Kind   string
	Dir    string
	Prefix string
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
	if overlay.Kind != "" {
		c.Kind = overlay.Kind
	}
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
}

func (c *Config) loadDefaults() {
	if c.Kind == "" {
		c.Kind = KindLocal
	}
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.Prefix == "" {
		c.Prefix = "artifacts"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Kind != "" {
		if v := os.Getenv(env.Kind); v != "" {
			c.Kind = v
		}
	}
	if env.Dir != "" {
		if v := os.Getenv(env.Dir); v != "" {
			c.Dir = v
		}
	}
	if env.Prefix != "" {
		if v := os.Getenv(env.Prefix); v != "" {
			c.Prefix = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Kind {
	case KindLocal, KindAzure:
		return nil
	default:
		return fmt.Errorf("unknown sink: %q", c.Kind)
	}
}
