// Package config loads the explicit configuration handed to orm.Open and the
// logger. Nothing here is process-wide: callers pass the returned Config on.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jankuo/personmap/orm"
)

// Defaults match the in-memory database the examples provision for every run.
const (
	DefaultDriver   = orm.DriverSQLite
	DefaultURL      = "file:aname?mode=memory&cache=shared"
	DefaultUser     = "sa"
	DefaultLogLevel = "info"
	DefaultLogFmt   = "console"
)

// Config is the complete configuration of a personmap run.
type Config struct {
	Database orm.ConnConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	// Script is an optional path to the bootstrap script. The embedded
	// script is used when empty.
	Script string `toml:"script"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `toml:"level"`  // trace, debug, info, warn, error
	Format string `toml:"format"` // console or json
}

// Default returns the configuration for a private in-memory SQLite database
// with the sa user and an empty password.
func Default() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads a TOML configuration file. A .env file next to it (or in the
// working directory) is loaded first, so values may reference environment
// variables as ${VAR}, $VAR or env("VAR"). An empty path yields Default
// with environment expansion applied.
func Load(path string) (Config, error) {
	loadDotEnv(path)

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.expandEnvVars()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills zero-valued fields. The password stays empty.
func (c *Config) ApplyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDriver
	}
	if c.Database.URL == "" && c.Database.Driver == orm.DriverSQLite {
		c.Database.URL = DefaultURL
	}
	if c.Database.User == "" && c.Database.Driver == orm.DriverSQLite {
		c.Database.User = DefaultUser
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFmt
	}
}

// Validate reports the first problem found in c.
func (c *Config) Validate() error {
	if _, err := orm.DialectFor(c.Database.Driver); err != nil {
		return err //nolint:wrapcheck // already descriptive
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required for driver %q", c.Database.Driver)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

func loadDotEnv(configPath string) {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append([]string{filepath.Join(filepath.Dir(configPath), ".env")}, candidates...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			// Variables already set in the environment win.
			_ = godotenv.Load(p)
			return
		}
	}
}

func (c *Config) expandEnvVars() {
	c.Database.URL = expandString(c.Database.URL)
	c.Database.User = expandString(c.Database.User)
	c.Database.Password = expandString(c.Database.Password)
	c.Script = expandString(c.Script)
}

var envRef = regexp.MustCompile(`env\(\s*"([^"]+)"\s*\)|\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandString replaces env("VAR"), ${VAR} and $VAR with their values in a
// single pass; substituted values are not expanded again. A bare $VAR whose
// variable is unset is kept as written, so a literal $ in a password or URL
// survives.
func expandString(s string) string {
	if !strings.Contains(s, "$") && !strings.Contains(s, "env(") {
		return s
	}
	return envRef.ReplaceAllStringFunc(s, func(m string) string {
		sub := envRef.FindStringSubmatch(m)
		switch {
		case sub[1] != "":
			return os.Getenv(sub[1])
		case sub[2] != "":
			return os.Getenv(sub[2])
		}
		if v, ok := os.LookupEnv(sub[3]); ok {
			return v
		}
		return m
	})
}
