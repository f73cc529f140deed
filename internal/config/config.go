// Package config provides configuration parsing and validation for saltbox.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete saltbox configuration: CLI defaults plus the
// settings needed to run `saltbox serve`.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Keyring KeyringConfig `yaml:"keyring"`
	Default DefaultConfig `yaml:"default"`
	Service ServiceConfig `yaml:"service"`
}

// LogConfig controls the structured logger (internal/logging).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// KeyringConfig locates the on-disk keyring (internal/keyring).
type KeyringConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig holds default message-encoding settings. `saltbox serve`
// uses ChunkSize for /v1/encrypt requests that omit chunk_size; the
// encrypt command takes its defaults from its own flags and does not read
// the configuration file.
type DefaultConfig struct {
	ChunkSize    int  `yaml:"chunk_size"`
	MajorVersion int  `yaml:"major_version"`
	Armor        bool `yaml:"armor"`
}

// ServiceConfig controls `saltbox serve`.
type ServiceConfig struct {
	Address        string        `yaml:"address"`
	MetricsAddress string        `yaml:"metrics_address"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

// Default returns the configuration saltbox runs with when no config file
// is supplied.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Keyring: KeyringConfig{
			Dir: "./keys",
		},
		Default: DefaultConfig{
			ChunkSize:    1 << 20, // 1 MiB
			MajorVersion: 2,
			Armor:        false,
		},
		Service: ServiceConfig{
			Address:        ":8443",
			MetricsAddress: ":9090",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			MaxBodyBytes:   64 * 1024 * 1024, // 64 MiB
		},
	}
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes, starting from Default and
// overlaying whatever the document sets.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envVarRegex matches ${VAR} or $VAR patterns.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars replaces environment variable references with their values.
// An unset variable expands to the empty string.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		var name string
		if strings.HasPrefix(match, "${") {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}
		return os.Getenv(name)
	})
}

// Validate checks the configuration for internally inconsistent or
// out-of-range values.
func (c *Config) Validate() error {
	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level: invalid value %q", c.Log.Level)
	}
	if !isValidLogFormat(c.Log.Format) {
		return fmt.Errorf("log.format: invalid value %q", c.Log.Format)
	}
	if c.Keyring.Dir == "" {
		return fmt.Errorf("keyring.dir: must not be empty")
	}
	if c.Default.ChunkSize <= 0 {
		return fmt.Errorf("default.chunk_size: must be > 0, got %d", c.Default.ChunkSize)
	}
	if c.Default.MajorVersion != 1 && c.Default.MajorVersion != 2 {
		return fmt.Errorf("default.major_version: must be 1 or 2, got %d", c.Default.MajorVersion)
	}
	if c.Service.Address == "" {
		return fmt.Errorf("service.address: must not be empty")
	}
	if c.Service.MaxBodyBytes <= 0 {
		return fmt.Errorf("service.max_body_bytes: must be > 0, got %d", c.Service.MaxBodyBytes)
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

func isValidLogFormat(format string) bool {
	switch strings.ToLower(format) {
	case "text", "json":
		return true
	}
	return false
}
