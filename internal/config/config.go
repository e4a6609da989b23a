// Package config loads and validates termweave configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SSHProfile describes a remote connection target.
type SSHProfile struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port,omitempty"`

	Username      string `yaml:"username,omitempty"`
	Password      string `yaml:"password,omitempty"`
	KeyPath       string `yaml:"key_path,omitempty"`
	KeyPassphrase string `yaml:"key_passphrase,omitempty"`

	KnownHostsPath    string `yaml:"known_hosts,omitempty"`
	InsecureIgnoreKey bool   `yaml:"insecure_ignore_host_key,omitempty"`

	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

// Config is the top-level termweave configuration.
type Config struct {
	Cols          int `yaml:"cols,omitempty"`
	Rows          int `yaml:"rows,omitempty"`
	MaxScrollback int `yaml:"max_scrollback,omitempty"`

	Term  string            `yaml:"term,omitempty"`
	Shell string            `yaml:"shell,omitempty"`
	Env   map[string]string `yaml:"env,omitempty"`

	LogFile  string `yaml:"log_file,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`

	SSH *SSHProfile `yaml:"ssh,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Cols:          80,
		Rows:          24,
		MaxScrollback: 10000,
		Term:          "xterm-256color",
		LogLevel:      "info",
	}
}

// Load reads a YAML config file and fills unset fields from Default.
// A missing file is not an error; it yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Cols <= 0 {
		c.Cols = 80
	}
	if c.Rows <= 0 {
		c.Rows = 24
	}
	if c.MaxScrollback < 0 {
		c.MaxScrollback = 0
	}
	if c.Term == "" {
		c.Term = "xterm-256color"
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.SSH != nil {
		if c.SSH.Host == "" {
			return fmt.Errorf("ssh profile missing host")
		}
		if c.SSH.Port < 0 || c.SSH.Port > 65535 {
			return fmt.Errorf("ssh port %d out of range", c.SSH.Port)
		}
	}
	return nil
}

// SSHTimeout converts the profile's timeout to a duration, with a default.
func (p *SSHProfile) SSHTimeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Save writes the configuration back to the given path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
