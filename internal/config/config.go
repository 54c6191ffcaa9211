package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const fileName = "tasklock.yml"

// Config models tasklock.yml.
type Config struct {
	Storage struct {
		Group string `yaml:"group"`
		Key   string `yaml:"key"`
	} `yaml:"storage"`
	Display struct {
		ShowInfoBox bool   `yaml:"show_info_box"`
		TimeZone    string `yaml:"time_zone"`
	} `yaml:"display"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
}

// Default returns the settings used when no tasklock.yml exists.
func Default() *Config {
	var cfg Config
	cfg.Storage.Group = "tasklock"
	cfg.Storage.Key = "allTasksJson"
	cfg.Display.ShowInfoBox = true
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	cfg.Server.Addr = "127.0.0.1:8080"
	cfg.Server.BasePath = "/v0"
	return &cfg
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.Group) == "" {
		return fmt.Errorf("config.storage.group is required")
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("config.storage.key is required")
	}
	if c.Display.TimeZone != "" {
		if _, err := time.LoadLocation(c.Display.TimeZone); err != nil {
			return fmt.Errorf("config.display.time_zone %q is invalid: %w", c.Display.TimeZone, err)
		}
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("config.log.format must be console or json")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("config.log.level %q is not a known level", c.Log.Level)
	}
	return nil
}

// Location is the zone used to read and write completed-list timestamps.
func (c *Config) Location() *time.Location {
	if c.Display.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Display.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, fileName)
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create it with tasklock init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the defaults if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses raw YAML over the defaults and validates the result.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GenerateDefault returns the default config as YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// WriteDefault creates tasklock.yml unless it already exists.
func WriteDefault(workspace string, force bool) (string, error) {
	path := Path(workspace)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config %s already exists; use --force to overwrite", path)
		}
	}
	if err := os.WriteFile(path, []byte(defaultTemplate), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

const defaultTemplate = `storage:
  group: tasklock
  key: allTasksJson

display:
  # print the one-line current task box in "tasklock status"
  show_info_box: true
  # IANA zone for completed-task timestamps; empty uses the system zone
  time_zone: ""

log:
  level: info
  format: console

server:
  addr: 127.0.0.1:8080
  base_path: /v0
`
