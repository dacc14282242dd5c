// Package config provides configuration management for tasksync.
// It supports YAML configuration files, environment variables, and sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klauern/tasksync/internal/model"
	"github.com/klauern/tasksync/internal/sync"
	"github.com/klauern/tasksync/internal/util"
)

// Config represents the complete tasksync configuration.
type Config struct {
	// Merge configures default merge behavior
	Merge MergeConfig `yaml:"merge"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output"`

	// Logging configures the structured logger
	Logging LoggingConfig `yaml:"logging"`
}

// MergeConfig holds merge engine settings.
type MergeConfig struct {
	// DefaultStrategy is the conflict strategy used when none is given
	DefaultStrategy string `yaml:"default_strategy"`
	// EqualClockPolicy decides what happens when equal clocks carry different content
	// (escalate, prefer_local)
	EqualClockPolicy string `yaml:"equal_clock_policy"`
	// Platform is the identifier this machine uses in vector clocks
	Platform string `yaml:"platform,omitempty"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Format is the default output format (text, json, yaml)
	Format string `yaml:"format"`
	// Color controls color output (auto, always, never)
	Color string `yaml:"color"`
	// Verbose enables verbose output
	Verbose bool `yaml:"verbose"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is the minimum level (debug, info, warn, error)
	Level string `yaml:"level"`
	// JSON switches the handler to JSON output
	JSON bool `yaml:"json"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Merge: MergeConfig{
			DefaultStrategy:  string(sync.DefaultStrategy),
			EqualClockPolicy: string(sync.EqualClockEscalate),
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   "auto",
			Verbose: false,
		},
		Logging: LoggingConfig{
			Level: "warn",
			JSON:  false,
		},
	}
}

// configFileName is the name of the config file.
const configFileName = "config.yaml"

// FilePath returns the path to the config file.
func FilePath() string {
	return filepath.Join(util.TasksyncConfigPath(), configFileName)
}

// Exists reports whether the config file is present.
func Exists() bool {
	_, err := os.Stat(FilePath())
	return err == nil
}

// Load loads the configuration from file, merging with defaults.
// If the config file doesn't exist, returns default configuration.
func Load() (*Config, error) {
	return LoadOrDefault(FilePath())
}

// LoadOrDefault loads configuration from path, returning defaults with
// environment overrides when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadFromPath(path)
	if err != nil && os.IsNotExist(err) {
		cfg = Default()
		cfg.applyEnvironment()
		return cfg, nil
	}
	return cfg, err
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(util.ExpandPath(path))
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	return c.SaveToPath(FilePath())
}

// SaveToPath writes the configuration to a specific path.
func (c *Config) SaveToPath(path string) error {
	path = util.ExpandPath(path)

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern TASKSYNC_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	// Merge settings
	if v := os.Getenv("TASKSYNC_MERGE_STRATEGY"); v != "" {
		c.Merge.DefaultStrategy = v
	}
	if v := os.Getenv("TASKSYNC_MERGE_EQUAL_CLOCK_POLICY"); v != "" {
		c.Merge.EqualClockPolicy = v
	}
	if v := os.Getenv("TASKSYNC_PLATFORM"); v != "" {
		c.Merge.Platform = v
	}

	// Output settings
	if v := os.Getenv("TASKSYNC_OUTPUT_FORMAT"); v != "" {
		c.Output.Format = v
	}
	if v := os.Getenv("TASKSYNC_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("TASKSYNC_OUTPUT_VERBOSE"); v != "" {
		c.Output.Verbose = parseBool(v)
	}

	// Logging settings
	if v := os.Getenv("TASKSYNC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TASKSYNC_LOG_JSON"); v != "" {
		c.Logging.JSON = parseBool(v)
	}
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// GetStrategy returns the merge strategy from config. Unknown names fall back
// to the default strategy.
func (c *Config) GetStrategy() sync.Strategy {
	return sync.ParseStrategy(c.Merge.DefaultStrategy)
}

// GetEqualClockPolicy returns the equal-clock policy, falling back to escalate
// when the configured value is not recognized.
func (c *Config) GetEqualClockPolicy() sync.EqualClockPolicy {
	policy, err := sync.ParseEqualClockPolicy(c.Merge.EqualClockPolicy)
	if err != nil {
		return sync.EqualClockEscalate
	}
	return policy
}

// GetPlatform returns the configured platform identifier, or the host name
// when none is configured.
func (c *Config) GetPlatform() (model.Platform, error) {
	name := c.Merge.Platform
	if name == "" {
		host, err := os.Hostname()
		if err != nil {
			return "", fmt.Errorf("no platform configured and hostname unavailable: %w", err)
		}
		name = host
	}
	return model.ParsePlatform(name)
}
