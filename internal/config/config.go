// Package config holds the server configuration. Values come from defaults,
// then an optional config file, then STEPWISE_* environment variables, in
// that order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete server configuration.
type Config struct {
	// DataDir is where the conversation database lives. Empty means
	// ~/.stepwise.
	DataDir string `mapstructure:"data_dir"`

	// Domains filters which built-in workflows are loaded. Empty means
	// the code domain only.
	Domains []string `mapstructure:"domains"`

	// ProjectPath pins the server to one project, overriding per-call
	// detection from the client's working directory.
	ProjectPath string `mapstructure:"project_path"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig controls diagnostic output on stderr.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// JSON switches the handler from text to JSON lines.
	JSON bool `mapstructure:"json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:     "",
		Domains:     []string{"code"},
		ProjectPath: "",
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()
	viper.SetDefault("data_dir", defaults.DataDir)
	viper.SetDefault("domains", defaults.Domains)
	viper.SetDefault("project_path", defaults.ProjectPath)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.json", defaults.Log.JSON)
}

// Init wires viper: defaults, the optional config file, and the STEPWISE_*
// environment. A missing config file is not an error.
func Init() error {
	SetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(ConfigDir())

	viper.SetEnvPrefix("STEPWISE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	return nil
}

// Load reads the current viper state into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ResolveDataDir returns the directory for user-level state, creating no
// directories. Empty DataDir means ~/.stepwise; a leading ~ expands to the
// home directory.
func (c *Config) ResolveDataDir() string {
	path := c.DataDir
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ".stepwise"
		}
		return filepath.Join(home, ".stepwise")
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return path
}

// DatabasePath returns the SQLite file holding conversation state.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.ResolveDataDir(), "state.db")
}

// ResolveDomains returns the effective domain filter.
func (c *Config) ResolveDomains() []string {
	if len(c.Domains) == 0 {
		return []string{"code"}
	}
	return c.Domains
}

// ConfigDir returns the user config directory, honoring XDG_CONFIG_HOME.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "stepwise")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stepwise"
	}
	return filepath.Join(home, ".config", "stepwise")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
