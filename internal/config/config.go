// Package config loads tabql settings from a YAML file and TABQL_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all tabql settings.
type Config struct {
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	REPL    REPLConfig    `mapstructure:"repl" yaml:"repl"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Plot    PlotConfig    `mapstructure:"plot" yaml:"plot"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

type REPLConfig struct {
	Prompt      string `mapstructure:"prompt" yaml:"prompt"`
	HistoryFile string `mapstructure:"history_file" yaml:"history_file"`
}

// DisplayConfig controls how result tables are printed. MaxRows of 0 prints
// every row.
type DisplayConfig struct {
	MaxRows int `mapstructure:"max_rows" yaml:"max_rows"`
}

// PlotConfig sizes the text charts.
type PlotConfig struct {
	Bins   int `mapstructure:"bins" yaml:"bins"`
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
		REPL: REPLConfig{
			Prompt:      "tabql> ",
			HistoryFile: defaultHistoryFile(),
		},
		Display: DisplayConfig{MaxRows: 50},
		Plot:    PlotConfig{Bins: 10, Width: 60, Height: 15},
	}
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tabql_history")
}

// Load reads configuration. An explicit path must exist; otherwise tabql.yaml
// is searched in the working directory and $HOME/.tabql, and defaults apply
// when none is found.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := Default()
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.output", cfg.Log.Output)
	v.SetDefault("repl.prompt", cfg.REPL.Prompt)
	v.SetDefault("repl.history_file", cfg.REPL.HistoryFile)
	v.SetDefault("display.max_rows", cfg.Display.MaxRows)
	v.SetDefault("plot.bins", cfg.Plot.Bins)
	v.SetDefault("plot.width", cfg.Plot.Width)
	v.SetDefault("plot.height", cfg.Plot.Height)

	v.SetEnvPrefix("TABQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("tabql")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.tabql")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that configuration values are sensible.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (want text or json)", c.Log.Format)
	}
	if c.Display.MaxRows < 0 {
		return fmt.Errorf("display.max_rows must not be negative, got %d", c.Display.MaxRows)
	}
	if c.Plot.Bins < 1 {
		return fmt.Errorf("plot.bins must be positive, got %d", c.Plot.Bins)
	}
	if c.Plot.Width < 10 || c.Plot.Height < 5 {
		return fmt.Errorf("plot area %dx%d is too small (minimum 10x5)", c.Plot.Width, c.Plot.Height)
	}
	return nil
}

// WriteDefault writes the default settings as YAML to path. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	cfg := Default()
	cfg.REPL.HistoryFile = "~/.tabql_history"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	header := []byte("# tabql configuration\n# log.level: debug, info, warn, error\n")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	return os.WriteFile(path, append(header, data...), 0644)
}
