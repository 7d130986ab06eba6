package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lbdudc/mcp-fm-analyzer/internal/engine/flamapy"
	"github.com/lbdudc/mcp-fm-analyzer/internal/logger"
	"github.com/lbdudc/mcp-fm-analyzer/internal/tools"
)

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Verbose enables the informational channel; otherwise only warnings
	// and errors are written.
	Verbose bool `yaml:"verbose"`
}

type ToolsConfig struct {
	// Disabled holds glob patterns of tool names left out of the catalog.
	Disabled []string `yaml:"disabled"`
}

type Config struct {
	Log    LogConfig      `yaml:"log"`
	Engine flamapy.Config `yaml:"engine"`
	Tools  ToolsConfig    `yaml:"tools"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Engine: flamapy.DefaultConfig(),
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if _, ok := logger.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	if c.Engine.Python == "" {
		return errors.New("engine.python must not be empty")
	}
	if c.Engine.InitTimeout < 0 || c.Engine.ShutdownTimeout < 0 {
		return errors.New("engine timeouts must not be negative")
	}

	if err := tools.ValidatePatterns(c.Tools.Disabled); err != nil {
		return fmt.Errorf("tools.disabled: %w", err)
	}
	return nil
}

// Logger translates the log section into a logger configuration writing to
// stderr.
func (c *Config) Logger() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level, _ = logger.ParseLevel(c.Log.Level)
	cfg.Format = strings.ToLower(c.Log.Format)
	if c.Log.Verbose {
		cfg.InfoOutput = os.Stderr
	}
	return cfg
}
