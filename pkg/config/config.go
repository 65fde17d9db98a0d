// Package config loads nlogo settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agenthands/nlogo/pkg/logger"
	"github.com/agenthands/nlogo/pkg/turtle"
	"github.com/agenthands/nlogo/pkg/vm"
)

// Config is the full settings tree. Keys missing from the file keep their
// defaults.
type Config struct {
	Canvas CanvasConfig `yaml:"canvas"`
	Turtle TurtleConfig `yaml:"turtle"`
	Run    RunConfig    `yaml:"run"`
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

type CanvasConfig struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Background string  `yaml:"background"`
	ShowCursor bool    `yaml:"show_cursor"`
}

type TurtleConfig struct {
	Color    string  `yaml:"color"`
	PenWidth float64 `yaml:"pen_width"`
}

type RunConfig struct {
	StepDelay time.Duration `yaml:"step_delay"`
	MaxDepth  int           `yaml:"max_depth"`
}

type StoreConfig struct {
	Path          string        `yaml:"path"`
	Retention     time.Duration `yaml:"retention"`
	PurgeInterval time.Duration `yaml:"purge_interval"`
}

type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	CacheEntries  int           `yaml:"cache_entries"`
	MaxBodyBytes  int           `yaml:"max_body_bytes"`
	RenderTimeout time.Duration `yaml:"render_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Color bool   `yaml:"color"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	opts := turtle.DefaultOptions()
	return &Config{
		Canvas: CanvasConfig{
			Width:      opts.Width,
			Height:     opts.Height,
			Background: opts.Background,
			ShowCursor: opts.ShowCursor,
		},
		Turtle: TurtleConfig{
			Color:    opts.Color,
			PenWidth: opts.PenWidth,
		},
		Run: RunConfig{
			StepDelay: vm.DefaultStepDelay,
			MaxDepth:  vm.DefaultMaxDepth,
		},
		Store: StoreConfig{
			Path:          "nlogo.db",
			Retention:     7 * 24 * time.Hour,
			PurgeInterval: time.Hour,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			CacheEntries:  128,
			MaxBodyBytes:  1 << 20,
			RenderTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
			Color: true,
		},
	}
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	if err := cfg.decode(file); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads settings from r over the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports every out-of-range setting at once.
func (c *Config) Validate() error {
	var issues []string
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		issues = append(issues, fmt.Sprintf("canvas size must be positive, got %gx%g", c.Canvas.Width, c.Canvas.Height))
	}
	if c.Turtle.Color == "" {
		issues = append(issues, "turtle.color must not be empty")
	}
	if c.Turtle.PenWidth <= 0 {
		issues = append(issues, fmt.Sprintf("turtle.pen_width must be positive, got %g", c.Turtle.PenWidth))
	}
	if c.Run.StepDelay < 0 {
		issues = append(issues, fmt.Sprintf("run.step_delay must not be negative, got %v", c.Run.StepDelay))
	}
	if c.Run.MaxDepth < 1 {
		issues = append(issues, fmt.Sprintf("run.max_depth must be at least 1, got %d", c.Run.MaxDepth))
	}
	if c.Store.Path == "" {
		issues = append(issues, "store.path must not be empty")
	}
	if c.Store.Retention < 0 {
		issues = append(issues, fmt.Sprintf("store.retention must not be negative, got %v", c.Store.Retention))
	}
	if c.Store.PurgeInterval <= 0 {
		issues = append(issues, fmt.Sprintf("store.purge_interval must be positive, got %v", c.Store.PurgeInterval))
	}
	if c.Server.CacheEntries < 0 {
		issues = append(issues, fmt.Sprintf("server.cache_entries must not be negative, got %d", c.Server.CacheEntries))
	}
	if c.Server.MaxBodyBytes <= 0 {
		issues = append(issues, fmt.Sprintf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes))
	}
	if c.Server.RenderTimeout <= 0 {
		issues = append(issues, fmt.Sprintf("server.render_timeout must be positive, got %v", c.Server.RenderTimeout))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		issues = append(issues, fmt.Sprintf("log.level: %v", err))
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// TurtleOptions converts the canvas and turtle sections.
func (c *Config) TurtleOptions() turtle.Options {
	return turtle.Options{
		Width:      c.Canvas.Width,
		Height:     c.Canvas.Height,
		Color:      c.Turtle.Color,
		PenWidth:   c.Turtle.PenWidth,
		Background: c.Canvas.Background,
		ShowCursor: c.Canvas.ShowCursor,
	}
}

// Pacer returns the step pacer for interactive runs.
func (c *Config) Pacer() vm.Pacer {
	if c.Run.StepDelay == 0 {
		return vm.NoDelay{}
	}
	return vm.NewTicker(c.Run.StepDelay)
}

// NewLogger builds the root logger for w.
func (c *Config) NewLogger(w io.Writer) *logger.Logger {
	level, _ := logger.ParseLevel(c.Log.Level)
	l := logger.New(w, level, "nlogo")
	l.SetColor(c.Log.Color)
	return l
}
