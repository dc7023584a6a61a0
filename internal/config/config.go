// Package config loads the tilecity TOML configuration over built-in defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Simulation SimulationConfig `toml:"simulation"`
	Grid       GridConfig       `toml:"grid"`
	Zones      ZonesConfig      `toml:"zones"`
	Database   DatabaseConfig   `toml:"database"`
	API        APIConfig        `toml:"api"`
	Logging    LoggingConfig    `toml:"logging"`
}

type SimulationConfig struct {
	Seed               int64    `toml:"seed"` // 0 = random
	CollisionAvoidance bool     `toml:"collision_avoidance"`
	RepathAfter        int      `toml:"repath_after"` // blocked ticks before re-routing
	TickInterval       Duration `toml:"tick_interval"`
	Speed              float64  `toml:"speed"`
	AutoStart          bool     `toml:"auto_start"` // generate population at boot
}

type GridConfig struct {
	Cols             int      `toml:"cols"`
	Rows             int      `toml:"rows"`
	SaveDir          string   `toml:"save_dir"`
	AutosaveInterval Duration `toml:"autosave_interval"`
	Generate         bool     `toml:"generate"` // build a city when no save exists
	BlockSize        int      `toml:"block_size"`
	Vacancy          float64  `toml:"vacancy"`
}

type ZonesConfig struct {
	RulesFile string `toml:"rules_file"` // YAML dwell table; empty = defaults
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type APIConfig struct {
	Port           int      `toml:"port"`
	AdminKey       string   `toml:"admin_key"`
	StreamInterval Duration `toml:"stream_interval"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "text"
}

// Duration decodes TOML strings such as "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
// TILECITY_ADMIN_KEY overrides the configured admin key.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		slog.Warn("config file not found, using defaults", "path", path)
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if key := os.Getenv("TILECITY_ADMIN_KEY"); key != "" {
		cfg.API.AdminKey = key
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Grid.Cols <= 0 || c.Grid.Rows <= 0 {
		return fmt.Errorf("grid size %dx%d must be positive", c.Grid.Cols, c.Grid.Rows)
	}
	if c.Simulation.RepathAfter < 0 {
		return fmt.Errorf("repath_after must not be negative")
	}
	if c.Simulation.Speed < 0 {
		return fmt.Errorf("speed must not be negative")
	}
	if c.Simulation.TickInterval.Duration <= 0 {
		return fmt.Errorf("tick_interval must be positive")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("logging format %q must be json or text", c.Logging.Format)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level.
func (l LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger builds the process logger from the logging section.
func (l LoggingConfig) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Seed:               0,
			CollisionAvoidance: false,
			RepathAfter:        30,
			TickInterval:       Duration{time.Second / 120},
			Speed:              1.0,
			AutoStart:          true,
		},
		Grid: GridConfig{
			Cols:             100,
			Rows:             100,
			SaveDir:          "saves",
			AutosaveInterval: Duration{30 * time.Second},
			Generate:         true,
			BlockSize:        4,
			Vacancy:          0.1,
		},
		Database: DatabaseConfig{
			Path: "data/tilecity.db",
		},
		API: APIConfig{
			Port:           8080,
			StreamInterval: Duration{250 * time.Millisecond},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
