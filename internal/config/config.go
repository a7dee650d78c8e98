package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/algoviz/internal/algo"
	"github.com/san-kum/algoviz/internal/playback"
	"github.com/san-kum/algoviz/internal/race"
)

const (
	DefaultDataDir   = ".algoviz"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

type Config struct {
	Speed         int           `yaml:"speed" toml:"speed"`
	ArraySize     int           `yaml:"array_size" toml:"array_size"`
	Preset        string        `yaml:"preset" toml:"preset"`
	Algorithm     string        `yaml:"algorithm" toml:"algorithm"`
	Target        *int          `yaml:"target,omitempty" toml:"target,omitempty"`
	Seed          int64         `yaml:"seed" toml:"seed"`
	RaceStepDelay time.Duration `yaml:"race_step_delay" toml:"race_step_delay"`
	DataDir       string        `yaml:"data_dir" toml:"data_dir"`
	Log           LogConfig     `yaml:"log" toml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Speed:         algo.DefaultSpeed,
		ArraySize:     playback.DefaultArraySize,
		Preset:        string(playback.Random),
		Algorithm:     string(algo.BubbleSort),
		RaceStepDelay: race.DefaultStepDelay,
		DataDir:       DefaultDataDir,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads a YAML config, or TOML when path ends in .toml. Unset fields
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		return os.WriteFile(path, buf.Bytes(), 0644)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Validate clamps the speed and rejects values the engine cannot run with.
func (c *Config) Validate() error {
	c.Speed = algo.ClampSpeed(c.Speed)
	if c.ArraySize < playback.MinArraySize || c.ArraySize > playback.MaxArraySize {
		return algo.Invalid("array_size", "Array size must be between %d and %d", playback.MinArraySize, playback.MaxArraySize)
	}
	if c.Preset != "" && GetPreset(c.Preset) == nil {
		return algo.Invalid("preset", "unknown preset: %s", c.Preset)
	}
	if c.RaceStepDelay < 0 {
		return algo.Invalid("race_step_delay", "race_step_delay must not be negative")
	}
	return nil
}

// Shape resolves the configured preset, falling back to random.
func (c *Config) Shape() playback.Shape {
	if p := GetPreset(c.Preset); p != nil {
		return p.Shape
	}
	return playback.Random
}
