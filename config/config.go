// Package config provides configuration loading for the capture commands.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the configuration file path.
const EnvVar = "DEPTHCAM_CONFIG"

const (
	SourceRealsense = "realsense"
	SourceFake      = "fake"
	SourceReplay    = "replay"
)

// Config is the configuration shared by rsdepth and rscapture.
type Config struct {
	// Source selects the camera backend.
	Source     string `yaml:"source"`
	ReplayPath string `yaml:"replay_path"`
	RecordPath string `yaml:"record_path"`

	// LogDir receives saved images and their index files.
	LogDir string `yaml:"log_dir"`

	Display   bool `yaml:"display"`
	Debug     bool `yaml:"debug"`
	MaxFrames int  `yaml:"max_frames"`
	Preset    int  `yaml:"preset"`

	Depth StreamConfig `yaml:"depth"`
	Color StreamConfig `yaml:"color"`
}

// StreamConfig is the size and rate of one stream. The format is fixed per
// stream.
type StreamConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`
}

// Defaults returns the configuration of rscapture: VGA depth and color at
// 60 fps with depth preset 5.
func Defaults() Config {
	return Config{
		Source:  SourceRealsense,
		LogDir:  "log",
		Display: true,
		Preset:  5,
		Depth:   StreamConfig{Width: 640, Height: 480, FPS: 60},
		Color:   StreamConfig{Width: 640, Height: 480, FPS: 60},
	}
}

// Load reads the YAML file at path over defaults. An empty path returns
// defaults unchanged.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file: %w", err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// FromEnv loads the file named by DEPTHCAM_CONFIG.
func FromEnv(defaults Config) (Config, error) {
	return Load(os.Getenv(EnvVar), defaults)
}

func (c Config) Validate() error {
	var errs []error

	switch c.Source {
	case SourceRealsense, SourceFake:
	case SourceReplay:
		if c.ReplayPath == "" {
			errs = append(errs, errors.New("replay source needs replay_path"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source %q", c.Source))
	}

	if c.LogDir == "" {
		errs = append(errs, errors.New("log_dir must not be empty"))
	}
	if c.MaxFrames < 0 {
		errs = append(errs, fmt.Errorf("max_frames must not be negative, got %d", c.MaxFrames))
	}
	if c.Preset < 0 || c.Preset > 5 {
		errs = append(errs, fmt.Errorf("preset must be between 0 and 5, got %d", c.Preset))
	}
	if err := c.Depth.validate("depth"); err != nil {
		errs = append(errs, err)
	}
	if err := c.Color.validate("color"); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (s StreamConfig) validate(name string) error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%s resolution must be positive, got %dx%d", name, s.Width, s.Height)
	}
	if s.FPS <= 0 {
		return fmt.Errorf("%s fps must be positive, got %d", name, s.FPS)
	}
	return nil
}
