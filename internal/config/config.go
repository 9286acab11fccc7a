// Package config reads the optional mc1.yaml settings file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory when
// no path is given.
const DefaultFile = "mc1.yaml"

// Defaults match the engine's own build presets.
const (
	DefaultPort     = 5555
	DefaultHost     = "localhost"
	DefaultBuildDir = ".build/default"
	DefaultPreset   = "default"
	DefaultSource   = "."
	DefaultBinary   = "engine"
)

// Config holds the settings shared by every command. Command-line flags
// override them.
type Config struct {
	Engine Engine `yaml:"engine"`

	// DB is the patch library database. Empty disables recording.
	DB string `yaml:"db,omitempty"`
}

// Engine describes where the engine is built and how to reach it.
type Engine struct {
	// Port is the UDP port the engine listens on.
	Port int `yaml:"port"`

	// Host is where the engine listens.
	Host string `yaml:"host"`

	// Source is the directory holding CMakePresets.json.
	Source string `yaml:"source"`

	// BuildDir is the cmake build directory of Preset, relative to Source.
	BuildDir string `yaml:"build_dir"`

	// Preset is the cmake configure and build preset.
	Preset string `yaml:"preset"`

	// Binary is the engine executable's name inside BuildDir.
	Binary string `yaml:"binary"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: Engine{
			Port:     DefaultPort,
			Host:     DefaultHost,
			Source:   DefaultSource,
			BuildDir: DefaultBuildDir,
			Preset:   DefaultPreset,
			Binary:   DefaultBinary,
		},
	}
}

// Load reads path over the defaults. An empty path reads DefaultFile if
// it exists and returns the defaults otherwise; an explicit path must
// exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the settings are usable.
func (c Config) Validate() error {
	if c.Engine.Port < 1 || c.Engine.Port > 65535 {
		return fmt.Errorf("engine.port %d out of range 1-65535", c.Engine.Port)
	}
	if c.Engine.Host == "" {
		return errors.New("engine.host is empty")
	}
	if c.Engine.BuildDir == "" {
		return errors.New("engine.build_dir is empty")
	}
	if c.Engine.Preset == "" {
		return errors.New("engine.preset is empty")
	}
	if c.Engine.Binary == "" {
		return errors.New("engine.binary is empty")
	}
	return nil
}
