// Package config loads the fxtrack YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cbegin/fxtrack-go/internal/beatmap"
	"github.com/cbegin/fxtrack-go/internal/effect"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config is the user configuration. Offset shifts the transport against
// the audio, in milliseconds.
type Config struct {
	SampleRate   int                      `yaml:"sample_rate"`
	ViewDuration float64                  `yaml:"view_duration"`
	Offset       int                      `yaml:"offset"`
	LaserEffect  string                   `yaml:"laser_effect"`
	SlamSample   string                   `yaml:"slam_sample,omitempty"`
	SlamVolume   float64                  `yaml:"slam_volume"`
	MasterEQ     [5]float32               `yaml:"master_eq"`
	Effects      map[string]effect.Preset `yaml:"effects,omitempty"`
}

func Default() *Config {
	return &Config{
		SampleRate:   48000,
		ViewDuration: 2.0,
		LaserEffect:  beatmap.EffectPeakingFilter.String(),
		SlamVolume:   1.0,
		MasterEQ:     [5]float32{1, 1, 1, 1, 1},
	}
}

// Load reads and validates the file at path. Fields absent from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("%w: sample_rate %d out of range [8000, 192000]", ErrInvalid, c.SampleRate)
	}
	if c.ViewDuration <= 0 {
		return fmt.Errorf("%w: view_duration must be positive, got %v", ErrInvalid, c.ViewDuration)
	}
	if c.SlamVolume < 0 {
		return fmt.Errorf("%w: slam_volume must not be negative", ErrInvalid)
	}
	for i, g := range c.MasterEQ {
		if g < 0 || g > 4 {
			return fmt.Errorf("%w: master_eq[%d] = %v out of range [0, 4]", ErrInvalid, i, g)
		}
	}
	if _, err := c.LaserEffectType(); err != nil {
		return err
	}
	for name := range c.Effects {
		if _, err := beatmap.ParseEffectType(name); err != nil {
			return fmt.Errorf("%w: effects: %v", ErrInvalid, err)
		}
	}
	return nil
}

// LaserEffectType returns the effect applied to lasers when the map does
// not select one.
func (c *Config) LaserEffectType() (beatmap.EffectType, error) {
	t, err := beatmap.ParseEffectType(c.LaserEffect)
	if err != nil {
		return beatmap.EffectNone, fmt.Errorf("%w: laser_effect: %v", ErrInvalid, err)
	}
	return t, nil
}

// ApplyEffects installs the configured presets into reg in name order.
// Registered settings are replaced, so running effect states are not
// affected.
func (c *Config) ApplyEffects(reg *beatmap.EffectRegistry) error {
	names := make([]string, 0, len(c.Effects))
	for name := range c.Effects {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t, err := beatmap.ParseEffectType(name)
		if err != nil {
			return fmt.Errorf("%w: effects: %v", ErrInvalid, err)
		}
		if err := c.Effects[name].Apply(reg, t); err != nil {
			return fmt.Errorf("config: effects.%s: %w", name, err)
		}
	}
	return nil
}
