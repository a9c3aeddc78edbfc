// config.go - TOML configuration, presets and validation

/*
chirp8 - a CHIP-8 virtual machine for the desktop and the terminal

https://github.com/chirp8/chirp8
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	MIN_SCALE             = 1
	MAX_SCALE             = 20
	MIN_CYCLES_PER_SECOND = 100
	MAX_CYCLES_PER_SECOND = 2000
	DEFAULT_CPS           = 700
)

// configSearchPaths are tried in order by LoadDefaultConfig.
var configSearchPaths = []string{
	"chirp8.toml",
	"config/chirp8.toml",
	".config/chirp8.toml",
}

type RGBColor struct {
	R uint8 `toml:"r"`
	G uint8 `toml:"g"`
	B uint8 `toml:"b"`
}

type GraphicsConfig struct {
	Foreground RGBColor `toml:"foreground_color"`
	Background RGBColor `toml:"background_color"`
	Scale      int      `toml:"scale_factor"`
	Terminal   bool     `toml:"terminal"`
}

type AudioConfig struct {
	Frequency  float64 `toml:"frequency"`
	Volume     float64 `toml:"volume"`
	SampleRate int     `toml:"sample_rate"`
	Waveform   string  `toml:"waveform"`
	Mute       bool    `toml:"mute"`
}

type BehaviorConfig struct {
	CyclesPerSecond int  `toml:"cycles_per_second"`
	Wraparound      bool `toml:"wraparound"`
	ETILoad         bool `toml:"eti_load"`
}

type Config struct {
	Graphics GraphicsConfig `toml:"graphics"`
	Audio    AudioConfig    `toml:"audio"`
	Behavior BehaviorConfig `toml:"behavior"`
}

// DefaultConfig is the classic profile: green phosphor over black with
// the 440 Hz square buzzer.
func DefaultConfig() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Foreground: RGBColor{R: 0, G: 255, B: 0},
			Background: RGBColor{R: 0, G: 0, B: 0},
			Scale:      10,
		},
		Audio: AudioConfig{
			Frequency:  440.0,
			Volume:     0.4,
			SampleRate: DEFAULT_SAMPLE_RATE,
			Waveform:   WaveSquare.String(),
		},
		Behavior: BehaviorConfig{
			CyclesPerSecond: DEFAULT_CPS,
		},
	}
}

// ModernConfig uses a white-on-black palette and the softer sine buzzer.
func ModernConfig() *Config {
	cfg := DefaultConfig()
	cfg.Graphics.Foreground = RGBColor{R: 255, G: 255, B: 255}
	cfg.Audio.Frequency = 800.0
	cfg.Audio.Volume = 0.2
	cfg.Audio.Waveform = WaveSine.String()
	cfg.Behavior.CyclesPerSecond = 1000
	return cfg
}

// RetroConfig is amber on black at the slower pace of period hardware.
func RetroConfig() *Config {
	cfg := DefaultConfig()
	cfg.Graphics.Foreground = RGBColor{R: 255, G: 176, B: 0}
	cfg.Audio.Volume = 0.5
	cfg.Behavior.CyclesPerSecond = 500
	return cfg
}

// ConfigProfiles lists the named presets accepted by -profile.
func ConfigProfiles() []string {
	return []string{"classic", "modern", "retro"}
}

func ConfigFromProfile(name string) (*Config, error) {
	switch strings.ToLower(name) {
	case "", "classic", "default":
		return DefaultConfig(), nil
	case "modern":
		return ModernConfig(), nil
	case "retro":
		return RetroConfig(), nil
	default:
		return nil, &ConfigError{Key: "profile", Value: name}
	}
}

func (c *Config) Validate() error {
	if c.Graphics.Scale < MIN_SCALE || c.Graphics.Scale > MAX_SCALE {
		return &ConfigError{Key: "graphics.scale_factor", Value: fmt.Sprintf("%d", c.Graphics.Scale)}
	}
	if c.Audio.Volume < 0.0 || c.Audio.Volume > 1.0 {
		return &ConfigError{Key: "audio.volume", Value: fmt.Sprintf("%g", c.Audio.Volume)}
	}
	if c.Audio.Frequency <= 0.0 {
		return &ConfigError{Key: "audio.frequency", Value: fmt.Sprintf("%g", c.Audio.Frequency)}
	}
	if c.Audio.SampleRate <= 0 {
		return &ConfigError{Key: "audio.sample_rate", Value: fmt.Sprintf("%d", c.Audio.SampleRate)}
	}
	if _, ok := ParseWaveform(c.Audio.Waveform); !ok {
		return &ConfigError{Key: "audio.waveform", Value: c.Audio.Waveform}
	}
	if c.Behavior.CyclesPerSecond < MIN_CYCLES_PER_SECOND || c.Behavior.CyclesPerSecond > MAX_CYCLES_PER_SECOND {
		return &ConfigError{Key: "behavior.cycles_per_second", Value: fmt.Sprintf("%d", c.Behavior.CyclesPerSecond)}
	}
	return nil
}

// BuzzerConfig converts the audio section into oscillator settings.
// The waveform string is already validated, so parse failures fall
// back to the square wave.
func (c *Config) BuzzerConfig() BuzzerConfig {
	wave, ok := ParseWaveform(c.Audio.Waveform)
	if !ok {
		wave = WaveSquare
	}
	volume := c.Audio.Volume
	if c.Audio.Mute {
		volume = 0
	}
	return BuzzerConfig{
		Frequency:  c.Audio.Frequency,
		Volume:     volume,
		SampleRate: c.Audio.SampleRate,
		Waveform:   wave,
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefaultConfig walks the search paths and returns the first
// config that loads cleanly, or the classic defaults when none does.
func LoadDefaultConfig() *Config {
	for _, path := range configSearchPaths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := LoadConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping config %s: %v\n", path, err)
			continue
		}
		return cfg
	}
	return DefaultConfig()
}

func SaveConfig(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("saving config %s: %w", path, err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// SampleConfig returns a commented configuration file with every knob
// at its classic default.
func SampleConfig() string {
	return `# chirp8 configuration

[graphics]
# Color for lit pixels.
foreground_color = { r = 0, g = 255, b = 0 }
# Color for dark pixels.
background_color = { r = 0, g = 0, b = 0 }
# Window pixels per display pixel (1-20).
scale_factor = 10
# Render into the terminal instead of a window.
terminal = false

[audio]
# Buzzer tone in Hz.
frequency = 440.0
# 0.0 silent, 1.0 full volume.
volume = 0.4
sample_rate = 44100
# square, sine, sawtooth or triangle.
waveform = "square"
mute = false

[behavior]
# Instruction pacing (100-2000).
cycles_per_second = 700
# Wrap addresses past the end of memory instead of failing.
wraparound = false
# Load programs at the ETI-660 address 0x600.
eti_load = false
`
}
