// Package config provides YAML-based host configuration for the console: clock
// frequency, panel brightness, the simulated joystick, the trace database and the SSH
// server.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/ledsnake/internal/display"
	"github.com/vovakirdan/ledsnake/internal/games/snake"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Config is the full host configuration.
type Config struct {
	Clock    ClockConfig    `yaml:"clock"`
	Display  DisplayConfig  `yaml:"display"`
	Joystick JoystickConfig `yaml:"joystick"`
	Game     GameConfig     `yaml:"game"`
	Log      LogConfig      `yaml:"log"`
	Trace    TraceConfig    `yaml:"trace"`
	Server   ServerConfig   `yaml:"server"`
}

// ClockConfig sets the simulated core clock.
type ClockConfig struct {
	FrequencyHz uint32 `yaml:"frequency_hz"`
}

// DisplayConfig sets the panel.
type DisplayConfig struct {
	Brightness uint8 `yaml:"brightness"` // Percent, 0-100
}

// JoystickConfig shapes the virtual stick's raw readings.
type JoystickConfig struct {
	Center     uint16 `yaml:"center"`
	Deflection uint16 `yaml:"deflection"`
	Noise      uint16 `yaml:"noise"`
}

// GameConfig holds game options.
type GameConfig struct {
	FruitPolicy string `yaml:"fruit_policy"` // "anywhere" or "avoid_snake"
}

// LogConfig holds logging options.
type LogConfig struct {
	Level string `yaml:"level"`
}

// TraceConfig locates the dispatch trace database.
type TraceConfig struct {
	DBPath string `yaml:"db_path"`
}

// ServerConfig configures `ledsnake serve`.
type ServerConfig struct {
	Address     string        `yaml:"address"`
	HostKeyPath string        `yaml:"host_key_path"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// Validate checks values the console cannot run with.
func (c Config) Validate() error {
	if c.Clock.FrequencyHz == 0 {
		return fmt.Errorf("%w: clock.frequency_hz must be positive", ErrInvalid)
	}
	if c.Display.Brightness > display.MaxBrightness {
		return fmt.Errorf("%w: display.brightness %d exceeds %d", ErrInvalid, c.Display.Brightness, display.MaxBrightness)
	}
	if c.Joystick.Deflection == 0 {
		return fmt.Errorf("%w: joystick.deflection must be positive", ErrInvalid)
	}
	if int(c.Joystick.Center)+int(c.Joystick.Deflection)+int(c.Joystick.Noise) > 0xFFFF ||
		int(c.Joystick.Center)-int(c.Joystick.Deflection)-int(c.Joystick.Noise) < 0 {
		return fmt.Errorf("%w: joystick center %d with deflection %d and noise %d leaves the 16-bit range",
			ErrInvalid, c.Joystick.Center, c.Joystick.Deflection, c.Joystick.Noise)
	}
	if _, err := snake.ParseFruitPolicy(c.Game.FruitPolicy); err != nil {
		return fmt.Errorf("%w: game.fruit_policy: %v", ErrInvalid, err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return nil
}

// FruitPolicy returns the parsed fruit policy. Call Validate first.
func (c Config) FruitPolicy() snake.FruitPolicy {
	p, err := snake.ParseFruitPolicy(c.Game.FruitPolicy)
	if err != nil {
		return snake.FruitAnywhere
	}
	return p
}

// LogLevel returns the parsed log level, falling back to info.
func (c Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
