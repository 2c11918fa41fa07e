package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/ledsnake.yaml
var defaultYAML []byte

// Default returns the built-in configuration. It matches defaults/ledsnake.yaml.
func Default() Config {
	return Config{
		Clock: ClockConfig{
			FrequencyHz: 72_000_000,
		},
		Display: DisplayConfig{
			Brightness: 50,
		},
		Joystick: JoystickConfig{
			Center:     2048,
			Deflection: 1200,
			Noise:      40,
		},
		Game: GameConfig{
			FruitPolicy: "anywhere",
		},
		Log: LogConfig{
			Level: "info",
		},
		Trace: TraceConfig{
			DBPath: "~/.ledsnake/trace.db",
		},
		Server: ServerConfig{
			Address:     ":23234",
			IdleTimeout: 30 * time.Minute,
		},
	}
}
