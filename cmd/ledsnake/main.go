// ledsnake runs the LED snake console: an 8x8 LED panel and an analog joystick driven by
// a fixed-priority deadline scheduler.
//
// Usage:
//
//	ledsnake run              - Play on a simulated panel in the terminal
//	ledsnake headless         - Let the autopilot play without a terminal
//	ledsnake serve            - Start SSH server, one console per connection
//	ledsnake trace            - Show recorded dispatch traces
//	ledsnake backends         - List hardware backends
//
// Global flags:
//
//	--config <path>     - Config file (default: search ~/.ledsnake, ./configs)
//	--log-level <name>  - Override log.level
//	--trace-db <path>   - Override trace.db_path
//	--no-trace          - Do not record dispatch traces
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/ledsnake/internal/config"
	"github.com/vovakirdan/ledsnake/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagLogLevel string
	flagTraceDB  string
	flagNoTrace  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ledsnake",
	Short: "LED Snake - an 8x8 snake console on a deadline scheduler",
	Long: `LED Snake drives an 8x8 LED panel and a two-axis joystick from three
scheduled tasks: the attract animation, the game tick and the game-over flash.

Available commands:
  run       - Play on a simulated panel in the terminal
  headless  - Let the autopilot play, no terminal needed
  serve     - Start SSH server for remote play
  trace     - Show recorded dispatch traces
  backends  - List hardware backends

Examples:
  ledsnake run
  ledsnake headless --duration 30s --backend bench
  ledsnake serve --ssh :2222
  ledsnake trace --run 3`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagTraceDB, "trace-db", "", "Path to the dispatch trace database")
	rootCmd.PersistentFlags().BoolVar(&flagNoTrace, "no-trace", false, "Do not record dispatch traces")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(headlessCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(backendsCmd)
}

// loadConfig loads the config file and applies the global flag overrides.
func loadConfig() config.Config {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagTraceDB != "" {
		cfg.Trace.DBPath = flagTraceDB
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// openTraceStore opens the trace database, or returns nil when tracing is off or the
// database cannot be opened. The console runs either way.
func openTraceStore(cfg config.Config) *storage.Store {
	if flagNoTrace || cfg.Trace.DBPath == "" {
		return nil
	}
	store, err := storage.Open(cfg.Trace.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open trace database: %v\n", err)
		return nil
	}
	return store
}
