package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/ledsnake/internal/platform/tui"
	"github.com/vovakirdan/ledsnake/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play on a simulated panel in the terminal",
	Long: `Start the console on the terminal backend. The panel is drawn in the
terminal and the keyboard plays the joystick.

Controls:
  Arrows/WASD  - Deflect the stick
  Space/Enter  - Press the stick button (start a game)
  ?            - Toggle help
  Q/Esc        - Quit

Examples:
  ledsnake run
  ledsnake run --config ./bright.yaml
  ledsnake run --no-trace`,
	Args: cobra.NoArgs,
	Run:  runRun,
}

func runRun(_ *cobra.Command, _ []string) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: ledsnake run needs a terminal")
		fmt.Fprintln(os.Stderr, "Use 'ledsnake headless' to run without one.")
		os.Exit(1)
	}

	cfg := loadConfig()

	var opts []session.Option
	store := openTraceStore(cfg)
	if store != nil {
		opts = append(opts, session.WithStore(store))
	}

	runErr := tui.Run(cfg, opts...)

	// Close store before potential exit
	if store != nil {
		store.Close()
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running console: %v\n", runErr)
		os.Exit(1)
	}
}
