package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/ledsnake/internal/platform/tui"
	"github.com/vovakirdan/ledsnake/internal/storage"
)

var (
	flagRunID int64
	flagPlain bool
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Show recorded dispatch traces",
	Long: `Display per-task dispatch statistics of a recorded run: how often each
task ran, how late it started against its deadline and how long it ran, in
clock cycles. In a terminal the runs can be browsed interactively.

Examples:
  ledsnake trace             # Browse runs, newest first
  ledsnake trace --run 3     # Start at run 3
  ledsnake trace --plain     # Print the newest run as text`,
	Args: cobra.NoArgs,
	Run:  runTrace,
}

func init() {
	traceCmd.Flags().Int64Var(&flagRunID, "run", 0, "Run ID (0 = newest)")
	traceCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print text instead of the interactive view")
}

func runTrace(_ *cobra.Command, _ []string) {
	cfg := loadConfig()

	store, err := storage.Open(cfg.Trace.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening trace database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if !flagPlain && term.IsTerminal(int(os.Stdout.Fd())) {
		width, height := 80, 24 // Defaults
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width = w
			height = h
		}
		if err := tui.RunTraceView(store, flagRunID, width, height); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runID := flagRunID
	if runID == 0 {
		if runID, err = store.LatestRunID(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if runID == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'ledsnake headless' to record one.")
		return
	}

	run, err := store.RunByID(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if run == nil {
		fmt.Fprintf(os.Stderr, "Error: no run %d\n", runID)
		os.Exit(1)
	}

	fmt.Printf("Backend %s at %d Hz, started %s", run.Backend, run.FrequencyHz, run.StartedAt.Format("2006-01-02 15:04:05"))
	if !run.EndedAt.IsZero() {
		fmt.Printf(", ended by %s", run.EndReason)
	}
	fmt.Println()
	printStats(store, runID)

	transitions, err := store.Transitions(runID)
	if err != nil || len(transitions) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Phase changes:")
	for _, t := range transitions {
		fmt.Printf("  cycle %-12d  %-8s -> %-8s  score %d\n", t.AtCycle, t.From, t.To, t.Score)
	}
}
