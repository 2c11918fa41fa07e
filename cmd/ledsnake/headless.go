package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/ledsnake/internal/console"
	"github.com/vovakirdan/ledsnake/internal/logging"
	"github.com/vovakirdan/ledsnake/internal/session"
	"github.com/vovakirdan/ledsnake/internal/storage"
)

var (
	flagDuration time.Duration
	flagBackend  string
)

var headlessCmd = &cobra.Command{
	Use:   "headless",
	Short: "Let the autopilot play without a terminal",
	Long: `Run the console on an in-memory panel with the autopilot on the stick.
The autopilot presses start from the attract screen and steers toward the
fruit. Phase changes are logged and the run is traced unless --no-trace.

Backends:
  headless  - real-time clock
  bench     - simulated clock, runs as fast as possible

Examples:
  ledsnake headless --duration 30s
  ledsnake headless --backend bench --duration 1h
  ledsnake headless --log-level debug`,
	Args: cobra.NoArgs,
	Run:  runHeadless,
}

func init() {
	headlessCmd.Flags().DurationVar(&flagDuration, "duration", 30*time.Second, "Board time to run for (0 = until interrupted)")
	headlessCmd.Flags().StringVar(&flagBackend, "backend", "headless", "Hardware backend (see 'ledsnake backends')")
}

func runHeadless(_ *cobra.Command, _ []string) {
	cfg := loadConfig()

	sink := logging.New(os.Stderr, logging.Options{
		Level:           cfg.LogLevel(),
		Prefix:          "ledsnake",
		ReportTimestamp: true,
	})
	defer sink.Close()

	opts := []session.Option{
		session.WithLogger(sink),
		session.WithDuration(flagDuration),
	}
	store := openTraceStore(cfg)
	if store != nil {
		defer store.Close()
		opts = append(opts, session.WithStore(store))
	}

	sess, err := session.Open(flagBackend, cfg, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'ledsnake backends' to see available backends.")
		os.Exit(1)
	}

	games, best := 0, 0
	sess.OnTransition(func(tr console.Transition) {
		sink.Info("phase", "from", tr.From, "to", tr.To, "cycle", tr.At, "score", tr.Score)
		if tr.From == console.Playing {
			games++
			best = max(best, tr.Score)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := sess.Run(ctx)
	if closeErr := sess.Close(); closeErr != nil {
		sink.Warnf("close: %v", closeErr)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		sink.Errorf("console stopped: %v", runErr)
		sink.Close()
		os.Exit(1)
	}

	fmt.Printf("Games played: %d, best score: %d\n", games, best)
	if store != nil && sess.RunID() != 0 {
		printStats(store, sess.RunID())
	}
}

// printStats prints the dispatch statistics of a run as a plain table.
func printStats(store *storage.Store, runID int64) {
	stats, err := store.TaskStats(runID)
	if err != nil {
		log.Warn("cannot read trace", "run", runID, "error", err)
		return
	}

	fmt.Printf("\nRun #%d\n", runID)
	fmt.Printf("  %-8s  %8s  %6s  %10s  %10s  %10s\n", "Task", "Runs", "Errors", "Max late", "Mean late", "Max cycles")
	fmt.Printf("  %-8s  %8s  %6s  %10s  %10s  %10s\n", "----", "----", "------", "--------", "---------", "----------")
	for _, st := range stats {
		fmt.Printf("  %-8s  %8d  %6d  %10d  %10.1f  %10d\n",
			st.Task, st.Dispatches, st.Errors, st.MaxLateness, st.MeanLateness, st.MaxRunCycles)
	}
}
