package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/ledsnake/internal/hal"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List hardware backends",
	Long:  `Shows the hardware backends a console can run on.`,
	Run:   runBackends,
}

func runBackends(_ *cobra.Command, _ []string) {
	backends := hal.List()

	if len(backends) == 0 {
		fmt.Println("No backends available.")
		return
	}

	fmt.Println("Available backends:")
	fmt.Println()

	// Calculate column widths
	maxNameLen := 4 // "Name" header
	for _, b := range backends {
		if len(b.Name) > maxNameLen {
			maxNameLen = len(b.Name)
		}
	}

	fmt.Printf("  %-*s  %s\n", maxNameLen, "Name", "Description")
	fmt.Printf("  %-*s  %s\n", maxNameLen, "----", "-----------")

	for _, b := range backends {
		fmt.Printf("  %-*s  %s\n", maxNameLen, b.Name, b.Description)
	}
}
