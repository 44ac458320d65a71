// Package main provides the entry point for the webharvest CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webharvest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webharvest",
		Short: "Crawl a website and collect its images",
		Long: `webharvest crawls a website starting from a seed URL, follows its
navigation links within the same domain, and downloads the images it finds.
Collected pages and images are bundled into a zip archive, and every run
can be saved to a local history database.

Images are re-encoded on download: JPEG sources stay JPEG, everything else
becomes PNG so transparency and palettes survive.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewHarvestCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
