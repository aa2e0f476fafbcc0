// Package cmd implements the command-line interface for musicapi using
// Cobra. It defines the root command and the serve, ingest, and version
// subcommands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the current version of musicapi, set at build time via ldflags.
var Version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "musicapi",
	Short: "Song lookup and rating REST API backed by PostgreSQL",
	Long: `musicapi serves song lookups by title and records star ratings against
them. Songs live in the music_data table; use the ingest subcommand to
load a dataset export before serving.`,
}

// Execute runs the root command and returns any error encountered.
// This is called from main.go.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("musicapi v%s\n", Version)
	},
}
