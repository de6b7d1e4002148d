// Package main is the entry point for the prewarm CLI.
//
// prewarm can be used as a library (SDK) or as a standalone binary. This CLI
// provides the standalone binary approach.
//
// Usage:
//
//	prewarm warm --filename /img.jpg --cloudfront-url d111.cloudfront.net
//	prewarm serve -c prewarm.yaml    # Start the HTTP trigger
//	prewarm validate -c prewarm.yaml # Validate configuration
//	prewarm version                  # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd only displays help; functionality lives in subcommands.
var rootCmd = &cobra.Command{
	Use:   "prewarm",
	Short: "Warm a file into every CloudFront edge cache",
	Long: `prewarm requests a file directly from every CloudFront edge location so
that each edge caches it before real users ask for it.

Quick start:
  prewarm warm --filename /test/example.jpg --cloudfront-url example.cloudfront.net

Or run the HTTP trigger and POST invocations to /api/warm:
  prewarm serve -c prewarm.yaml

Example config:
  port: 8080
  max_concurrency: 100
  request_timeout: 30s
  catalog_file: pops.yaml`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already prints the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this prewarm binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "prewarm %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
