// Command shardserved runs a shard-local HTTP/WebSocket server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┬ ┬┌─┐┬─┐┌┬┐┬ ┬┌┬┐┌┬┐┌─┐
  └─┐├─┤├─┤├┬┘ ││├─┤ │  ││
  └─┘┴ ┴┴ ┴┴└──┴┘┴ ┴ ┴ ─┴┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:           "shardserved",
		Short:         "A shard-local HTTP/WebSocket server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Print(banner)
}

func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
