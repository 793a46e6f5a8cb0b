package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/shadow/internal/config"
	"github.com/vango-dev/shadow/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err, "E141")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "shadow",
		Short: "Server-side rendering for reactive shadow-node pages",
		Long: `Shadow renders reactive pages on the server.

Pages build a shadow tree over signals; the server mounts it into a
document, waits for pending work, injects the client bundle and
responds with the HTML. Features include:

  • Render cache (memory, SQLite or S3)
  • Prometheus metrics and OpenTelemetry tracing
  • Bundle watching with browser live reload`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to "+config.ConfigFileName)

	load := func(cmd *cobra.Command) (*config.Config, error) {
		return loadConfig(cmd, configPath)
	}

	rootCmd.AddCommand(
		serveCmd(load),
		renderCmd(load),
		pagesCmd(),
		versionCmd(),
	)
	return rootCmd
}

type configLoader func(cmd *cobra.Command) (*config.Config, error)

// loadConfig merges defaults, shadow.json, SHADOW_* variables and the flags
// of cmd, in increasing precedence.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	v := config.NewViper()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	return config.Read(v, path)
}

// info prints an info message.
func info(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", fmt.Sprintf(format, args...))
}
