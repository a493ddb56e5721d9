package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
)

// Set via -ldflags at build time.
var buildVersion = "dev"

// Global command flags
var (
	logLevel string
	verbose  bool
	cfgFile  string
)

func main() {
	rootCmd := createRootCommand()
	if err := rootCmd.Execute(); err != nil {
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Sync()
}

// createRootCommand creates the root command with all subcommands
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "host-bootstrap",
		Short: "Bootstrap a Debian/Ubuntu host for the appstack application",
		Long: `host-bootstrap takes a bare Debian/Ubuntu-family host to a state where
the appstack containerized application is installed and running, and the
admin credential generated during installation is saved for the operator.

The pipeline is strictly sequential and fail-fast: preflight checks,
package repository setup, container runtime install, service activation,
tool install, and credential capture. It must run as root.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose (debug) logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Optional YAML file overriding the built-in configuration")

	rootCmd.AddCommand(createRunCommand())
	rootCmd.AddCommand(createPreflightCommand())
	rootCmd.AddCommand(createVersionCommand())

	attachLoggingHooks(rootCmd)
	return rootCmd
}

// resolveRequestedLogLevel prefers an explicit --log-level; --verbose falls
// back to debug.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd != nil {
		if cmd.Flags().Changed("verbose") {
			if v, err := cmd.Flags().GetBool("verbose"); err == nil && v {
				return "debug"
			}
		}
	}
	return ""
}

// attachLoggingHooks initializes the logger before any subcommand runs.
func attachLoggingHooks(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
			return logger.Init(resolveRequestedLogLevel(cmd))
		}
	}
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the host-bootstrap version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("host-bootstrap " + buildVersion)
		},
	}
}
