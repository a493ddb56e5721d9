package main

import (
	"github.com/spf13/cobra"

	"github.com/open-edge-platform/host-bootstrap/internal/config"
	"github.com/open-edge-platform/host-bootstrap/internal/hostinfo"
	"github.com/open-edge-platform/host-bootstrap/internal/preflight"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
)

// createPreflightCommand creates the preflight subcommand
func createPreflightCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Run only the preflight checks",
		Long: `Preflight verifies the host without installing the application:
root privilege, repairable package state, required prerequisite packages,
and the interpreter version. It installs missing prerequisite packages,
so it still requires root.`,
		Args: cobra.NoArgs,
		RunE: executePreflight,
	}
}

// executePreflight handles the preflight command logic
func executePreflight(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	host, err := hostinfo.Detect()
	if err != nil {
		return err
	}

	if err := preflight.Check(host, cfg); err != nil {
		return err
	}

	log.Infof("✓ Preflight checks passed for %s/%s", host.Codename, host.Arch)
	return nil
}
