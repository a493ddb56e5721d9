package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-edge-platform/host-bootstrap/internal/aptpkg"
	"github.com/open-edge-platform/host-bootstrap/internal/config"
	"github.com/open-edge-platform/host-bootstrap/internal/hostinfo"
	"github.com/open-edge-platform/host-bootstrap/internal/pipeline"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
)

// createRunCommand creates the run subcommand
func createRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full bootstrap pipeline",
		Long: `Run executes every bootstrap stage in order: preflight validation,
repository configuration, container runtime install, service activation,
tool install, the wrapped install command, and credential capture.
The pipeline halts on the first fatal stage failure.`,
		Args: cobra.NoArgs,
		RunE: executeRun,
	}
}

// executeRun handles the run command logic
func executeRun(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	host, err := hostinfo.Detect()
	if err != nil {
		return err
	}

	state := &pipeline.State{Host: host, Config: cfg}
	if err := pipeline.Execute(pipeline.Stages(), state); err != nil {
		return err
	}

	// The cache only held the runtime packages; keeping it wastes disk on a
	// freshly provisioned host.
	if err := aptpkg.CleanCache(); err != nil {
		log.Warnf("Failed to clean package cache: %v", err)
	}

	log.Infof("Bootstrap complete")
	fmt.Printf("The admin credential has been saved to %s\n", state.CredentialPath)
	fmt.Printf("Manage the application with: %s --help\n", cfg.Tool.InstallPath)
	return nil
}
