// Package pipeline sequences the bootstrap stages with fail-fast semantics.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/open-edge-platform/host-bootstrap/internal/aptpkg"
	"github.com/open-edge-platform/host-bootstrap/internal/aptrepo"
	"github.com/open-edge-platform/host-bootstrap/internal/artifact"
	"github.com/open-edge-platform/host-bootstrap/internal/config"
	"github.com/open-edge-platform/host-bootstrap/internal/credential"
	"github.com/open-edge-platform/host-bootstrap/internal/hostinfo"
	"github.com/open-edge-platform/host-bootstrap/internal/output"
	"github.com/open-edge-platform/host-bootstrap/internal/preflight"
	"github.com/open-edge-platform/host-bootstrap/internal/runner"
	"github.com/open-edge-platform/host-bootstrap/internal/service"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
)

// State is threaded through the stages. Each field is written by exactly
// one stage and read-only afterwards.
type State struct {
	Host   hostinfo.Context
	Config config.Bootstrap

	Repository      aptrepo.Descriptor
	InstallRun      runner.Result
	Credential      string
	CredentialFound bool
	CredentialPath  string
}

// Stage is one pipeline step. Its error, if any, aborts the whole run.
type Stage struct {
	Name string
	Run  func(*State) error
}

// StageError wraps a stage failure with the stage name for the operator.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Execute runs the stages in order and halts on the first failure. There is
// no partial continuation and no rollback.
func Execute(stages []Stage, state *State) error {
	log := logger.Logger()

	for i, stage := range stages {
		log.Infof("[%d/%d] %s", i+1, len(stages), stage.Name)
		if err := stage.Run(state); err != nil {
			return &StageError{Stage: stage.Name, Err: err}
		}
	}
	return nil
}

// Stages returns the canonical bootstrap sequence.
func Stages() []Stage {
	return []Stage{
		{Name: "preflight", Run: runPreflight},
		{Name: "configure-repository", Run: runConfigureRepository},
		{Name: "install-runtime", Run: runInstallRuntime},
		{Name: "activate-service", Run: runActivateService},
		{Name: "install-tool", Run: runInstallTool},
		{Name: "run-install", Run: runToolInstall},
		{Name: "extract-credential", Run: runExtractCredential},
		{Name: "write-credential", Run: runWriteCredential},
	}
}

func runPreflight(s *State) error {
	return preflight.Check(s.Host, s.Config)
}

func runConfigureRepository(s *State) error {
	desc, err := aptrepo.Configure(s.Config.Repository, s.Host)
	if err != nil {
		return err
	}
	s.Repository = desc
	return nil
}

func runInstallRuntime(s *State) error {
	return aptpkg.InstallRuntime(s.Config.Runtime)
}

func runActivateService(s *State) error {
	return service.EnsureRunning(s.Config.Runtime.Service, s.Config.Runtime.Probe)
}

func runInstallTool(s *State) error {
	url := s.Config.Release.URL(s.Host.Arch)
	return artifact.Install(url, s.Config.Tool.Binary, s.Config.Tool.InstallPath)
}

// runToolInstall executes the wrapped tool. A non-zero exit is tolerated:
// the tool may have printed a valid credential before a non-fatal warning,
// so extraction still gets its chance.
func runToolInstall(s *State) error {
	log := logger.Logger()

	result, err := runner.Run(s.Config.Tool.InstallPath, s.Config.Tool.InstallArgs...)
	s.InstallRun = result
	if err != nil {
		var subErr *runner.SubprocessError
		if errors.As(err, &subErr) {
			log.Warnf("Install command exited with status %d; continuing to credential extraction", subErr.ExitCode)
			return nil
		}
		return err
	}
	return nil
}

func runExtractCredential(s *State) error {
	fallback := credential.ToolQuery(s.Config.Tool.InstallPath, s.Config.Tool.FallbackConfigKey)
	secret, found := credential.Extract(s.InstallRun.LogPath, fallback)
	s.Credential = secret
	s.CredentialFound = found
	if !found {
		// Absent is surfaced by the output writer, which owns the decision.
		logger.Logger().Warnf("No credential found in install output or tool config")
	}
	return nil
}

func runWriteCredential(s *State) error {
	path, err := output.Write(s.Credential, s.Host, s.Config.Output)
	if err != nil {
		return err
	}
	s.CredentialPath = path
	return nil
}
