// Package runner executes a long-running subprocess while teeing its
// combined output to the console and a capture file.
package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
)

// Console sink, overridable in tests.
var consoleOut io.Writer = os.Stdout

// Result records a finished subprocess run. The capture file holds the
// complete combined output in arrival order and is closed before Run
// returns, so readers always see the full stream.
type Result struct {
	ExitCode int
	LogPath  string
}

// SubprocessError reports a non-zero exit. It is deliberately separate from
// hard execution failures: the tool may exit non-zero after already having
// printed everything the caller needs.
type SubprocessError struct {
	Command  string
	ExitCode int
}

func (e *SubprocessError) Error() string {
	return fmt.Sprintf("command %s exited with status %d", e.Command, e.ExitCode)
}

// Run executes the command with stdout and stderr merged into a single
// stream that is written to both the console and a uniquely named capture
// file. Stdin stays attached so the tool can prompt the operator.
func Run(name string, args ...string) (Result, error) {
	log := logger.Logger()

	capture, err := os.CreateTemp("", filepath.Base(name)+"-run-*.log")
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("failed to create capture file: %w", err)
	}
	result := Result{ExitCode: -1, LogPath: capture.Name()}

	log.Infof("Running %s %s (output captured to %s)", name, strings.Join(args, " "), capture.Name())

	// One MultiWriter fans each write out to both sinks, so console and
	// capture file observe bytes in the same order.
	sink := io.MultiWriter(consoleOut, capture)

	cmd := exec.Command(name, args...)
	cmd.Stdout = sink
	cmd.Stderr = sink
	cmd.Stdin = os.Stdin

	runErr := cmd.Run()

	// Flush and close before anyone reads the capture file.
	if err := capture.Sync(); err != nil {
		log.Warnf("Failed to sync capture file: %v", err)
	}
	if err := capture.Close(); err != nil {
		log.Warnf("Failed to close capture file: %v", err)
	}

	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return result, &SubprocessError{Command: name, ExitCode: result.ExitCode}
		}
		return result, fmt.Errorf("failed to run %s: %w", name, runErr)
	}
	return result, nil
}
