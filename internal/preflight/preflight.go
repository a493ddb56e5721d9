// Package preflight gates the pipeline: privilege, package state,
// prerequisite packages and interpreter version.
package preflight

import (
	"strconv"
	"strings"

	"github.com/open-edge-platform/host-bootstrap/internal/aptpkg"
	"github.com/open-edge-platform/host-bootstrap/internal/config"
	"github.com/open-edge-platform/host-bootstrap/internal/hostinfo"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/shell"
)

// Check validates the host before anything mutates it. Any failure is
// fatal; no later stage may run when a gating condition is unmet.
func Check(host hostinfo.Context, cfg config.Bootstrap) error {
	log := logger.Logger()

	if !host.Root {
		return &PrivilegeError{}
	}

	log.Infof("Repairing any broken package state")
	if err := aptpkg.FixBroken(); err != nil {
		return err
	}

	for _, pkg := range cfg.Packages.Required {
		if aptpkg.IsInstalled(pkg) {
			log.Debugf("Required package %s already installed", pkg)
			continue
		}
		if err := aptpkg.Install([]string{pkg}, aptpkg.InstallOptions{}); err != nil {
			return err
		}
	}

	return checkInterpreter(cfg.Interpreter)
}

func checkInterpreter(cfg config.InterpreterConfig) error {
	log := logger.Logger()

	if !shell.IsCommandExist(cfg.Binary) {
		return &InterpreterMissingError{Binary: cfg.Binary}
	}

	output, err := shell.ExecCmd(cfg.Binary+" --version", false, nil)
	if err != nil {
		return &InterpreterMissingError{Binary: cfg.Binary}
	}

	have := extractVersion(output)
	if !versionAtLeast(have, cfg.MinVersion) {
		return &InterpreterVersionError{Binary: cfg.Binary, Have: have, Want: cfg.MinVersion}
	}

	log.Infof("Interpreter %s %s satisfies minimum %s", cfg.Binary, have, cfg.MinVersion)
	return nil
}

// extractVersion pulls the first digit-led token out of a version banner
// like "Python 3.12.7".
func extractVersion(output string) string {
	for _, field := range strings.Fields(output) {
		if field != "" && field[0] >= '0' && field[0] <= '9' {
			return field
		}
	}
	return ""
}

// versionAtLeast compares dotted numeric versions component by component.
// An unparsable have-version fails closed: it never satisfies the minimum.
func versionAtLeast(have, want string) bool {
	haveParts, ok := parseVersion(have)
	if !ok {
		return false
	}
	wantParts, ok := parseVersion(want)
	if !ok {
		return false
	}

	for i := 0; i < 3; i++ {
		if haveParts[i] > wantParts[i] {
			return true
		}
		if haveParts[i] < wantParts[i] {
			return false
		}
	}
	return true
}

// parseVersion accepts one to three strictly numeric dot-separated
// components, padding missing components with zero.
func parseVersion(version string) ([3]int, bool) {
	var parts [3]int
	if version == "" {
		return parts, false
	}

	fields := strings.Split(version, ".")
	if len(fields) > 3 {
		return parts, false
	}
	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return parts, false
		}
		parts[i] = n
	}
	return parts, true
}
