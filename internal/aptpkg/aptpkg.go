// Package aptpkg wraps the apt/dpkg toolchain of Debian-family hosts.
package aptpkg

import (
	"fmt"
	"strings"

	"github.com/open-edge-platform/host-bootstrap/internal/config"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/shell"
)

// aptEnv keeps apt from blocking on debconf prompts.
var aptEnv = []string{"DEBIAN_FRONTEND=noninteractive"}

// InstallOptions controls apt-get install behavior.
type InstallOptions struct {
	NoRecommends bool
}

// IsInstalled reports whether a package is fully installed.
func IsInstalled(name string) bool {
	output, err := shell.ExecCmd("dpkg-query -W -f='${Status}' "+name, false, nil)
	if err != nil {
		return false
	}
	return strings.Contains(output, "install ok installed")
}

// Install installs the named packages one at a time so a failure can be
// attributed to a single package.
func Install(names []string, opts InstallOptions) error {
	log := logger.Logger()

	flags := "-y"
	if opts.NoRecommends {
		flags += " --no-install-recommends"
	}

	for _, name := range names {
		log.Infof("Installing package %s", name)
		if _, err := shell.ExecCmd("apt-get install "+flags+" "+name, true, aptEnv); err != nil {
			return &InstallError{Package: name, Err: err}
		}
	}
	return nil
}

// CleanCache clears the local package cache.
func CleanCache() error {
	if _, err := shell.ExecCmd("apt-get clean", true, aptEnv); err != nil {
		return fmt.Errorf("failed to clean package cache: %w", err)
	}
	return nil
}

// FixBroken attempts to repair a broken dependency state. A failure here
// means apt is in a state this tool cannot safely reason about.
func FixBroken() error {
	if _, err := shell.ExecCmd("apt-get install -f -y", true, aptEnv); err != nil {
		return &StateError{Err: err}
	}
	return nil
}

// Update refreshes the package index.
func Update() error {
	if _, err := shell.ExecCmd("apt-get update", true, aptEnv); err != nil {
		return fmt.Errorf("failed to update package index: %w", err)
	}
	return nil
}

// InstallRuntime installs the container runtime: the vendor-preferred
// package set first, then the distribution's generic package. Both failing
// is fatal since nothing downstream works without the runtime.
func InstallRuntime(cfg config.RuntimeConfig) error {
	log := logger.Logger()

	log.Infof("Installing container runtime packages: %s", strings.Join(cfg.Preferred, " "))
	if err := Install(cfg.Preferred, InstallOptions{}); err != nil {
		log.Warnf("Preferred runtime packages failed (%v), falling back to %s", err, cfg.Fallback)
		if err := Install([]string{cfg.Fallback}, InstallOptions{}); err != nil {
			return err
		}
	}
	return nil
}
