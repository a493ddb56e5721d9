// Package service ensures a systemd unit is enabled, started and responsive.
package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/shell"
)

// Daemon startup on a local host is fast and bounded, so the liveness poll
// uses a small fixed retry count with a fixed delay rather than backoff.
var (
	ProbeAttempts = 10
	ProbeDelay    = 2 * time.Second

	sleep = time.Sleep
)

// UnresponsiveError reports a service that never answered its liveness probe.
type UnresponsiveError struct {
	Service string
}

func (e *UnresponsiveError) Error() string {
	return fmt.Sprintf("service %s did not become responsive", e.Service)
}

// EnsureRunning checks the unit's active state, enables and starts it when
// inactive, then polls probeCmd until it succeeds or the attempts are
// exhausted.
func EnsureRunning(name, probeCmd string) error {
	log := logger.Logger()

	if isActive(name) {
		log.Infof("Service %s is already active", name)
	} else {
		log.Infof("Enabling and starting service %s", name)
		if _, err := shell.ExecCmd("systemctl enable "+name, true, nil); err != nil {
			log.Warnf("Failed to enable %s at boot: %v", name, err)
		}
		if _, err := shell.ExecCmd("systemctl start "+name, true, nil); err != nil {
			log.Warnf("Failed to start %s: %v", name, err)
		}
	}

	for attempt := 1; attempt <= ProbeAttempts; attempt++ {
		if _, err := shell.ExecCmd(probeCmd, true, nil); err == nil {
			log.Infof("Service %s is responsive", name)
			return nil
		}
		log.Debugf("Liveness probe for %s failed (attempt %d/%d)", name, attempt, ProbeAttempts)
		if attempt < ProbeAttempts {
			sleep(ProbeDelay)
		}
	}

	return &UnresponsiveError{Service: name}
}

func isActive(name string) bool {
	output, err := shell.ExecCmd("systemctl is-active "+name, false, nil)
	return err == nil && strings.TrimSpace(output) == "active"
}
