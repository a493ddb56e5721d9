package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/open-edge-platform/host-bootstrap/internal/utils/shell"
)

func muteSleep(t *testing.T) *int {
	t.Helper()
	prev := sleep
	count := 0
	sleep = func(d time.Duration) { count++ }
	t.Cleanup(func() { sleep = prev })
	return &count
}

func TestEnsureRunningAlreadyActive(t *testing.T) {
	muteSleep(t)

	var commands []string
	prev := shell.ExecCmd
	shell.ExecCmd = func(cmdStr string, sudo bool, envVal []string) (string, error) {
		commands = append(commands, cmdStr)
		if strings.Contains(cmdStr, "is-active") {
			return "active\n", nil
		}
		return "", nil
	}
	t.Cleanup(func() { shell.ExecCmd = prev })

	if err := EnsureRunning("docker", "docker info"); err != nil {
		t.Fatalf("EnsureRunning failed: %v", err)
	}
	for _, cmd := range commands {
		if strings.Contains(cmd, "systemctl start") {
			t.Errorf("active service must not be restarted, commands: %v", commands)
		}
	}
}

func TestEnsureRunningStartsInactiveService(t *testing.T) {
	muteSleep(t)

	started := false
	prev := shell.ExecCmd
	shell.ExecCmd = func(cmdStr string, sudo bool, envVal []string) (string, error) {
		switch {
		case strings.Contains(cmdStr, "is-active"):
			return "inactive\n", errors.New("exit status 3")
		case strings.Contains(cmdStr, "systemctl start"):
			started = true
			return "", nil
		case strings.Contains(cmdStr, "docker info"):
			if started {
				return "", nil
			}
			return "", errors.New("cannot connect to daemon")
		}
		return "", nil
	}
	t.Cleanup(func() { shell.ExecCmd = prev })

	if err := EnsureRunning("docker", "docker info"); err != nil {
		t.Fatalf("EnsureRunning failed: %v", err)
	}
	if !started {
		t.Error("expected systemctl start to run")
	}
}

func TestEnsureRunningProbeRetriesThenSucceeds(t *testing.T) {
	sleeps := muteSleep(t)

	probes := 0
	prev := shell.ExecCmd
	shell.ExecCmd = func(cmdStr string, sudo bool, envVal []string) (string, error) {
		switch {
		case strings.Contains(cmdStr, "is-active"):
			return "active\n", nil
		case strings.Contains(cmdStr, "docker info"):
			probes++
			if probes < 3 {
				return "", errors.New("starting up")
			}
			return "", nil
		}
		return "", nil
	}
	t.Cleanup(func() { shell.ExecCmd = prev })

	if err := EnsureRunning("docker", "docker info"); err != nil {
		t.Fatalf("EnsureRunning failed: %v", err)
	}
	if probes != 3 {
		t.Errorf("expected 3 probes, got %d", probes)
	}
	if *sleeps != 2 {
		t.Errorf("expected 2 sleeps between probes, got %d", *sleeps)
	}
}

func TestEnsureRunningBoundedRetry(t *testing.T) {
	sleeps := muteSleep(t)

	probes := 0
	prev := shell.ExecCmd
	shell.ExecCmd = func(cmdStr string, sudo bool, envVal []string) (string, error) {
		if strings.Contains(cmdStr, "is-active") {
			return "active\n", nil
		}
		if strings.Contains(cmdStr, "docker info") {
			probes++
			return "", errors.New("never ready")
		}
		return "", nil
	}
	t.Cleanup(func() { shell.ExecCmd = prev })

	err := EnsureRunning("docker", "docker info")
	var unresponsive *UnresponsiveError
	if !errors.As(err, &unresponsive) {
		t.Fatalf("expected *UnresponsiveError, got %v", err)
	}
	if probes != ProbeAttempts {
		t.Errorf("expected exactly %d probes, got %d", ProbeAttempts, probes)
	}
	if *sleeps != ProbeAttempts-1 {
		t.Errorf("expected %d sleeps, got %d", ProbeAttempts-1, *sleeps)
	}
}
