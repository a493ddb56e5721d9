package shell

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
)

// The exec entry points are package-level function variables so tests can
// substitute a recorder instead of touching the real host.
var (
	ExecCmd        = execCmd
	ExecCmdSilent  = execCmdSilent
	IsCommandExist = isCommandExist
)

// GetOSEnvirons returns the system environment variables
func GetOSEnvirons() map[string]string {
	environ := make(map[string]string)
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			environ[parts[0]] = parts[1]
		}
	}
	return environ
}

// GetOSProxyEnvirons retrieves HTTP and HTTPS proxy environment variables
func GetOSProxyEnvirons() map[string]string {
	osEnv := GetOSEnvirons()
	proxyEnv := make(map[string]string)

	for key, value := range osEnv {
		if strings.Contains(strings.ToLower(key), "http_proxy") ||
			strings.Contains(strings.ToLower(key), "https_proxy") {
			proxyEnv[key] = value
		}
	}

	return proxyEnv
}

// getShell returns the preferred shell, falling back to /bin/sh if bash is not available
func getShell() string {
	shells := []string{"/bin/bash", "/usr/bin/bash", "/bin/sh"}
	for _, shell := range shells {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh" // fallback
}

func isCommandExist(cmd string) bool {
	shell := getShell()
	output, _ := exec.Command(shell, "-c", "command -v "+cmd).Output()
	return len(bytes.TrimSpace(output)) > 0
}

// GetFullCmdStr prepares a command string with necessary prefixes
func GetFullCmdStr(cmdStr string, sudo bool, envVal []string) string {
	log := logger.Logger()
	envValStr := ""
	for _, env := range envVal {
		envValStr += env + " "
	}

	if sudo {
		proxyEnv := GetOSProxyEnvirons()
		for key, value := range proxyEnv {
			envValStr += key + "=" + value + " "
		}

		log.Debugf("Exec: [sudo " + cmdStr + "]")
		return "sudo " + envValStr + cmdStr
	}

	log.Debugf("Exec: [" + cmdStr + "]")
	return envValStr + cmdStr
}

// execCmd executes a command through the shell and returns its combined output.
func execCmd(cmdStr string, sudo bool, envVal []string) (string, error) {
	log := logger.Logger()
	fullCmdStr := GetFullCmdStr(cmdStr, sudo, envVal)

	shell := getShell()
	cmd := exec.Command(shell, "-c", fullCmdStr)
	output, err := cmd.CombinedOutput()
	outputStr := string(output)

	if err != nil {
		if outputStr != "" {
			log.Infof(outputStr)
		}
		return outputStr, fmt.Errorf("failed to exec %s: %w", fullCmdStr, err)
	}
	if outputStr != "" {
		log.Debugf(outputStr)
	}
	return outputStr, nil
}

// execCmdSilent is execCmd without any logging of the command output. Used
// where the output may carry secrets that must stay out of the log stream.
func execCmdSilent(cmdStr string, sudo bool, envVal []string) (string, error) {
	fullCmdStr := GetFullCmdStr(cmdStr, sudo, envVal)

	shell := getShell()
	cmd := exec.Command(shell, "-c", fullCmdStr)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("failed to exec %s: %w", fullCmdStr, err)
	}
	return string(output), nil
}
