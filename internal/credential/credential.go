// Package credential recovers the admin credential from a captured install
// log, with a tool-query fallback.
package credential

import (
	"bufio"
	"os"
	"strings"

	"github.com/muesli/crunchy"

	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/shell"
)

const marker = "password"

// QueryFunc retrieves a stored credential directly from the installed tool.
type QueryFunc func() (string, error)

// ToolQuery returns a QueryFunc that asks the tool for a stored config
// value. It runs through the silent exec path so the secret never reaches
// the log stream.
func ToolQuery(binary, key string) QueryFunc {
	return func() (string, error) {
		return shell.ExecCmdSilent(binary+" config get "+key, true, nil)
	}
}

// Extract scans the capture file for the credential. The last line carrying
// the marker wins, since later output supersedes earlier diagnostic
// mentions. When the scan yields nothing the fallback query is tried. An
// absent credential is an expected outcome, not an error.
func Extract(logPath string, fallback QueryFunc) (string, bool) {
	log := logger.Logger()

	if secret := scanCaptureFile(logPath); secret != "" {
		warnIfWeak(secret)
		return secret, true
	}

	if fallback != nil {
		log.Infof("No credential in install output, querying the tool directly")
		if output, err := fallback(); err == nil {
			if secret := strings.TrimRight(output, "\r\n"); secret != "" {
				warnIfWeak(secret)
				return secret, true
			}
		} else {
			log.Warnf("Credential fallback query failed: %v", err)
		}
	}

	return "", false
}

func scanCaptureFile(logPath string) string {
	log := logger.Logger()

	file, err := os.Open(logPath)
	if err != nil {
		log.Warnf("Cannot open capture file %s: %v", logPath, err)
		return ""
	}
	defer file.Close()

	var last string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if secret := parseLine(scanner.Text()); secret != "" {
			last = secret
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warnf("Error reading capture file %s: %v", logPath, err)
	}
	return last
}

// parseLine strips everything up to and including the marker plus the
// punctuation run that follows it. A line whose remainder is empty does not
// count as a match.
func parseLine(line string) string {
	idx := strings.Index(strings.ToLower(line), marker)
	if idx < 0 {
		return ""
	}
	rest := line[idx+len(marker):]
	rest = strings.TrimLeft(rest, " \t:=-")
	return strings.TrimSpace(rest)
}

// warnIfWeak flags generated credentials that look trivially guessable.
// Purely advisory; the credential is persisted either way.
func warnIfWeak(secret string) {
	validator := crunchy.NewValidator()
	if err := validator.Check(secret); err != nil {
		logger.Logger().Warnf("Captured credential looks weak: %v", err)
	}
}
