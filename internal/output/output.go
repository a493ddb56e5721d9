// Package output persists the captured credential under the invoking
// user's home directory.
package output

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/open-edge-platform/host-bootstrap/internal/config"
	"github.com/open-edge-platform/host-bootstrap/internal/hostinfo"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
)

var (
	lookupUser = user.Lookup
	chown      = os.Chown
)

// NoCredentialError means no credential was captured by either extraction
// strategy. The writer never produces an empty or placeholder file.
type NoCredentialError struct{}

func (e *NoCredentialError) Error() string {
	return "no credential was captured; nothing to write"
}

// Write persists the credential as exactly the secret followed by a newline
// at <invoking-home>/<subdir>/<filename>. The file appears atomically: it
// is staged in the target directory and renamed into place.
func Write(secret string, host hostinfo.Context, cfg config.OutputConfig) (string, error) {
	log := logger.Logger()

	if secret == "" {
		return "", &NoCredentialError{}
	}

	if host.HomeDegraded {
		log.Warnf("Home directory resolution failed earlier; writing credential to %s", host.InvokingHome)
	}

	dir := filepath.Join(host.InvokingHome, cfg.Subdir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	staged, err := os.CreateTemp(dir, "."+cfg.Filename+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to stage credential file: %w", err)
	}
	stagedPath := staged.Name()

	if _, err := staged.WriteString(secret + "\n"); err != nil {
		staged.Close()
		os.Remove(stagedPath)
		return "", fmt.Errorf("failed to write credential: %w", err)
	}
	if err := staged.Chmod(0600); err != nil {
		staged.Close()
		os.Remove(stagedPath)
		return "", fmt.Errorf("failed to restrict credential file mode: %w", err)
	}
	if err := staged.Sync(); err != nil {
		staged.Close()
		os.Remove(stagedPath)
		return "", fmt.Errorf("failed to flush credential file: %w", err)
	}
	if err := staged.Close(); err != nil {
		os.Remove(stagedPath)
		return "", fmt.Errorf("failed to close credential file: %w", err)
	}

	target := filepath.Join(dir, cfg.Filename)
	if err := os.Rename(stagedPath, target); err != nil {
		os.Remove(stagedPath)
		return "", fmt.Errorf("failed to move credential file into place: %w", err)
	}

	restoreOwnership(host, dir, target)

	log.Infof("Credential written to %s", target)
	return target, nil
}

// restoreOwnership hands the output back to the invoking user when the
// process runs escalated. Best-effort: the file is already in place.
func restoreOwnership(host hostinfo.Context, paths ...string) {
	log := logger.Logger()

	if !host.Root || host.InvokingUser == "" {
		return
	}
	u, err := lookupUser(host.InvokingUser)
	if err != nil {
		log.Warnf("Cannot look up %s to restore ownership: %v", host.InvokingUser, err)
		return
	}
	uid, err1 := strconv.Atoi(u.Uid)
	gid, err2 := strconv.Atoi(u.Gid)
	if err1 != nil || err2 != nil {
		return
	}
	for _, path := range paths {
		if err := chown(path, uid, gid); err != nil {
			log.Warnf("Failed to chown %s to %s: %v", path, host.InvokingUser, err)
		}
	}
}
