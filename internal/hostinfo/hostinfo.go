package hostinfo

import (
	"bufio"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/shell"
)

var (
	OsReleaseFile = "/etc/os-release"

	// Overridable for tests.
	lookupUser  = user.Lookup
	currentUser = user.Current
	geteuid     = os.Geteuid
)

// Context describes the host as seen at startup. It is computed once by
// Detect and never mutated afterwards.
type Context struct {
	EffectiveUID int
	Root         bool
	InvokingUser string // identity that started the process, before sudo
	InvokingHome string
	HomeDegraded bool // home lookup failed, InvokingHome is the working directory
	Codename     string
	Arch         string // deb architecture, e.g. amd64
}

// Detect computes the host context. The invoking identity is taken from
// SUDO_USER when present and resolved through the system identity database,
// never from $HOME, which is unreliable across sudo boundaries.
func Detect() (Context, error) {
	log := logger.Logger()

	euid := geteuid()
	ctx := Context{
		EffectiveUID: euid,
		Root:         euid == 0,
	}

	name, home, degraded := resolveInvokingIdentity()
	ctx.InvokingUser = name
	ctx.InvokingHome = home
	ctx.HomeDegraded = degraded

	codename, err := DetectCodename()
	if err != nil {
		return ctx, fmt.Errorf("failed to detect distribution codename: %w", err)
	}
	ctx.Codename = codename

	arch, err := DetectDebArch()
	if err != nil {
		return ctx, fmt.Errorf("failed to detect host architecture: %w", err)
	}
	ctx.Arch = arch

	log.Infof("Host: codename=%s arch=%s invoking-user=%s home=%s root=%v",
		ctx.Codename, ctx.Arch, ctx.InvokingUser, ctx.InvokingHome, ctx.Root)

	return ctx, nil
}

// resolveInvokingIdentity returns the pre-escalation user name and home
// directory. When the home directory cannot be resolved the current working
// directory is used and the degraded flag is set.
func resolveInvokingIdentity() (string, string, bool) {
	log := logger.Logger()

	name := os.Getenv("SUDO_USER")
	if name == "" {
		if u, err := currentUser(); err == nil {
			name = u.Username
		}
	}

	if name != "" {
		if u, err := lookupUser(name); err == nil && u.HomeDir != "" {
			return name, u.HomeDir, false
		}
		log.Warnf("Could not resolve home directory for user %s", name)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	log.Warnf("Falling back to %s as output location", cwd)
	return name, cwd, true
}

// DetectCodename parses the distribution codename out of /etc/os-release.
// VERSION_CODENAME is preferred; UBUNTU_CODENAME covers derivatives that
// only carry the upstream codename.
func DetectCodename() (string, error) {
	file, err := os.Open(OsReleaseFile)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", OsReleaseFile, err)
	}
	defer file.Close()

	var versionCodename, ubuntuCodename string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"")

		switch key {
		case "VERSION_CODENAME":
			versionCodename = value
		case "UBUNTU_CODENAME":
			ubuntuCodename = value
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading %s: %w", OsReleaseFile, err)
	}

	if versionCodename != "" {
		return versionCodename, nil
	}
	if ubuntuCodename != "" {
		return ubuntuCodename, nil
	}
	return "", fmt.Errorf("no codename found in %s", OsReleaseFile)
}

// DetectDebArch returns the host CPU architecture in deb naming.
func DetectDebArch() (string, error) {
	output, err := shell.ExecCmd("uname -m", false, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get host architecture: %w", err)
	}

	switch arch := strings.TrimSpace(output); arch {
	case "x86_64", "amd64":
		return "amd64", nil
	case "aarch64", "arm64":
		return "arm64", nil
	case "armv7l", "armhf":
		return "armhf", nil
	default:
		return "", fmt.Errorf("unsupported host architecture: %s", arch)
	}
}
