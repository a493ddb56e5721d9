// Package aptrepo configures a signed third-party apt repository.
package aptrepo

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp/armor"

	"github.com/open-edge-platform/host-bootstrap/internal/aptpkg"
	"github.com/open-edge-platform/host-bootstrap/internal/config"
	"github.com/open-edge-platform/host-bootstrap/internal/hostinfo"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/network"
)

var (
	KeyringDir = "/etc/apt/keyrings"
	SourcesDir = "/etc/apt/sources.list.d"

	httpClient *http.Client = network.NewSecureHTTPClient()
)

// Descriptor records the configured repository. Written once by Configure,
// read-only afterwards.
type Descriptor struct {
	KeyURL      string
	KeyringPath string
	URL         string
	Codename    string
	Arch        string
	SourcesPath string
}

// Configure fetches the repository signing key into the keyring directory,
// writes the sources entry with the codename remapped into the supported
// set, and refreshes the package index best-effort.
func Configure(cfg config.RepositoryConfig, host hostinfo.Context) (Descriptor, error) {
	log := logger.Logger()

	desc := Descriptor{
		KeyURL:      cfg.KeyURL,
		KeyringPath: filepath.Join(KeyringDir, cfg.Name+".gpg"),
		URL:         cfg.URL,
		Codename:    ResolveCodename(host.Codename),
		Arch:        host.Arch,
		SourcesPath: filepath.Join(SourcesDir, cfg.Name+".list"),
	}
	if desc.Codename != host.Codename {
		log.Infof("Remapped codename %s to %s for repository %s", host.Codename, desc.Codename, cfg.Name)
	}

	key, err := fetchSigningKey(cfg.KeyURL)
	if err != nil {
		return desc, err
	}

	// World-readable: apt fetches indices as an unprivileged user and must
	// be able to read the keyring.
	if err := os.MkdirAll(KeyringDir, 0755); err != nil {
		return desc, &KeyringError{Path: KeyringDir, Err: err}
	}
	if err := os.WriteFile(desc.KeyringPath, key, 0644); err != nil {
		return desc, &KeyringError{Path: desc.KeyringPath, Err: err}
	}
	log.Infof("Wrote signing key to %s", desc.KeyringPath)

	component := cfg.Component
	if component == "" {
		component = "stable"
	}
	line := fmt.Sprintf("deb [arch=%s signed-by=%s] %s %s %s\n",
		desc.Arch, desc.KeyringPath, desc.URL, desc.Codename, component)
	if err := os.MkdirAll(SourcesDir, 0755); err != nil {
		return desc, &KeyringError{Path: SourcesDir, Err: err}
	}
	if err := os.WriteFile(desc.SourcesPath, []byte(line), 0644); err != nil {
		return desc, &KeyringError{Path: desc.SourcesPath, Err: err}
	}
	log.Infof("Wrote repository entry %s", desc.SourcesPath)

	// Non-fatal: some environments resolve the new repository only later,
	// and the real failure surfaces when the package cannot be found.
	if err := aptpkg.Update(); err != nil {
		log.Warnf("Package index refresh failed after adding repository: %v", err)
	}

	return desc, nil
}

// fetchSigningKey downloads the key and returns it in binary OpenPGP form,
// dearmoring ASCII-armored keys the way apt-key add used to.
func fetchSigningKey(url string) ([]byte, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, &KeyFetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &KeyFetchError{URL: url, Err: fmt.Errorf("bad status: %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &KeyFetchError{URL: url, Err: err}
	}
	if len(body) == 0 {
		return nil, &KeyFetchError{URL: url, Err: fmt.Errorf("empty response body")}
	}

	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("-----BEGIN PGP")) {
		block, err := armor.Decode(bytes.NewReader(body))
		if err != nil {
			return nil, &KeyFetchError{URL: url, Err: fmt.Errorf("invalid armored key: %w", err)}
		}
		binary, err := io.ReadAll(block.Body)
		if err != nil {
			return nil, &KeyFetchError{URL: url, Err: fmt.Errorf("failed to dearmor key: %w", err)}
		}
		return binary, nil
	}

	// Binary OpenPGP packets always have the high bit of the first octet set.
	if body[0]&0x80 == 0 {
		return nil, &KeyFetchError{URL: url, Err: fmt.Errorf("response is not an OpenPGP key")}
	}
	return body, nil
}
