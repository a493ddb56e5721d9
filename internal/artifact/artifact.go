// Package artifact downloads a versioned release archive and installs the
// contained binary to a fixed path.
package artifact

import (
	"archive/tar"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/schollz/progressbar/v3"
	"github.com/ulikunitz/xz"

	"github.com/open-edge-platform/host-bootstrap/internal/utils/logger"
	"github.com/open-edge-platform/host-bootstrap/internal/utils/network"
)

var httpClient *http.Client = network.NewSecureHTTPClient()

// Install downloads the archive at url into a scratch directory, extracts
// the member named binaryName, and moves it to destPath with execute
// permission. The final move is an atomic rename over any previous version,
// so re-installing the same release is idempotent.
func Install(url, binaryName, destPath string) error {
	log := logger.Logger()

	scratch, err := os.MkdirTemp("", "host-bootstrap-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	archivePath := filepath.Join(scratch, path.Base(url))
	if err := download(url, archivePath); err != nil {
		return err
	}

	extracted := filepath.Join(scratch, binaryName)
	if err := extractBinary(archivePath, binaryName, extracted); err != nil {
		return err
	}
	if err := os.Chmod(extracted, 0755); err != nil {
		return fmt.Errorf("failed to set execute permission: %w", err)
	}

	// Rename is only atomic within one filesystem, so stage the binary next
	// to its final location first.
	staged := destPath + ".tmp-" + uuid.NewString()
	if err := copyFile(extracted, staged, 0755); err != nil {
		return fmt.Errorf("failed to stage binary at %s: %w", staged, err)
	}
	if err := os.Rename(staged, destPath); err != nil {
		os.Remove(staged)
		return fmt.Errorf("failed to install binary to %s: %w", destPath, err)
	}

	log.Infof("Installed %s to %s", binaryName, destPath)
	return nil
}

func download(url, destPath string) error {
	log := logger.Logger()
	log.Infof("Downloading %s", url)

	resp, err := httpClient.Get(url)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &DownloadError{URL: url, Err: fmt.Errorf("bad status: %s", resp.Status)}
	}

	out, err := os.Create(destPath)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	defer out.Close()

	bar := progressbar.NewOptions64(resp.ContentLength,
		progressbar.OptionSetDescription("downloading "+path.Base(url)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
	)

	written, err := io.Copy(io.MultiWriter(out, bar), resp.Body)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	bar.Finish()

	if written == 0 {
		return &EmptyArchiveError{URL: url}
	}
	return nil
}

// extractBinary scans the tar archive for a member whose base name matches
// binaryName and writes it to destPath.
func extractBinary(archivePath, binaryName, destPath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return &ExtractError{Archive: archivePath, Err: err}
	}
	defer f.Close()

	var reader io.Reader
	switch {
	case strings.HasSuffix(archivePath, ".tar.gz") || strings.HasSuffix(archivePath, ".tgz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return &ExtractError{Archive: archivePath, Err: err}
		}
		defer gz.Close()
		reader = gz
	case strings.HasSuffix(archivePath, ".tar.xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			return &ExtractError{Archive: archivePath, Err: err}
		}
		reader = xzr
	default:
		return &ExtractError{Archive: archivePath, Err: fmt.Errorf("unsupported archive format")}
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &ExtractError{Archive: archivePath, Err: err}
		}
		if hdr.Typeflag != tar.TypeReg || filepath.Base(hdr.Name) != binaryName {
			continue
		}

		out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
		if err != nil {
			return &ExtractError{Archive: archivePath, Err: err}
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return &ExtractError{Archive: archivePath, Err: err}
		}
		return out.Close()
	}

	return &ExtractError{Archive: archivePath, Err: fmt.Errorf("binary %s not found in archive", binaryName)}
}

func copyFile(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
