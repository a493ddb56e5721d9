package artifact

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// tarGzArchive builds a tar.gz archive holding the given files.
func tarGzArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{
			Name: name,
			Mode: 0755,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("tar write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func serveArchive(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(server.Close)

	prev := httpClient
	httpClient = server.Client()
	t.Cleanup(func() { httpClient = prev })
	return server
}

func TestInstallExtractsAndInstallsBinary(t *testing.T) {
	archive := tarGzArchive(t, map[string]string{
		"appstack-1.4.2/README.md": "docs",
		"appstack-1.4.2/appstack":  "#!/bin/sh\necho appstack\n",
	})
	server := serveArchive(t, archive)

	dest := filepath.Join(t.TempDir(), "appstack")
	if err := Install(server.URL+"/appstack-1.4.2-linux-amd64.tar.gz", "appstack", dest); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	content, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read installed binary: %v", err)
	}
	if string(content) != "#!/bin/sh\necho appstack\n" {
		t.Errorf("unexpected binary content: %q", content)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat installed binary: %v", err)
	}
	if info.Mode().Perm()&0111 == 0 {
		t.Errorf("installed binary is not executable: %v", info.Mode())
	}
}

func TestInstallIsIdempotent(t *testing.T) {
	archive := tarGzArchive(t, map[string]string{"appstack": "binary-v1"})
	server := serveArchive(t, archive)

	dest := filepath.Join(t.TempDir(), "appstack")
	url := server.URL + "/appstack-linux-amd64.tar.gz"

	if err := Install(url, "appstack", dest); err != nil {
		t.Fatalf("first install failed: %v", err)
	}
	if err := Install(url, "appstack", dest); err != nil {
		t.Fatalf("second install failed: %v", err)
	}

	content, _ := os.ReadFile(dest)
	if string(content) != "binary-v1" {
		t.Errorf("unexpected content after re-install: %q", content)
	}

	// No stale staging files may remain next to the binary.
	entries, err := os.ReadDir(filepath.Dir(dest))
	if err != nil {
		t.Fatalf("list dest dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the installed binary, found %d entries", len(entries))
	}
}

func TestInstallEmptyArchiveDistinctError(t *testing.T) {
	server := serveArchive(t, nil)

	dest := filepath.Join(t.TempDir(), "appstack")
	err := Install(server.URL+"/appstack.tar.gz", "appstack", dest)
	var emptyErr *EmptyArchiveError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected *EmptyArchiveError, got %v", err)
	}
	var dlErr *DownloadError
	if errors.As(err, &dlErr) {
		t.Error("empty archive must not be reported as a download failure")
	}
}

func TestInstallHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such release", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	prev := httpClient
	httpClient = server.Client()
	t.Cleanup(func() { httpClient = prev })

	err := Install(server.URL+"/appstack.tar.gz", "appstack", filepath.Join(t.TempDir(), "appstack"))
	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("expected *DownloadError, got %v", err)
	}
}

func TestInstallBinaryMissingFromArchive(t *testing.T) {
	archive := tarGzArchive(t, map[string]string{"README.md": "docs only"})
	server := serveArchive(t, archive)

	err := Install(server.URL+"/appstack.tar.gz", "appstack", filepath.Join(t.TempDir(), "appstack"))
	var exErr *ExtractError
	if !errors.As(err, &exErr) {
		t.Fatalf("expected *ExtractError, got %v", err)
	}
}

func TestInstallCorruptArchive(t *testing.T) {
	server := serveArchive(t, []byte("this is not gzip data"))

	err := Install(server.URL+"/appstack.tar.gz", "appstack", filepath.Join(t.TempDir(), "appstack"))
	var exErr *ExtractError
	if !errors.As(err, &exErr) {
		t.Fatalf("expected *ExtractError, got %v", err)
	}
}
