package runner

import (
	"bytes"
	"errors"
	"os"
	"testing"
)

func captureConsole(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := consoleOut
	buf := &bytes.Buffer{}
	consoleOut = buf
	t.Cleanup(func() { consoleOut = prev })
	return buf
}

func TestRunCapturesOutputVerbatim(t *testing.T) {
	console := captureConsole(t)

	result, err := Run("/bin/sh", "-c", "printf 'line one\\nline two\\n'")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	t.Cleanup(func() { os.Remove(result.LogPath) })

	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", result.ExitCode)
	}

	captured, err := os.ReadFile(result.LogPath)
	if err != nil {
		t.Fatalf("read capture file: %v", err)
	}
	want := "line one\nline two\n"
	if string(captured) != want {
		t.Errorf("capture file = %q, want %q", captured, want)
	}
	if console.String() != want {
		t.Errorf("console = %q, want %q", console.String(), want)
	}
}

func TestRunMergesStderrInOrder(t *testing.T) {
	captureConsole(t)

	result, err := Run("/bin/sh", "-c", "echo out1; echo err1 >&2; echo out2")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	t.Cleanup(func() { os.Remove(result.LogPath) })

	captured, _ := os.ReadFile(result.LogPath)
	if string(captured) != "out1\nerr1\nout2\n" {
		t.Errorf("expected interleaved stream in arrival order, got %q", captured)
	}
}

func TestRunNonZeroExitIsSubprocessError(t *testing.T) {
	captureConsole(t)

	result, err := Run("/bin/sh", "-c", "echo partial; exit 7")
	t.Cleanup(func() { os.Remove(result.LogPath) })

	var subErr *SubprocessError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected *SubprocessError, got %v", err)
	}
	if subErr.ExitCode != 7 || result.ExitCode != 7 {
		t.Errorf("expected exit code 7, got %d/%d", subErr.ExitCode, result.ExitCode)
	}

	// Output emitted before the failure must still be captured.
	captured, _ := os.ReadFile(result.LogPath)
	if string(captured) != "partial\n" {
		t.Errorf("capture file = %q, want %q", captured, "partial\n")
	}
}

func TestRunMissingBinaryIsHardFailure(t *testing.T) {
	captureConsole(t)

	result, err := Run("/no/such/binary-xyz")
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	var subErr *SubprocessError
	if errors.As(err, &subErr) {
		t.Error("start failure must not be a SubprocessError")
	}
	if result.LogPath != "" {
		os.Remove(result.LogPath)
	}
}

func TestRunCaptureFilesAreUnique(t *testing.T) {
	captureConsole(t)

	r1, err := Run("/bin/sh", "-c", "true")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	r2, err := Run("/bin/sh", "-c", "true")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	t.Cleanup(func() {
		os.Remove(r1.LogPath)
		os.Remove(r2.LogPath)
	})

	if r1.LogPath == r2.LogPath {
		t.Errorf("expected unique capture files, both were %s", r1.LogPath)
	}
}
