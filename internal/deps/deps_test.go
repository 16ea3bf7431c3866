package deps

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a unix shell")
	}
}

func TestCheckPrefersLocalBinary(t *testing.T) {
	skipOnWindows(t)
	binDir := t.TempDir()
	local := writeStub(t, binDir, "chromedriver", "#!/bin/sh\nexit 1\n")

	pathDir := t.TempDir()
	writeStub(t, pathDir, "chromedriver", "#!/bin/sh\necho system\n")
	t.Setenv("PATH", pathDir)

	status := NewProbe(local, "chromedriver").Check(context.Background())
	if status.Decision != UseLocal {
		t.Fatalf("decision = %v, want use-local", status.Decision)
	}
	if status.Path() != local {
		t.Fatalf("path = %q, want %q", status.Path(), local)
	}
}

func TestCheckUsesWorkingSystemBinary(t *testing.T) {
	skipOnWindows(t)
	pathDir := t.TempDir()
	stub := writeStub(t, pathDir, "chromedriver", "#!/bin/sh\necho 'ChromeDriver 2.38.552522'\necho noise >&2\n")
	t.Setenv("PATH", pathDir)

	status := NewProbe(filepath.Join(t.TempDir(), "chromedriver"), "chromedriver").Check(context.Background())
	if status.Decision != UseSystemPath {
		t.Fatalf("decision = %v (%s), want use-system-path", status.Decision, status.Detail)
	}
	if status.Version != "ChromeDriver 2.38.552522" {
		t.Fatalf("version = %q", status.Version)
	}
	if status.Path() != stub {
		t.Fatalf("path = %q, want %q", status.Path(), stub)
	}
}

func TestCheckFailingSystemBinaryNeedsProvision(t *testing.T) {
	skipOnWindows(t)
	pathDir := t.TempDir()
	writeStub(t, pathDir, "chromedriver", "#!/bin/sh\nexit 3\n")
	t.Setenv("PATH", pathDir)

	status := NewProbe(filepath.Join(t.TempDir(), "chromedriver"), "chromedriver").Check(context.Background())
	if status.Decision != NeedsProvision {
		t.Fatalf("decision = %v, want needs-provision", status.Decision)
	}
	if !strings.Contains(status.Detail, "status 3") {
		t.Fatalf("detail = %q", status.Detail)
	}
	if status.Path() != "" {
		t.Fatalf("path = %q, want empty", status.Path())
	}
}

func TestCheckMissingEverywhere(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	status := NewProbe(filepath.Join(t.TempDir(), "chromedriver"), "clearly-not-present-binary").Check(context.Background())
	if status.Decision != NeedsProvision {
		t.Fatalf("decision = %v, want needs-provision", status.Decision)
	}
	if !strings.Contains(status.Detail, "not found") {
		t.Fatalf("detail = %q", status.Detail)
	}
}

func TestCheckUnconfiguredCommand(t *testing.T) {
	status := NewProbe("", " ").Check(context.Background())
	if status.Decision != NeedsProvision || status.Detail != "command not configured" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestDecisionString(t *testing.T) {
	for decision, want := range map[Decision]string{
		UseLocal:       "use-local",
		UseSystemPath:  "use-system-path",
		NeedsProvision: "needs-provision",
	} {
		if decision.String() != want {
			t.Fatalf("%d.String() = %q, want %q", decision, decision.String(), want)
		}
	}
}
