package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != "liveserve "+Version {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFingerprintCommand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"index.html", "style.css", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	out, err := run(t, "fingerprint", "--root", dir, "--list")
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if !regexp.MustCompile(`files=2 fingerprint=[0-9a-f]{64}`).MatchString(out) {
		t.Fatalf("unexpected summary %q", out)
	}
	if !strings.Contains(out, "\nindex.html\nstyle.css\n") {
		t.Fatalf("expected sorted file list, got %q", out)
	}

	again, err := run(t, "fingerprint", "--root", dir)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if first := strings.SplitN(out, "\n", 2)[0]; strings.TrimSpace(again) != first {
		t.Fatalf("expected stable fingerprint, got %q then %q", first, again)
	}
}

func TestFingerprintMissingRoot(t *testing.T) {
	if _, err := run(t, "fingerprint", "--root", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestServeRejectsBadPort(t *testing.T) {
	if _, err := run(t, "--port", "70000", "--root", t.TempDir()); err == nil {
		t.Fatal("expected validation error for port 70000")
	}
}
