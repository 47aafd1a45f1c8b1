package fingerprint

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"testing/fstest"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func touch(t *testing.T, p string, at time.Time) {
	t.Helper()
	if err := os.Chtimes(p, at, at); err != nil {
		t.Fatalf("chtimes %s: %v", p, err)
	}
}

func scan(t *testing.T, s *Scanner) Fingerprint {
	t.Helper()
	fp, err := s.Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return fp
}

func newSite(t *testing.T) (string, *Scanner) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html><body></body></html>")
	writeFile(t, dir, "style.css", "body{}")
	writeFile(t, dir, "js/app.js", "console.log(1)")
	writeFile(t, dir, "notes.txt", "not watched")
	return dir, NewScanner(os.DirFS(dir))
}

func TestScanDeterministic(t *testing.T) {
	_, s := newSite(t)
	first := scan(t, s)
	for i := 0; i < 5; i++ {
		if got := scan(t, s); got != first {
			t.Fatalf("scan %d: expected %s, got %s", i, first, got)
		}
	}
	if first.IsZero() {
		t.Fatal("expected non-zero fingerprint")
	}
}

func TestScanDetectsTouch(t *testing.T) {
	dir, s := newSite(t)
	before := scan(t, s)

	touch(t, filepath.Join(dir, "js", "app.js"), time.Now().Add(time.Minute))
	if after := scan(t, s); after == before {
		t.Fatal("expected fingerprint change after touching watched file")
	}
}

func TestScanIgnoresUnwatchedExtension(t *testing.T) {
	dir, s := newSite(t)
	before := scan(t, s)

	touch(t, filepath.Join(dir, "notes.txt"), time.Now().Add(time.Minute))
	writeFile(t, dir, "README.md", "# hi")
	if after := scan(t, s); after != before {
		t.Fatal("unwatched files must not affect the fingerprint")
	}
}

func TestScanDetectsAddAndRemove(t *testing.T) {
	dir, s := newSite(t)
	before := scan(t, s)

	p := writeFile(t, dir, "img/logo.PNG", "png")
	added := scan(t, s)
	if added == before {
		t.Fatal("expected change after adding a watched file")
	}

	if err := os.Remove(p); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed := scan(t, s); removed == added {
		t.Fatal("expected change after removing a watched file")
	}
}

func TestFilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.html", "")
	writeFile(t, dir, "a/z.css", "")
	writeFile(t, dir, "a.JS", "")
	writeFile(t, dir, "skip.go", "")

	files, err := NewScanner(os.DirFS(dir)).Files()
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	want := []string{"a.JS", "a/z.css", "b.html"}
	if !slices.Equal(files, want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
}

func TestScanMissingRoot(t *testing.T) {
	s := NewScanner(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	if _, err := s.Scan(); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestIsWatched(t *testing.T) {
	cases := map[string]bool{
		"index.html":      true,
		"INDEX.HTML":      true,
		"photo.jpeg":      true,
		"anim.gif":        true,
		"dir/app.js":      true,
		"main.go":         false,
		"html":            false,
		"archive.html.gz": false,
	}
	for name, want := range cases {
		if got := IsWatched(name); got != want {
			t.Errorf("IsWatched(%q): expected %v, got %v", name, want, got)
		}
	}
}

// vanishingFS lists gone in directory reads but fails to stat it, as when a
// file is deleted between the walk and the hash.
type vanishingFS struct {
	fstest.MapFS
	gone string
}

func (v vanishingFS) Stat(name string) (fs.FileInfo, error) {
	if name == v.gone {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return v.MapFS.Stat(name)
}

func TestScanSkipsVanishedFile(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	full := fstest.MapFS{
		"index.html": {ModTime: base},
		"style.css":  {ModTime: base.Add(time.Second)},
		"js/app.js":  {ModTime: base.Add(2 * time.Second)},
		"readme.txt": {ModTime: base.Add(3 * time.Second)},
	}
	without := fstest.MapFS{}
	for name, f := range full {
		if name != "style.css" {
			without[name] = f
		}
	}

	vfs := vanishingFS{MapFS: full, gone: "style.css"}
	files, err := NewScanner(vfs).Files()
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if !slices.Contains(files, "style.css") {
		t.Fatalf("expected style.css to be listed, got %v", files)
	}

	got := scan(t, NewScanner(vfs))
	if want := scan(t, NewScanner(without)); got != want {
		t.Fatalf("expected vanished file to be skipped: want %s, got %s", want, got)
	}
	if scan(t, NewScanner(full)) == got {
		t.Fatal("expected the full tree to hash differently")
	}
}

func TestScanSkipsUnreadableSubtree(t *testing.T) {
	dir, s := newSite(t)
	writeFile(t, dir, "locked/secret.html", "<body></body>")
	locked := filepath.Join(dir, "locked")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	if _, err := s.Scan(); err != nil {
		t.Fatalf("expected scan to succeed with an unreadable subtree, got %v", err)
	}
	files, err := s.Files()
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	// root ignores directory permissions.
	if os.Geteuid() != 0 && slices.Contains(files, "locked/secret.html") {
		t.Fatalf("expected locked subtree to be skipped, got %v", files)
	}
	if !slices.Contains(files, "index.html") {
		t.Fatalf("expected readable files to remain, got %v", files)
	}
}
