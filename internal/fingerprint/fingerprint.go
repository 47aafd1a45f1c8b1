// Package fingerprint summarizes the modification times of every watched file
// under a directory into one digest.
package fingerprint

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// extensions is the fixed set of suffixes that take part in change detection.
var extensions = []string{".html", ".css", ".js", ".jpg", ".jpeg", ".png", ".gif"}

// Extensions returns a copy of the watched extension set.
func Extensions() []string {
	return slices.Clone(extensions)
}

// IsWatched reports whether name has a watched extension (case-insensitive).
func IsWatched(name string) bool {
	return slices.Contains(extensions, strings.ToLower(path.Ext(name)))
}

// Fingerprint is a blake2b-256 digest. The zero value means "not computed".
type Fingerprint [blake2b.Size256]byte

func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

func (f Fingerprint) IsZero() bool { return f == Fingerprint{} }

type Scanner struct {
	fsys fs.FS
}

func NewScanner(fsys fs.FS) *Scanner {
	return &Scanner{fsys: fsys}
}

// Files lists watched regular files in sorted order. Unreadable subtrees are
// skipped; only a failure to read the root itself is returned.
func (s *Scanner) Files() ([]string, error) {
	var out []string
	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsWatched(p) {
			return nil
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk root: %w", err)
	}
	slices.Sort(out)
	return out, nil
}

// Scan hashes the nanosecond mtime of every watched file. A file that
// vanishes or cannot be stat'ed between listing and hashing is left out.
func (s *Scanner) Scan() (Fingerprint, error) {
	files, err := s.Files()
	if err != nil {
		return Fingerprint{}, err
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return Fingerprint{}, err
	}
	buf := make([]byte, 0, 24)
	for _, p := range files {
		info, err := fs.Stat(s.fsys, p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		buf = strconv.AppendInt(buf[:0], info.ModTime().UnixNano(), 10)
		buf = append(buf, '\n')
		_, _ = h.Write(buf)
	}

	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp, nil
}
