package webui

import (
	"bytes"
	_ "embed"
)

// ReloadPath is the endpoint the injected script listens on.
const ReloadPath = "/--livereload--"

//go:embed static/livereload.html
var reloadScript []byte

// Script returns the snippet spliced into served HTML documents.
func Script() []byte {
	return bytes.Clone(reloadScript)
}

var closeBody = []byte("</body>")

// Inject returns a copy of doc with the reload script inserted right before
// the last closing body tag. Documents without one are returned unchanged.
func Inject(doc []byte) []byte {
	i := lastIndexFold(doc, closeBody)
	if i < 0 {
		return doc
	}
	out := make([]byte, 0, len(doc)+len(reloadScript))
	out = append(out, doc[:i]...)
	out = append(out, reloadScript...)
	out = append(out, doc[i:]...)
	return out
}

// lastIndexFold is bytes.LastIndex with ASCII case folding; sep must be
// lower case.
func lastIndexFold(s, sep []byte) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j, c := range sep {
			b := s[i+j]
			if 'A' <= b && b <= 'Z' {
				b += 'a' - 'A'
			}
			if b != c {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
