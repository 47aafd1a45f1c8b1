package webui

import (
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
)

// Responder serves files from fsys. HTML gets the reload script injected,
// CSS is served with an explicit no-cache header, and everything else goes
// to http.FileServerFS.
type Responder struct {
	fsys   fs.FS
	files  http.Handler
	logger *slog.Logger
}

func New(fsys fs.FS, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{fsys: fsys, files: http.FileServerFS(fsys), logger: logger}
}

func (rs *Responder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name, ok := rs.resolve(r.URL.Path)
	if ok {
		switch strings.ToLower(path.Ext(name)) {
		case ".html":
			rs.serveHTML(w, r, name)
			return
		case ".css":
			rs.serveBytes(w, r, name, "text/css; charset=utf-8", false)
			return
		}
	}
	rs.files.ServeHTTP(w, r)
}

// resolve maps a URL path to an existing regular file in fsys. Directories
// map to their index.html, but only when the URL already ends in a slash so
// the file server can issue its canonical redirect first. A file named with a
// trailing slash is left to the file server as well.
func (rs *Responder) resolve(urlPath string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = "."
	}
	info, err := fs.Stat(rs.fsys, name)
	if err != nil {
		return "", false
	}
	slash := strings.HasSuffix(urlPath, "/")
	if slash && !info.IsDir() {
		return "", false
	}
	if info.IsDir() {
		if !slash {
			return "", false
		}
		name = path.Join(name, "index.html")
		if info, err = fs.Stat(rs.fsys, name); err != nil {
			return "", false
		}
	}
	if !info.Mode().IsRegular() {
		return "", false
	}
	return name, true
}

func (rs *Responder) serveHTML(w http.ResponseWriter, r *http.Request, name string) {
	rs.serveBytes(w, r, name, "text/html; charset=utf-8", true)
}

func (rs *Responder) serveBytes(w http.ResponseWriter, r *http.Request, name, contentType string, inject bool) {
	b, err := fs.ReadFile(rs.fsys, name)
	if err != nil {
		// raced with a delete or lost permission; the file server owns the error page.
		rs.logger.Debug("read failed, delegating", slog.String("path", name), slog.Any("err", err))
		rs.files.ServeHTTP(w, r)
		return
	}
	if inject {
		b = Inject(b)
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(b)))
	h.Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(b)
}
