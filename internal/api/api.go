package api

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jsherman999/liveserve/internal/config"
	"github.com/jsherman999/liveserve/internal/logging"
	"github.com/jsherman999/liveserve/internal/watchhub"
	"github.com/jsherman999/liveserve/internal/webui"
)

type API struct {
	cfg    *config.Config
	hub    *watchhub.Hub
	fsys   fs.FS
	logger *slog.Logger
}

func New(cfg *config.Config, hub *watchhub.Hub, fsys fs.FS, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{cfg: cfg, hub: hub, fsys: fsys, logger: logger}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if a.cfg.Log.Access {
		r.Use(accessLog(a.logger))
	}

	// SSE stream the injected script listens on.
	r.Method(http.MethodGet, webui.ReloadPath, StreamHandler(a.hub, a.cfg.Stream.PingInterval, a.logger))

	// Everything else is a file under the served root.
	content := webui.New(a.fsys, a.logger)
	r.Get("/*", content.ServeHTTP)
	r.Head("/*", content.ServeHTTP)

	return r
}

// accessLog logs one line per request except for the reload stream, which
// would otherwise add a line per open tab on every reconnect.
func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	logged := middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logging.StdLogger(logger, slog.LevelInfo),
		NoColor: true,
	})
	return func(next http.Handler) http.Handler {
		withLog := logged(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == webui.ReloadPath {
				next.ServeHTTP(w, r)
				return
			}
			withLog.ServeHTTP(w, r)
		})
	}
}
