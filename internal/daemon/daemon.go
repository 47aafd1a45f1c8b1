package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jsherman999/liveserve/internal/api"
	"github.com/jsherman999/liveserve/internal/config"
	"github.com/jsherman999/liveserve/internal/fingerprint"
	"github.com/jsherman999/liveserve/internal/logging"
	"github.com/jsherman999/liveserve/internal/watcher"
	"github.com/jsherman999/liveserve/internal/watchhub"
)

// Daemon owns the listener, the hub and the watcher for one served root.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	root   string
	hub    *watchhub.Hub
	ln     net.Listener
	srv    *http.Server
}

// New binds the listen address right away so a port clash is reported before
// anything else starts.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	root, err := filepath.Abs(cfg.Server.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Addr(), err)
	}

	hub := watchhub.New()
	h := api.New(cfg, hub, os.DirFS(root), logger)
	return &Daemon{
		cfg:    cfg,
		logger: logger,
		root:   root,
		hub:    hub,
		ln:     ln,
		srv: &http.Server{
			Handler:           h.Router(),
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          logging.StdLogger(logger, slog.LevelWarn),
		},
	}, nil
}

func (d *Daemon) Addr() net.Addr { return d.ln.Addr() }

// Run serves until ctx is cancelled, then shuts down in order: watcher,
// open reload streams, HTTP server.
func (d *Daemon) Run(ctx context.Context) error {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	var nudges <-chan struct{}
	if d.cfg.Watch.Notify {
		n, err := watcher.NewNotifier(d.root, d.logger)
		if err != nil {
			d.logger.Warn("filesystem notifications unavailable, polling only", slog.Any("err", err))
		} else {
			nudges = n.Nudges()
			defer n.Close()
		}
	}

	w := watcher.New(fingerprint.NewScanner(os.DirFS(d.root)), d.hub, watcher.Options{
		Interval: d.cfg.Watch.Interval,
		Logger:   d.logger,
		Nudges:   nudges,
	})
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		if err := w.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("watcher stopped", slog.Any("err", err))
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		if err := d.srv.Serve(d.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	d.logger.Info("serving", slog.String("url", d.url()), slog.String("root", d.root))
	d.logger.Info("page will refresh automatically when files change")

	var runErr error
	select {
	case <-ctx.Done():
		d.logger.Info("shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("serve: %w", err)
	}

	bgCancel()
	<-watchDone
	d.hub.Close()

	shCtx, cancel := context.WithTimeout(context.Background(), d.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := d.srv.Shutdown(shCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown: %w", err)
	}
	return runErr
}

func (d *Daemon) url() string {
	if tcp, ok := d.ln.Addr().(*net.TCPAddr); ok && d.cfg.Server.Port == 0 {
		c := *d.cfg
		c.Server.Port = tcp.Port
		return c.URL()
	}
	return d.cfg.URL()
}
