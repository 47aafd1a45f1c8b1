package api

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultPingInterval keeps proxies and the browser's EventSource from
// treating an idle stream as dead.
const DefaultPingInterval = 25 * time.Second

var (
	reloadFrame = []byte("data: reload\n\n")
	pingFrame   = []byte(": ping\n\n")
)

type Registry interface {
	Register() <-chan struct{}
	Unregister(ch <-chan struct{})
}

// StreamHandler serves one server-sent-events stream per request. Each
// signal from the registry becomes a reload frame; idle periods of ping
// produce a comment frame. The channel is unregistered however the loop ends.
func StreamHandler(reg Registry, ping time.Duration, logger *slog.Logger) http.Handler {
	if ping <= 0 {
		ping = DefaultPingInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(http.Flusher); !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		rc := http.NewResponseController(w)

		ch := reg.Register()
		if ch == nil {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}
		defer reg.Unregister(ch)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		if err := rc.Flush(); err != nil {
			logger.Debug("reload stream flush failed", slog.String("remote", r.RemoteAddr), slog.Any("err", err))
			return
		}

		// a failed write or flush means the peer is gone.
		send := func(frame []byte) bool {
			if _, err := w.Write(frame); err != nil {
				logger.Debug("reload stream write failed", slog.String("remote", r.RemoteAddr), slog.Any("err", err))
				return false
			}
			if err := rc.Flush(); err != nil {
				logger.Debug("reload stream flush failed", slog.String("remote", r.RemoteAddr), slog.Any("err", err))
				return false
			}
			return true
		}

		timer := time.NewTimer(ping)
		defer timer.Stop()

		for {
			var frame []byte
			select {
			case <-r.Context().Done():
				logger.Debug("reload stream closed", slog.String("remote", r.RemoteAddr))
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				frame = reloadFrame
			case <-timer.C:
				frame = pingFrame
			}
			if !send(frame) {
				return
			}
			resetTimer(timer, ping)
		}
	})
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
