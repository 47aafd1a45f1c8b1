package watcher

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jsherman999/liveserve/internal/fingerprint"
)

// DefaultInterval is short enough to feel instant after a save and long
// enough to keep the walk cheap.
const DefaultInterval = 400 * time.Millisecond

type State int32

const (
	Idle State = iota
	Scanning
)

func (s State) String() string {
	if s == Scanning {
		return "scanning"
	}
	return "idle"
}

type Scanner interface {
	Scan() (fingerprint.Fingerprint, error)
}

type Broadcaster interface {
	Broadcast()
}

type Options struct {
	Interval time.Duration
	Logger   *slog.Logger
	// Nudges triggers an immediate scan in addition to the ticker.
	Nudges <-chan struct{}
}

// Watcher polls the fingerprint of the served tree and broadcasts a reload
// whenever it differs from the previous one.
type Watcher struct {
	scanner  Scanner
	out      Broadcaster
	interval time.Duration
	logger   *slog.Logger
	nudges   <-chan struct{}

	state   atomic.Int32
	last    fingerprint.Fingerprint
	failing bool
}

func New(scanner Scanner, out Broadcaster, opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Watcher{
		scanner:  scanner,
		out:      out,
		interval: opts.Interval,
		logger:   opts.Logger,
		nudges:   opts.Nudges,
	}
}

func (w *Watcher) State() State {
	return State(w.state.Load())
}

// Run blocks until ctx is cancelled and returns ctx.Err(). A failed scan is
// logged and retried on the next tick; it never stops the loop.
func (w *Watcher) Run(ctx context.Context) error {
	w.check()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.check()
		case _, ok := <-w.nudges:
			if !ok {
				w.nudges = nil
				continue
			}
			w.check()
		}
	}
}

// check performs one scan and reports whether a reload was broadcast.
func (w *Watcher) check() bool {
	w.state.Store(int32(Scanning))
	defer w.state.Store(int32(Idle))

	fp, err := w.scanner.Scan()
	if err != nil {
		if !w.failing {
			w.failing = true
			w.logger.Warn("watcher scan failed; live reload paused until it recovers", slog.Any("err", err))
		}
		return false
	}
	if w.failing {
		w.failing = false
		w.logger.Info("watcher scan recovered")
	}

	if w.last.IsZero() {
		w.last = fp
		return false
	}
	if fp == w.last {
		return false
	}
	w.last = fp
	w.logger.Debug("change detected", slog.String("fingerprint", fp.String()))
	w.out.Broadcast()
	return true
}
