// Package dominject augments a third-party looking-glass SPA with two
// owned fragments: a cross-instance location bar fixed to the top of the
// page, and a speed-test download panel placed next to the host's query
// form. It controls none of the host markup, so every placement runs
// through anchor fallback chains and every fragment carries a marker id
// that makes reinjection idempotent.
//
// dominject decorates, it does not interpret. The host's router, state
// and network traffic stay untouched; lifecycle events are emitted to
// sinks (stdout, webhook, sqlite, callback) for whoever wants them.
package dominject

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/dominject/internal/config"
	"github.com/hazyhaar/dominject/internal/dom"
	"github.com/hazyhaar/dominject/internal/inject"
	"github.com/hazyhaar/dominject/internal/sink"
	"github.com/hazyhaar/dominject/internal/theme"
)

// ThemeKeys names the host's theme signals.
type ThemeKeys = theme.Keys

// Stats is a controller activity snapshot.
type Stats = inject.Stats

// Options configures an Injector.
type Options struct {
	// Theme overrides the default storage key, dark class and theme
	// attribute names.
	Theme ThemeKeys

	// PanelDelay is the pause before the panel step of a mount.
	// Default: 500ms.
	PanelDelay time.Duration

	// AnchorRetries bounds polling for the host's query form.
	// Default: 10.
	AnchorRetries int

	// AnchorInterval is the pause between polls. Default: 200ms.
	AnchorInterval time.Duration

	// SettleDelay is the pause after the window load signal before the
	// second injection pass. SPA hosts routinely rebuild the body during
	// hydration, wiping the first pass. Default: 1s.
	SettleDelay time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Sinks receive lifecycle events.
	Sinks []Sink
}

func (o *Options) defaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Injector is the top-level orchestrator. Configuration is resolved once
// at construction; one Injector can drive any number of documents.
type Injector struct {
	cfg    config.Config
	opts   Options
	sinkR  *sink.Router
	logger *slog.Logger

	mu    sync.Mutex
	ctrls []*inject.Controller
	stops []func()
}

// New creates an Injector. overrides may be nil for the built-in
// defaults; a supplied top-level key replaces the default wholesale.
func New(overrides *Overrides, opts Options) *Injector {
	opts.defaults()
	return &Injector{
		cfg:    config.Resolve(overrides),
		opts:   opts,
		sinkR:  sink.NewRouter(opts.Logger, opts.Sinks...),
		logger: opts.Logger,
	}
}

// Config returns the resolved configuration snapshot.
func (inj *Injector) Config() Config { return inj.cfg }

// Run bootstraps one document: mount as soon as parsing completes, start
// observing theme signals, then mount once more after the load signal
// plus SettleDelay to survive host hydration. The returned stop function
// cancels observation and the pending second pass.
func (inj *Injector) Run(ctx context.Context, doc Document) (func(), error) {
	if err := doc.WaitReady(ctx); err != nil {
		return nil, fmt.Errorf("dominject: wait ready: %w", err)
	}

	ctrl := inject.New(inj.cfg, doc, inject.Options{
		ThemeKeys:      inj.opts.Theme,
		PanelDelay:     inj.opts.PanelDelay,
		AnchorRetries:  inj.opts.AnchorRetries,
		AnchorInterval: inj.opts.AnchorInterval,
		Sink:           inj.sinkR,
		Logger:         inj.logger,
	})

	if err := ctrl.Mount(ctx); err != nil {
		return nil, fmt.Errorf("dominject: mount: %w", err)
	}

	stopObs, err := ctrl.Observe(ctx)
	if err != nil {
		inj.logger.Warn("dominject: observe unavailable", "url", doc.URL(), "error", err)
		stopObs = func() {}
	}

	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		if err := doc.WaitLoad(runCtx); err != nil {
			return
		}
		if err := sleepCtx(runCtx, inj.opts.SettleDelay); err != nil {
			return
		}
		if err := ctrl.Mount(runCtx); err != nil {
			inj.logger.Warn("dominject: settle pass failed", "url", doc.URL(), "error", err)
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			stopObs()
		})
	}

	inj.mu.Lock()
	inj.ctrls = append(inj.ctrls, ctrl)
	inj.stops = append(inj.stops, stop)
	inj.mu.Unlock()

	inj.logger.Info("dominject: running", "url", doc.URL(),
		"locations", len(inj.cfg.Locations), "speedtest", inj.cfg.SpeedTest.Enabled)
	return stop, nil
}

// Stats returns one snapshot per document driven by Run, in Run order.
func (inj *Injector) Stats() []Stats {
	inj.mu.Lock()
	defer inj.mu.Unlock()
	out := make([]Stats, 0, len(inj.ctrls))
	for _, c := range inj.ctrls {
		out = append(out, c.Stats())
	}
	return out
}

// Close stops every running document and closes the sinks.
func (inj *Injector) Close() error {
	inj.mu.Lock()
	stops := inj.stops
	inj.stops = nil
	inj.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	return inj.sinkR.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Document is a host page seen through the operations dominject needs.
type Document = dom.Document
