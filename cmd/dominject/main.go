// Command dominject injects a location nav bar and a speed-test panel
// into a live looking-glass page.
//
// Usage:
//
//	dominject -url https://lg.example.net/          # inject with defaults
//	dominject -config lg.yaml -url https://...      # YAML + env overrides
//	dominject -demo                                 # serve the demo host only
//	dominject -demo -url http://localhost:8099/     # inject into the demo host
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/dominject"
	"github.com/hazyhaar/dominject/internal/config"
	"github.com/hazyhaar/dominject/internal/dbopen"
	"github.com/hazyhaar/dominject/internal/demosite"
)

type options struct {
	url        string
	configPath string
	registry   string
	eventsDB   string
	webhook    string
	browserURL string
	headful    bool
	stealth    bool
	demo       bool
	demoAddr   string
}

func main() {
	var opts options
	flag.StringVar(&opts.url, "url", "", "looking-glass page to inject into")
	flag.StringVar(&opts.configPath, "config", "", "path to overrides YAML file")
	flag.StringVar(&opts.registry, "registry", "", "path to sqlite location registry (watched for edits)")
	flag.StringVar(&opts.eventsDB, "events-db", "", "path to sqlite event log")
	flag.StringVar(&opts.webhook, "webhook", "", "POST lifecycle events to this URL")
	flag.StringVar(&opts.browserURL, "browser-url", "", "attach to Chrome at this ws:// URL instead of launching")
	flag.BoolVar(&opts.headful, "headful", false, "run Chrome with a visible window")
	flag.BoolVar(&opts.stealth, "stealth", true, "apply anti-detection evasions")
	flag.BoolVar(&opts.demo, "demo", false, "serve the demo looking-glass host")
	flag.StringVar(&opts.demoAddr, "demo-addr", ":8099", "demo host listen address")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts); err != nil {
		logger.Error("dominject: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	if opts.demo {
		shutdown, err := serveDemo(logger, opts.demoAddr)
		if err != nil {
			return err
		}
		defer shutdown()
		if opts.url == "" {
			<-ctx.Done()
			return nil
		}
		// Give the listener a beat before the browser navigates to it.
		time.Sleep(200 * time.Millisecond)
	}

	if opts.url == "" {
		fmt.Fprintln(os.Stderr, "usage: dominject -url <url> [-config <file>] [-registry <db>] | -demo")
		os.Exit(1)
		return nil
	}

	sinks := []dominject.Sink{dominject.NewStdoutSink(nil)}
	if opts.webhook != "" {
		sinks = append(sinks, dominject.NewWebhookSink(opts.webhook, logger))
	}
	if opts.eventsDB != "" {
		s, err := dominject.NewSQLiteSink(opts.eventsDB)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		sinks = append(sinks, s)
	}

	var regDB *sql.DB
	if opts.registry != "" {
		db, err := dbopen.Open(opts.registry,
			dbopen.WithMkdirAll(),
			dbopen.WithSchema(config.RegistrySchema))
		if err != nil {
			return fmt.Errorf("open registry: %w", err)
		}
		defer db.Close()
		regDB = db
	}

	mgr := dominject.NewBrowser(dominject.BrowserConfig{
		RemoteURL: opts.browserURL,
		Headful:   opts.headful,
		Stealth:   opts.stealth,
		Logger:    logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer mgr.Close()

	doc, closeTab, err := dominject.OpenDocument(ctx, mgr, opts.url, logger)
	if err != nil {
		return err
	}
	defer closeTab()

	// One injector generation per configuration state. A registry edit
	// stops the previous generation and runs a fresh one against the same
	// document; marker-id replacement keeps that idempotent. Sinks are
	// shared across generations, so only the last generation closes them.
	var mu sync.Mutex
	var current *dominject.Injector
	var currentStop func()

	start := func(ctx context.Context) error {
		o, err := buildOverrides(ctx, opts.configPath, regDB)
		if err != nil {
			return err
		}
		inj := dominject.New(o, dominject.Options{Logger: logger, Sinks: sinks})
		stop, err := inj.Run(ctx, doc)
		if err != nil {
			return err
		}
		mu.Lock()
		if currentStop != nil {
			currentStop()
		}
		current, currentStop = inj, stop
		mu.Unlock()
		return nil
	}

	if err := start(ctx); err != nil {
		return err
	}

	if regDB != nil {
		w := config.WatchLocations(regDB, logger)
		go w.Run(ctx, func(ctx context.Context) error {
			logger.Info("dominject: registry changed, reinjecting")
			return start(ctx)
		})
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	if currentStop != nil {
		currentStop()
	}
	if current != nil {
		for _, st := range current.Stats() {
			logger.Info("dominject: final stats",
				"mounts", st.Mounts, "remounts", st.Remounts,
				"degradations", st.Degradations, "anchor", st.PanelAnchor, "mode", st.Mode)
		}
		return current.Close()
	}
	return nil
}

func buildOverrides(ctx context.Context, path string, regDB *sql.DB) (*dominject.Overrides, error) {
	o, err := dominject.LoadOverrides(path)
	if err != nil {
		return nil, err
	}
	doc, err := dominject.OverridesFromEnvDoc()
	if err != nil {
		return nil, err
	}
	o = dominject.MergeOverrides(o, doc)

	if regDB != nil {
		locs, err := config.LoadLocations(ctx, regDB)
		if err != nil {
			return nil, fmt.Errorf("load registry locations: %w", err)
		}
		if len(locs) > 0 {
			o = dominject.MergeOverrides(o, &dominject.Overrides{Locations: &locs})
		}
	}
	return o, nil
}

func serveDemo(logger *slog.Logger, addr string) (func(), error) {
	srv := &http.Server{Addr: addr, Handler: demosite.New(logger).Handler()}
	go func() {
		logger.Info("demosite: serving", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("demosite: server error", "error", err)
		}
	}()
	return func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			logger.Warn("demosite: shutdown", "error", err)
		}
	}, nil
}
