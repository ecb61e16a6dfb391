// Package inject drives fragment placement on a host page: the location
// nav bar as the body's first child and the speed-test panel next to the
// host's query form. The host app is third-party and may rebuild or lack
// any anchor at any time, so every placement runs a fallback chain and a
// miss degrades to the next anchor instead of failing the mount.
package inject

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/dominject/fragment"
	"github.com/hazyhaar/dominject/internal/config"
	"github.com/hazyhaar/dominject/internal/dom"
	"github.com/hazyhaar/dominject/internal/sink"
	"github.com/hazyhaar/dominject/internal/theme"
)

// Anchor names reported in events and stats.
const (
	AnchorLayoutGroup = "layout-group"
	AnchorFormParent  = "form-parent"
	AnchorMain        = "main"
	AnchorBody        = "body"
)

// Options configures a Controller.
type Options struct {
	// ThemeKeys names the host's theme signals. Zero fields get defaults.
	ThemeKeys theme.Keys
	// PanelDelay is the pause before the panel step of a mount, giving the
	// host a beat to hydrate. Default: 500ms.
	PanelDelay time.Duration
	// AnchorRetries bounds polling for the query form. Default: 10.
	AnchorRetries int
	// AnchorInterval is the pause between polls. Default: 200ms.
	AnchorInterval time.Duration
	// Sink receives lifecycle events. Nil means no events.
	Sink sink.Sink
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.ThemeKeys.StorageKey == "" {
		o.ThemeKeys.StorageKey = theme.DefaultStorageKey
	}
	if o.ThemeKeys.DarkClass == "" {
		o.ThemeKeys.DarkClass = theme.DefaultDarkClass
	}
	if o.ThemeKeys.ThemeAttr == "" {
		o.ThemeKeys.ThemeAttr = theme.DefaultThemeAttr
	}
	if o.PanelDelay == 0 {
		o.PanelDelay = 500 * time.Millisecond
	}
	if o.AnchorRetries <= 0 {
		o.AnchorRetries = 10
	}
	if o.AnchorInterval == 0 {
		o.AnchorInterval = 200 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Stats is a point-in-time snapshot of controller activity.
type Stats struct {
	Mounts       int        `json:"mounts"`
	Remounts     int        `json:"remounts"`
	Degradations int        `json:"degradations"`
	PanelAnchor  string     `json:"panel_anchor,omitempty"`
	Mode         theme.Mode `json:"mode,omitempty"`
}

// Controller mounts, remounts and observes one document. Safe for
// concurrent use: each remove-and-insert section is atomic, so repeated
// or racing mounts still leave exactly one nav bar and at most one panel.
type Controller struct {
	cfg  config.Config
	doc  dom.Document
	opts Options

	mu    sync.Mutex
	mode  theme.Mode
	stats Stats
}

// New creates a controller for doc with the resolved configuration.
func New(cfg config.Config, doc dom.Document, opts Options) *Controller {
	opts.defaults()
	return &Controller{cfg: cfg, doc: doc, opts: opts}
}

// Mount performs a full injection pass: nav bar first, then after
// PanelDelay the speed-test panel via the anchor chain. Mounting again is
// equivalent to mounting once, since each fragment is removed by marker id
// before reinsertion. The returned error reports context cancellation or
// a document transport failure; a missing anchor is never an error.
func (c *Controller) Mount(ctx context.Context) error {
	mode := theme.Detect(ctx, c.doc, c.opts.ThemeKeys)

	if err := c.mountNav(ctx, mode); err != nil {
		return err
	}
	c.setMode(mode, false)
	c.bump(func(s *Stats) { s.Mounts++ })
	ev := sink.New(sink.TypeMounted)
	ev.Theme = string(mode)
	c.emit(ctx, ev)

	if !c.cfg.SpeedTest.Enabled {
		return c.skipPanel(ctx)
	}
	if err := sleepCtx(ctx, c.opts.PanelDelay); err != nil {
		return err
	}
	anchor, err := c.placePanel(ctx, mode, c.opts.AnchorRetries)
	if err != nil {
		return err
	}
	c.bump(func(s *Stats) { s.PanelAnchor = anchor })
	ev = sink.New(sink.TypePanelMounted)
	ev.Detail = anchor
	c.emit(ctx, ev)
	return nil
}

// Remount rebuilds both fragments against the current theme and swaps
// them in place, preserving document position. A fragment whose holder
// vanished is mounted fresh through the normal placement path.
func (c *Controller) Remount(ctx context.Context) error {
	mode := theme.Detect(ctx, c.doc, c.opts.ThemeKeys)

	nav := fragment.NavBar(c.cfg, mode)
	ok, err := c.replaceLocked(ctx, fragment.NavID, nav)
	if err != nil {
		c.degrade(ctx, "nav replace: "+err.Error())
	}
	if !ok {
		if err := c.mountNav(ctx, mode); err != nil {
			return err
		}
	}

	if c.cfg.SpeedTest.Enabled {
		panel := fragment.SpeedTest(c.cfg, mode)
		ok, err := c.replaceLocked(ctx, fragment.PanelID, panel)
		if err != nil {
			c.degrade(ctx, "panel replace: "+err.Error())
		}
		if !ok {
			anchor, err := c.placePanel(ctx, mode, 1)
			if err != nil {
				return err
			}
			c.bump(func(s *Stats) { s.PanelAnchor = anchor })
		}
	} else if _, err := c.removeLocked(ctx, fragment.PanelID); err != nil {
		c.degrade(ctx, "panel remove: "+err.Error())
	}

	changed := c.setMode(mode, true)
	if changed {
		ev := sink.New(sink.TypeThemeChanged)
		ev.Theme = string(mode)
		c.emit(ctx, ev)
	}
	c.bump(func(s *Stats) { s.Remounts++ })
	ev := sink.New(sink.TypeRemounted)
	ev.Theme = string(mode)
	c.emit(ctx, ev)
	return nil
}

// Observe subscribes to body mutations and remounts whenever the class
// attribute or the theme data attribute changes. It returns an
// unsubscribe function; ctx cancellation also unsubscribes.
func (c *Controller) Observe(ctx context.Context) (func(), error) {
	themeAttr := c.opts.ThemeKeys.ThemeAttr
	stop, err := c.doc.Watch(ctx, func(ev dom.ChangeEvent) {
		if ev.Attr != "class" && ev.Attr != themeAttr {
			return
		}
		if err := c.Remount(ctx); err != nil {
			c.opts.Logger.Warn("inject: remount after mutation failed",
				"attr", ev.Attr, "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("inject: observe: %w", err)
	}
	return stop, nil
}

// Stats returns a snapshot of controller counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Mode = c.mode
	return s
}

// mountNav atomically removes any existing bar, prepends a fresh one and
// reserves space under it with fixed body top padding.
func (c *Controller) mountNav(ctx context.Context, mode theme.Mode) error {
	bar := fragment.NavBar(c.cfg, mode)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.doc.RemoveByID(ctx, fragment.NavID); err != nil {
		return fmt.Errorf("inject: remove nav: %w", err)
	}
	if err := c.doc.PrependToBody(ctx, bar); err != nil {
		return fmt.Errorf("inject: prepend nav: %w", err)
	}
	if err := c.doc.SetBodyStyle(ctx, "padding-top", fragment.BarHeight); err != nil {
		return fmt.Errorf("inject: body padding: %w", err)
	}
	return nil
}

// skipPanel clears a panel left over from an earlier configuration.
func (c *Controller) skipPanel(ctx context.Context) error {
	if _, err := c.removeLocked(ctx, fragment.PanelID); err != nil {
		return fmt.Errorf("inject: remove panel: %w", err)
	}
	c.emit(ctx, sink.New(sink.TypePanelSkipped))
	return nil
}

// placePanel walks the anchor chain. The form anchors are polled up to
// attempts times because SPA hosts render their query form late; main and
// body are only consulted once polling gives up, since they always match
// and would otherwise shadow the preferred anchors.
func (c *Controller) placePanel(ctx context.Context, mode theme.Mode, attempts int) (string, error) {
	panel := fragment.SpeedTest(c.cfg, mode)
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, c.opts.AnchorInterval); err != nil {
				return "", err
			}
		}
		anchor, ok, err := c.tryFormAnchors(ctx, panel)
		if err != nil {
			c.degrade(ctx, "panel anchor probe: "+err.Error())
			continue
		}
		if ok {
			return anchor, nil
		}
	}

	var note string
	anchor, err := func() (string, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, err := c.doc.RemoveByID(ctx, fragment.PanelID); err != nil {
			return "", fmt.Errorf("inject: remove panel: %w", err)
		}
		if ok, err := c.doc.AppendTo(ctx, dom.XPathMainRegion, panel); err != nil {
			note = "panel main append: " + err.Error()
		} else if ok {
			return AnchorMain, nil
		}
		if err := c.doc.AppendToBody(ctx, panel); err != nil {
			return "", fmt.Errorf("inject: append panel: %w", err)
		}
		return AnchorBody, nil
	}()
	if note != "" {
		c.degrade(ctx, note)
	}
	return anchor, err
}

// tryFormAnchors attempts one atomic remove-and-insert against the two
// form-derived anchors.
func (c *Controller) tryFormAnchors(ctx context.Context, panel *fragment.Node) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.doc.RemoveByID(ctx, fragment.PanelID); err != nil {
		return "", false, err
	}
	if ok, err := c.doc.InsertAfter(ctx, dom.XPathQueryFormGroup, panel); err != nil {
		return "", false, err
	} else if ok {
		return AnchorLayoutGroup, true, nil
	}
	if ok, err := c.doc.InsertAfter(ctx, dom.XPathQueryFormParent, panel); err != nil {
		return "", false, err
	} else if ok {
		return AnchorFormParent, true, nil
	}
	return "", false, nil
}

func (c *Controller) replaceLocked(ctx context.Context, id string, frag *fragment.Node) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.ReplaceByID(ctx, id, frag)
}

func (c *Controller) removeLocked(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.RemoveByID(ctx, id)
}

// setMode records the detected mode and reports whether it changed.
// report is false on first mount so the initial detection is not counted
// as a flip.
func (c *Controller) setMode(mode theme.Mode, report bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := report && c.mode != "" && c.mode != mode
	c.mode = mode
	return changed
}

func (c *Controller) bump(f func(*Stats)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f(&c.stats)
}

// degrade logs and records a tolerated failure without aborting the
// operation in flight.
func (c *Controller) degrade(ctx context.Context, detail string) {
	c.bump(func(s *Stats) { s.Degradations++ })
	c.opts.Logger.Warn("inject: degraded", "detail", detail)
	ev := sink.New(sink.TypeDegraded)
	ev.Detail = detail
	c.emit(ctx, ev)
}

func (c *Controller) emit(ctx context.Context, ev sink.Event) {
	if c.opts.Sink == nil {
		return
	}
	ev.URL = c.doc.URL()
	if err := c.opts.Sink.Write(ctx, ev); err != nil {
		c.opts.Logger.Warn("inject: event write failed", "type", ev.Type, "error", err)
	}
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
