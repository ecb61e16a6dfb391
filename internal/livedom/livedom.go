// Package livedom implements dom.Document over a live Chrome page driven
// through Rod. A small JS library is evaluated once per page; every
// document operation afterwards is one call into it, with all arguments
// JSON-marshalled on the Go side. Body mutations flow back over a
// per-document runtime binding and are debounced before dispatch, since
// SPA theme flips often rewrite the class attribute several times in one
// frame.
package livedom

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/dominject/fragment"
	"github.com/hazyhaar/dominject/internal/browser"
	"github.com/hazyhaar/dominject/internal/dom"
	"github.com/hazyhaar/dominject/internal/idgen"
)

//go:embed inject.js
var injectJS string

const (
	readyPollInterval = 50 * time.Millisecond
	watchDebounce     = 100 * time.Millisecond
)

// Document is a live page implementing dom.Document.
type Document struct {
	tab     *browser.Tab
	binding string
	logger  *slog.Logger
}

// Attach evaluates the glue library on the tab's page and returns a
// Document for it. Safe to call more than once per page; the library
// installs itself only on the first evaluation.
func Attach(ctx context.Context, tab *browser.Tab, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Document{
		tab:     tab,
		binding: "__lgdom_" + idgen.NanoID(8)(),
		logger:  logger,
	}
	if _, err := tab.Page.Context(ctx).Eval(injectJS); err != nil {
		return nil, fmt.Errorf("livedom: inject glue: %w", err)
	}
	return d, nil
}

func (d *Document) URL() string { return d.tab.PageURL }

// WaitReady polls until the document has finished parsing.
func (d *Document) WaitReady(ctx context.Context) error {
	for {
		res, err := d.tab.Page.Context(ctx).Eval(`() => document.readyState`)
		if err != nil {
			return fmt.Errorf("livedom: ready state: %w", err)
		}
		if res.Value.Str() != "loading" {
			return nil
		}
		t := time.NewTimer(readyPollInterval)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}

// WaitLoad returns once the window load signal has fired.
func (d *Document) WaitLoad(ctx context.Context) error {
	if err := d.tab.Page.Context(ctx).WaitLoad(); err != nil {
		return fmt.Errorf("livedom: wait load: %w", err)
	}
	return nil
}

func (d *Document) StorageGet(ctx context.Context, key string) (string, error) {
	res, err := d.eval(ctx, fmt.Sprintf(`() => window.__lgdom.storageGet(%s)`, jsonArg(key)))
	if err != nil {
		return "", err
	}
	return res, nil
}

func (d *Document) BodyClass(ctx context.Context) (string, error) {
	return d.eval(ctx, `() => window.__lgdom.bodyClass()`)
}

func (d *Document) SetBodyStyle(ctx context.Context, prop, value string) error {
	_, err := d.eval(ctx, fmt.Sprintf(`() => window.__lgdom.setBodyStyle(%s, %s)`,
		jsonArg(prop), jsonArg(value)))
	return err
}

func (d *Document) Has(ctx context.Context, xpath string) (bool, error) {
	return d.evalBool(ctx, fmt.Sprintf(`() => window.__lgdom.has(%s)`, jsonArg(xpath)))
}

func (d *Document) RemoveByID(ctx context.Context, id string) (bool, error) {
	return d.evalBool(ctx, fmt.Sprintf(`() => window.__lgdom.removeById(%s)`, jsonArg(id)))
}

func (d *Document) PrependToBody(ctx context.Context, frag *fragment.Node) error {
	_, err := d.eval(ctx, fmt.Sprintf(`() => window.__lgdom.prependBody(%s)`, jsonArg(frag)))
	return err
}

func (d *Document) AppendToBody(ctx context.Context, frag *fragment.Node) error {
	_, err := d.eval(ctx, fmt.Sprintf(`() => window.__lgdom.appendBody(%s)`, jsonArg(frag)))
	return err
}

func (d *Document) InsertAfter(ctx context.Context, xpath string, frag *fragment.Node) (bool, error) {
	return d.evalBool(ctx, fmt.Sprintf(`() => window.__lgdom.insertAfter(%s, %s)`,
		jsonArg(xpath), jsonArg(frag)))
}

func (d *Document) AppendTo(ctx context.Context, xpath string, frag *fragment.Node) (bool, error) {
	return d.evalBool(ctx, fmt.Sprintf(`() => window.__lgdom.appendTo(%s, %s)`,
		jsonArg(xpath), jsonArg(frag)))
}

func (d *Document) ReplaceByID(ctx context.Context, id string, frag *fragment.Node) (bool, error) {
	return d.evalBool(ctx, fmt.Sprintf(`() => window.__lgdom.replaceById(%s, %s)`,
		jsonArg(id), jsonArg(frag)))
}

// Watch installs a MutationObserver on the body and relays attribute
// changes to fn, coalescing bursts per attribute within a short window.
func (d *Document) Watch(ctx context.Context, fn func(dom.ChangeEvent)) (func(), error) {
	watchCtx, cancel := context.WithCancel(ctx)

	// Binding already registered is fine: a remount cycle may watch,
	// unsubscribe and watch again on the same page.
	if err := (proto.RuntimeAddBinding{Name: d.binding}).Call(d.tab.Page); err != nil {
		d.logger.Warn("livedom: add binding failed (may already exist)", "error", err)
	}

	deb := &debouncer{window: watchDebounce, fn: fn}
	go d.tab.Page.Context(watchCtx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != d.binding {
			return
		}
		var ev dom.ChangeEvent
		if err := json.Unmarshal([]byte(e.Payload), &ev); err != nil {
			d.logger.Warn("livedom: parse binding payload", "error", err)
			return
		}
		deb.add(ev)
	})()

	if _, err := d.eval(watchCtx, fmt.Sprintf(`() => window.__lgdom.observe(%s)`, jsonArg(d.binding))); err != nil {
		cancel()
		return nil, err
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			deb.stop()
			offCtx, offCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer offCancel()
			if _, err := d.eval(offCtx, `() => window.__lgdom.disconnect()`); err != nil {
				d.logger.Warn("livedom: disconnect failed", "error", err)
			}
		})
	}
	go func() {
		<-watchCtx.Done()
		deb.stop()
	}()
	return stop, nil
}

func (d *Document) eval(ctx context.Context, js string) (string, error) {
	res, err := d.tab.Page.Context(ctx).Eval(js)
	if err != nil {
		return "", fmt.Errorf("livedom: eval: %w", err)
	}
	return res.Value.Str(), nil
}

func (d *Document) evalBool(ctx context.Context, js string) (bool, error) {
	res, err := d.tab.Page.Context(ctx).Eval(js)
	if err != nil {
		return false, fmt.Errorf("livedom: eval: %w", err)
	}
	return res.Value.Bool(), nil
}

func jsonArg(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// debouncer coalesces change events per attribute and delivers the last
// value of each once the burst settles.
type debouncer struct {
	window time.Duration
	fn     func(dom.ChangeEvent)

	mu      sync.Mutex
	pending map[string]dom.ChangeEvent
	timer   *time.Timer
	stopped bool
}

func (b *debouncer) add(ev dom.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	if b.pending == nil {
		b.pending = map[string]dom.ChangeEvent{}
	}
	b.pending[ev.Attr] = ev
	if b.timer == nil {
		b.timer = time.AfterFunc(b.window, b.flush)
	} else {
		b.timer.Reset(b.window)
	}
}

func (b *debouncer) flush() {
	b.mu.Lock()
	evs := b.pending
	b.pending = nil
	b.timer = nil
	stopped := b.stopped
	b.mu.Unlock()
	if stopped {
		return
	}
	attrs := make([]string, 0, len(evs))
	for a := range evs {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)
	for _, a := range attrs {
		b.fn(evs[a])
	}
}

func (b *debouncer) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.pending = nil
}
