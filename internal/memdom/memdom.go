// Package memdom implements dom.Document over an in-memory HTML tree.
// It exists so the whole injection pipeline, anchor resolution, listener
// wiring and theme reaction included, runs under plain go test with no
// browser. Watch dispatch is synchronous: mutating a body attribute calls
// subscribers before the setter returns.
package memdom

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/hazyhaar/dominject/fragment"
	"github.com/hazyhaar/dominject/internal/dom"
)

// Document is an in-memory dom.Document. The zero value is not usable,
// construct with New.
type Document struct {
	url string

	mu        sync.Mutex
	root      *html.Node
	body      *html.Node
	storage   map[string]string
	listeners map[*html.Node][]fragment.Listener
	watchers  map[int]func(dom.ChangeEvent)
	nextWatch int
}

// New parses pageHTML into a document. The parser synthesizes html, head
// and body elements when the input omits them.
func New(url, pageHTML string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("memdom: parse: %w", err)
	}
	body, err := htmlquery.Query(root, "//body")
	if err != nil || body == nil {
		return nil, fmt.Errorf("memdom: no body element")
	}
	return &Document{
		url:       url,
		root:      root,
		body:      body,
		storage:   map[string]string{},
		listeners: map[*html.Node][]fragment.Listener{},
		watchers:  map[int]func(dom.ChangeEvent){},
	}, nil
}

func (d *Document) URL() string { return d.url }

// WaitReady is immediate: an in-memory tree is always parsed.
func (d *Document) WaitReady(ctx context.Context) error { return ctx.Err() }

// WaitLoad is immediate, mirroring a page whose load signal already fired.
func (d *Document) WaitLoad(ctx context.Context) error { return ctx.Err() }

func (d *Document) StorageGet(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.storage[key], nil
}

func (d *Document) BodyClass(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return attrValue(d.body, "class"), nil
}

func (d *Document) SetBodyStyle(ctx context.Context, prop, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	style := parseStyle(attrValue(d.body, "style"))
	style[prop] = value
	setAttr(d.body, "style", renderStyle(style))
	d.mu.Unlock()
	d.notify(dom.ChangeEvent{Attr: "style", Value: renderStyle(style)})
	return nil
}

func (d *Document) Has(ctx context.Context, xpath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := htmlquery.Query(d.root, xpath)
	if err != nil {
		return false, fmt.Errorf("memdom: query %q: %w", xpath, err)
	}
	return n != nil, nil
}

func (d *Document) RemoveByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.byID(id)
	if n == nil || n.Parent == nil {
		return false, nil
	}
	d.prune(n)
	n.Parent.RemoveChild(n)
	return true, nil
}

func (d *Document) PrependToBody(ctx context.Context, frag *fragment.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.body.InsertBefore(d.build(frag), d.body.FirstChild)
	return nil
}

func (d *Document) AppendToBody(ctx context.Context, frag *fragment.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.body.AppendChild(d.build(frag))
	return nil
}

func (d *Document) InsertAfter(ctx context.Context, xpath string, frag *fragment.Node) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	target, err := htmlquery.Query(d.root, xpath)
	if err != nil {
		return false, fmt.Errorf("memdom: query %q: %w", xpath, err)
	}
	if target == nil || target.Parent == nil {
		return false, nil
	}
	target.Parent.InsertBefore(d.build(frag), target.NextSibling)
	return true, nil
}

func (d *Document) AppendTo(ctx context.Context, xpath string, frag *fragment.Node) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	target, err := htmlquery.Query(d.root, xpath)
	if err != nil {
		return false, fmt.Errorf("memdom: query %q: %w", xpath, err)
	}
	if target == nil {
		return false, nil
	}
	target.AppendChild(d.build(frag))
	return true, nil
}

func (d *Document) ReplaceByID(ctx context.Context, id string, frag *fragment.Node) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	old := d.byID(id)
	if old == nil || old.Parent == nil {
		return false, nil
	}
	d.prune(old)
	old.Parent.InsertBefore(d.build(frag), old)
	old.Parent.RemoveChild(old)
	return true, nil
}

func (d *Document) Watch(ctx context.Context, fn func(dom.ChangeEvent)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	id := d.nextWatch
	d.nextWatch++
	d.watchers[id] = fn
	d.mu.Unlock()

	stop := func() {
		d.mu.Lock()
		delete(d.watchers, id)
		d.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return stop, nil
}

// SetBodyClass rewrites the body class attribute and notifies watchers,
// standing in for the host app toggling its theme marker.
func (d *Document) SetBodyClass(v string) {
	d.mu.Lock()
	setAttr(d.body, "class", v)
	d.mu.Unlock()
	d.notify(dom.ChangeEvent{Attr: "class", Value: v})
}

// SetBodyAttr rewrites one body attribute and notifies watchers.
func (d *Document) SetBodyAttr(name, v string) {
	d.mu.Lock()
	setAttr(d.body, name, v)
	d.mu.Unlock()
	d.notify(dom.ChangeEvent{Attr: name, Value: v})
}

// SetStorage seeds a client-side preference entry.
func (d *Document) SetStorage(key, v string) {
	d.mu.Lock()
	d.storage[key] = v
	d.mu.Unlock()
}

// FindX returns the first match of xpath, or nil.
func (d *Document) FindX(xpath string) (*html.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return htmlquery.Query(d.root, xpath)
}

// FindAllX returns every match of xpath in document order.
func (d *Document) FindAllX(xpath string) ([]*html.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return htmlquery.QueryAll(d.root, xpath)
}

// Listeners reports the listeners attached to a built element.
func (d *Document) Listeners(n *html.Node) []fragment.Listener {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listeners[n]
}

// Fire simulates an event on a built element, applying every matching
// listener's style patch the way the live glue does.
func (d *Document) Fire(n *html.Node, event string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	style := parseStyle(attrValue(n, "style"))
	for _, l := range d.listeners[n] {
		if l.Event != event {
			continue
		}
		for _, k := range sortedKeys(l.Set) {
			style[k] = l.Set[k]
		}
	}
	setAttr(n, "style", renderStyle(style))
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	if err := html.Render(&b, d.root); err != nil {
		return "", fmt.Errorf("memdom: render: %w", err)
	}
	return b.String(), nil
}

// notify calls subscribers outside the lock so a callback may mutate the
// document without deadlocking.
func (d *Document) notify(ev dom.ChangeEvent) {
	d.mu.Lock()
	ids := make([]int, 0, len(d.watchers))
	for id := range d.watchers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(dom.ChangeEvent), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, d.watchers[id])
	}
	d.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (d *Document) byID(id string) *html.Node {
	n, err := htmlquery.Query(d.root, fmt.Sprintf(`//*[@id='%s']`, id))
	if err != nil {
		return nil
	}
	return n
}

// build converts a fragment into html nodes, recording listeners in the
// side table. Attribute and style order is sorted so equal fragments render
// to equal markup.
func (d *Document) build(frag *fragment.Node) *html.Node {
	if frag.Tag == "" {
		return &html.Node{Type: html.TextNode, Data: frag.Text}
	}
	n := &html.Node{Type: html.ElementNode, Data: frag.Tag}
	for _, k := range sortedKeys(frag.Attrs) {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: frag.Attrs[k]})
	}
	if len(frag.Style) > 0 {
		setAttr(n, "style", renderStyle(frag.Style))
	}
	if len(frag.Listeners) > 0 {
		d.listeners[n] = append([]fragment.Listener(nil), frag.Listeners...)
	}
	for _, c := range frag.Children {
		n.AppendChild(d.build(c))
	}
	return n
}

// prune drops side-table entries for n and its subtree.
func (d *Document) prune(n *html.Node) {
	delete(d.listeners, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.prune(c)
	}
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func parseStyle(s string) fragment.Style {
	out := fragment.Style{}
	for _, part := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

func renderStyle(style fragment.Style) string {
	parts := make([]string, 0, len(style))
	for _, k := range sortedKeys(style) {
		parts = append(parts, k+": "+style[k])
	}
	return strings.Join(parts, "; ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
