package memdom_test

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/hazyhaar/dominject/fragment"
	"github.com/hazyhaar/dominject/internal/dom"
	"github.com/hazyhaar/dominject/internal/memdom"
)

const hostPage = `<!doctype html><html><head><title>lg</title></head><body>
<header>host</header>
<main>
  <div class="form-stack">
    <form action="/query"><input name="q"><select name="proto"><option>icmp</option></select></form>
  </div>
  <p>results</p>
</main>
<footer>done</footer>
</body></html>`

func mustDoc(t *testing.T, page string) *memdom.Document {
	t.Helper()
	d, err := memdom.New("https://lg.example.net/", page)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestAnchors_LayoutGroupPreferred(t *testing.T) {
	d := mustDoc(t, hostPage)
	ctx := context.Background()

	ok, err := d.Has(ctx, dom.XPathQueryFormGroup)
	if err != nil || !ok {
		t.Fatalf("Has(group) = %v, %v, want true", ok, err)
	}
	ok, err = d.InsertAfter(ctx, dom.XPathQueryFormGroup, fragment.El("div", fragment.Props{"id": "probe"}))
	if err != nil || !ok {
		t.Fatalf("InsertAfter = %v, %v, want true", ok, err)
	}
	// The probe lands inside main, directly after the form's group.
	n, err := d.FindX(`//main/div[contains(@class,"stack")]/following-sibling::*[1]`)
	if err != nil || n == nil {
		t.Fatalf("probe not found after group: %v", err)
	}
	if got := attr(n, "id"); got != "probe" {
		t.Fatalf("sibling after group = %q, want probe", got)
	}
}

func TestAnchors_FormParentFallback(t *testing.T) {
	page := `<body><div><form><input name="q"></form></div><p>tail</p></body>`
	d := mustDoc(t, page)
	ctx := context.Background()

	if ok, _ := d.Has(ctx, dom.XPathQueryFormGroup); ok {
		t.Fatalf("group anchor should not match a classless wrapper")
	}
	ok, err := d.InsertAfter(ctx, dom.XPathQueryFormParent, fragment.El("div", fragment.Props{"id": "probe"}))
	if err != nil || !ok {
		t.Fatalf("InsertAfter(parent) = %v, %v, want true", ok, err)
	}
	n, err := d.FindX(`//body/*[2]`)
	if err != nil || n == nil {
		t.Fatalf("FindX: %v", err)
	}
	if got := attr(n, "id"); got != "probe" {
		t.Fatalf("second body child = %q, want probe", got)
	}
}

func TestAnchors_MainRegionFallback(t *testing.T) {
	page := `<body><div role="main"><p>content</p></div></body>`
	d := mustDoc(t, page)
	ctx := context.Background()

	if ok, _ := d.Has(ctx, dom.XPathQueryForm); ok {
		t.Fatalf("no form expected")
	}
	ok, err := d.AppendTo(ctx, dom.XPathMainRegion, fragment.El("div", fragment.Props{"id": "probe"}))
	if err != nil || !ok {
		t.Fatalf("AppendTo(main) = %v, %v, want true", ok, err)
	}
	n, err := d.FindX(`//div[@role="main"]/*[last()]`)
	if err != nil || n == nil {
		t.Fatalf("FindX: %v", err)
	}
	if got := attr(n, "id"); got != "probe" {
		t.Fatalf("last main child = %q, want probe", got)
	}
}

func TestPrependToBody_BecomesFirstChild(t *testing.T) {
	d := mustDoc(t, hostPage)
	if err := d.PrependToBody(context.Background(), fragment.El("div", fragment.Props{"id": "bar"})); err != nil {
		t.Fatalf("PrependToBody: %v", err)
	}
	n, err := d.FindX(`//body/*[1]`)
	if err != nil || n == nil {
		t.Fatalf("FindX: %v", err)
	}
	if got := attr(n, "id"); got != "bar" {
		t.Fatalf("first body child = %q, want bar", got)
	}
}

func TestReplaceByID_PreservesPosition(t *testing.T) {
	page := `<body><div id="a"></div><div id="b"></div><div id="c"></div></body>`
	d := mustDoc(t, page)

	ok, err := d.ReplaceByID(context.Background(), "b", fragment.El("span", fragment.Props{"id": "b2"}))
	if err != nil || !ok {
		t.Fatalf("ReplaceByID = %v, %v, want true", ok, err)
	}
	got := bodyIDs(t, d)
	if strings.Join(got, ",") != "a,b2,c" {
		t.Fatalf("body children = %v, want [a b2 c]", got)
	}
}

func TestRemoveByID_SecondCallReportsAbsent(t *testing.T) {
	d := mustDoc(t, `<body><div id="x"></div></body>`)
	ctx := context.Background()

	ok, err := d.RemoveByID(ctx, "x")
	if err != nil || !ok {
		t.Fatalf("first remove = %v, %v, want true", ok, err)
	}
	ok, err = d.RemoveByID(ctx, "x")
	if err != nil || ok {
		t.Fatalf("second remove = %v, %v, want false", ok, err)
	}
}

func TestFire_AppliesListenerStylePatch(t *testing.T) {
	d := mustDoc(t, `<body></body>`)
	frag := fragment.El("a", fragment.Props{
		"id":           "hoverable",
		"style":        fragment.Style{"color": "#111111"},
		"onmouseenter": fragment.Style{"color": "#2563eb"},
		"onmouseleave": fragment.Style{"color": "#111111"},
	})
	if err := d.AppendToBody(context.Background(), frag); err != nil {
		t.Fatalf("AppendToBody: %v", err)
	}
	n, err := d.FindX(`//*[@id='hoverable']`)
	if err != nil || n == nil {
		t.Fatalf("FindX: %v", err)
	}
	if got := len(d.Listeners(n)); got != 2 {
		t.Fatalf("listeners = %d, want 2", got)
	}

	d.Fire(n, "mouseenter")
	if got := attr(n, "style"); !strings.Contains(got, "color: #2563eb") {
		t.Fatalf("after mouseenter style = %q", got)
	}
	d.Fire(n, "mouseleave")
	if got := attr(n, "style"); !strings.Contains(got, "color: #111111") {
		t.Fatalf("after mouseleave style = %q", got)
	}
}

func TestWatch_SynchronousAndStoppable(t *testing.T) {
	d := mustDoc(t, `<body class="light"></body>`)
	var seen []dom.ChangeEvent
	stop, err := d.Watch(context.Background(), func(ev dom.ChangeEvent) {
		seen = append(seen, ev)
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	d.SetBodyClass("dark")
	d.SetBodyAttr("data-theme", "dark")
	if len(seen) != 2 {
		t.Fatalf("events = %d, want 2", len(seen))
	}
	if seen[0].Attr != "class" || seen[0].Value != "dark" {
		t.Fatalf("first event = %+v", seen[0])
	}
	if seen[1].Attr != "data-theme" {
		t.Fatalf("second event = %+v", seen[1])
	}

	stop()
	d.SetBodyClass("light")
	if len(seen) != 2 {
		t.Fatalf("events after stop = %d, want 2", len(seen))
	}
}

func TestWatch_CallbackMayMutateDocument(t *testing.T) {
	d := mustDoc(t, `<body><div id="old"></div></body>`)
	_, err := d.Watch(context.Background(), func(dom.ChangeEvent) {
		_, _ = d.ReplaceByID(context.Background(), "old", fragment.El("div", fragment.Props{"id": "new"}))
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	d.SetBodyClass("dark") // must not deadlock
	if got := bodyIDs(t, d); strings.Join(got, ",") != "new" {
		t.Fatalf("body children = %v, want [new]", got)
	}
}

func TestStorageGet_MissingKeyIsEmpty(t *testing.T) {
	d := mustDoc(t, `<body></body>`)
	ctx := context.Background()

	v, err := d.StorageGet(ctx, "lg-color-mode")
	if err != nil || v != "" {
		t.Fatalf("StorageGet = %q, %v, want empty", v, err)
	}
	d.SetStorage("lg-color-mode", "dark")
	v, err = d.StorageGet(ctx, "lg-color-mode")
	if err != nil || v != "dark" {
		t.Fatalf("StorageGet = %q, %v, want dark", v, err)
	}
}

func TestSetBodyStyle_MergesInline(t *testing.T) {
	d := mustDoc(t, `<body style="margin: 0"></body>`)
	ctx := context.Background()
	if err := d.SetBodyStyle(ctx, "padding-top", "44px"); err != nil {
		t.Fatalf("SetBodyStyle: %v", err)
	}
	out, err := d.HTML()
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.Contains(out, "margin: 0") || !strings.Contains(out, "padding-top: 44px") {
		t.Fatalf("body style not merged: %s", out)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func bodyIDs(t *testing.T, d *memdom.Document) []string {
	t.Helper()
	nodes, err := d.FindAllX(`//body/*`)
	if err != nil {
		t.Fatalf("FindAllX: %v", err)
	}
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, attr(n, "id"))
	}
	return ids
}
