// Package dom defines the document contract the injection controller drives.
// Two backends implement it: livedom (a real page over CDP) and memdom (an
// in-memory tree for tests and offline rendering). The controller never
// touches a backend directly, which keeps every mount/remount decision
// executable without a live browser.
package dom

import (
	"context"

	"github.com/hazyhaar/dominject/fragment"
)

// Anchor expressions for the speed-test panel, tried in order. The host app
// is third-party: none of these are guaranteed to exist, and a miss means
// "try the next one", never an error.
const (
	// XPathQueryForm is the host's query-input form.
	XPathQueryForm = `(//form[.//input or .//select])[1]`
	// XPathQueryFormGroup is the form's nearest recognizable layout-group
	// ancestor. Reverse-axis [1] selects the closest match.
	XPathQueryFormGroup = XPathQueryForm +
		`/ancestor::*[contains(@class,"stack") or contains(@class,"group") or @data-layout-group][1]`
	// XPathQueryFormParent is the form's direct parent, the fallback when no
	// layout-group ancestor exists.
	XPathQueryFormParent = XPathQueryForm + `/..`
	// XPathMainRegion is the best-effort main content container.
	XPathMainRegion = `(//main | //*[@role="main"])[1]`
)

// ChangeEvent is one body attribute mutation reported by Watch.
type ChangeEvent struct {
	Attr  string `json:"attr"`
	Value string `json:"value"`
}

// Document is a host page seen through the operations the controller needs.
// Methods that target an element by id or XPath report ok=false when the
// target is absent; err is reserved for transport/evaluation failures.
type Document interface {
	// URL identifies the page for logs and events.
	URL() string

	// WaitReady returns once the document has finished parsing
	// (immediately if it already has).
	WaitReady(ctx context.Context) error
	// WaitLoad returns once the window load signal has fired.
	WaitLoad(ctx context.Context) error

	// StorageGet reads a durable client-side preference entry. A missing
	// key is ("", nil).
	StorageGet(ctx context.Context, key string) (string, error)
	// BodyClass returns the body's class attribute value.
	BodyClass(ctx context.Context) (string, error)
	// SetBodyStyle sets one inline style property on the body.
	SetBodyStyle(ctx context.Context, prop, value string) error

	// Has probes for an element. It never waits.
	Has(ctx context.Context, xpath string) (bool, error)
	// RemoveByID removes the element carrying id. ok=false when absent.
	RemoveByID(ctx context.Context, id string) (bool, error)
	// PrependToBody inserts frag as the body's first child.
	PrependToBody(ctx context.Context, frag *fragment.Node) error
	// AppendToBody inserts frag as the body's last child.
	AppendToBody(ctx context.Context, frag *fragment.Node) error
	// InsertAfter inserts frag as the next sibling of the first xpath match.
	InsertAfter(ctx context.Context, xpath string, frag *fragment.Node) (bool, error)
	// AppendTo inserts frag as the last child of the first xpath match.
	AppendTo(ctx context.Context, xpath string, frag *fragment.Node) (bool, error)
	// ReplaceByID swaps the element carrying id with frag, in place: same
	// parent, same position. ok=false when no holder exists.
	ReplaceByID(ctx context.Context, id string, frag *fragment.Node) (bool, error)

	// Watch subscribes fn to body attribute mutations until ctx ends or the
	// returned unsubscribe runs. Which attributes are interesting is the
	// caller's decision; implementations may deliver all of them.
	Watch(ctx context.Context, fn func(ChangeEvent)) (func(), error)
}
