// Package fragment defines the DOM subtrees dominject mounts into a host
// page, and the declarative element builder that constructs them. These are
// the public contract: builders are pure functions from (config, mode) to a
// node tree, and any document backend (live page, in-memory) can materialise
// a tree without re-deriving its meaning.
package fragment

import (
	"sort"
	"strings"
)

// Marker ids for the two mounted subtrees. At most one node with a given
// marker id exists in the document at any time; every insertion is preceded
// by a removal of the previous holder.
const (
	NavID   = "lg-locations-bar"
	PanelID = "lg-speedtest-panel"
)

// BarHeight is the fixed height of the navigation bar. The controller
// applies the same value as body top padding so host content is not
// occluded.
const BarHeight = "44px"

// Node is one element (or text run) in a fragment tree.
type Node struct {
	Tag       string            `json:"tag,omitempty"`
	Text      string            `json:"text,omitempty"` // text node when Tag is empty
	Attrs     map[string]string `json:"attrs,omitempty"`
	Style     Style             `json:"style,omitempty"`
	Listeners []Listener        `json:"listeners,omitempty"`
	Children  []*Node           `json:"children,omitempty"`
}

// Style is a set of individual CSS properties. Backends apply each property
// separately; a Style is never flattened into a host-visible attribute by
// this package.
type Style map[string]string

// Listener is a declarative presentational reaction: when Event fires on the
// node, Set is applied to its style. Hover behaviour is a mouseenter /
// mouseleave pair. Keeping reactions as data (rather than callbacks) is what
// lets tests count and inspect them without a live document.
type Listener struct {
	Event string `json:"event"`
	Set   Style  `json:"set"`
}

// Props carries the attribute/style/listener map for El. Plain string values
// become attributes. The "style" key takes a Style merged into the node's
// style map. Keys with the reserved "on" prefix followed by an event name
// ("onmouseenter") take a Style and attach a Listener instead of setting an
// attribute. Values of any other type are ignored.
type Props map[string]any

const eventPrefix = "on"

// El constructs one node from a tag name, props, and an ordered sequence of
// children. Children are *Node, []*Node, or string; falsy entries (nil,
// empty string, false) are skipped silently. Props keys are processed in
// sorted order so two builds from equal inputs produce equal trees.
func El(tag string, props Props, children ...any) *Node {
	n := &Node{Tag: tag}

	if len(props) > 0 {
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			v := props[k]
			switch {
			case k == "style":
				if s, ok := v.(Style); ok {
					if n.Style == nil {
						n.Style = make(Style, len(s))
					}
					for prop, val := range s {
						n.Style[prop] = val
					}
				}
			case strings.HasPrefix(k, eventPrefix) && len(k) > len(eventPrefix):
				if s, ok := v.(Style); ok {
					n.Listeners = append(n.Listeners, Listener{
						Event: strings.TrimPrefix(k, eventPrefix),
						Set:   s,
					})
				}
			default:
				if s, ok := v.(string); ok {
					if n.Attrs == nil {
						n.Attrs = make(map[string]string)
					}
					n.Attrs[k] = s
				}
			}
		}
	}

	for _, child := range children {
		appendChild(n, child)
	}
	return n
}

// Text constructs a bare text node.
func Text(s string) *Node {
	return &Node{Text: s}
}

func appendChild(n *Node, child any) {
	switch c := child.(type) {
	case nil:
	case *Node:
		if c != nil {
			n.Children = append(n.Children, c)
		}
	case []*Node:
		for _, cc := range c {
			if cc != nil {
				n.Children = append(n.Children, cc)
			}
		}
	case string:
		if c != "" {
			n.Children = append(n.Children, Text(c))
		}
	case bool:
		// false is skipped; true has no node meaning either.
	}
}

// ID returns the node's id attribute, if any.
func (n *Node) ID() string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs["id"]
}

// Walk visits n and every descendant in document order. Returning false
// stops the walk.
func (n *Node) Walk(visit func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !visit(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(visit) {
			return false
		}
	}
	return true
}
