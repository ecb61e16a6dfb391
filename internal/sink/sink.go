// Package sink defines output backends for injector lifecycle events.
package sink

import (
	"context"
	"time"

	"github.com/hazyhaar/dominject/internal/idgen"
)

// Event types emitted by the injection controller.
const (
	TypeMounted      = "mounted"       // nav bar inserted
	TypePanelMounted = "panel_mounted" // speed-test panel inserted, Detail names the anchor
	TypePanelSkipped = "panel_skipped" // panel disabled by configuration
	TypeRemounted    = "remounted"     // fragments replaced in place
	TypeThemeChanged = "theme_changed" // detected mode flipped, Theme carries the new mode
	TypeDegraded     = "degraded"      // an operation was abandoned, Detail says which
)

// Event is one lifecycle occurrence on one page.
type Event struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Type   string    `json:"type"`
	URL    string    `json:"url,omitempty"`
	Theme  string    `json:"theme,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

// Sink is the output interface. Implementations deliver events to
// different backends (stdout, webhook, sqlite, in-process callback).
type Sink interface {
	Write(ctx context.Context, ev Event) error
	Close() error
}

var newID = idgen.Prefixed("evt_", idgen.Default)

// New returns an Event of the given type with identity and timestamp
// filled in. Callers set URL, Theme and Detail as applicable.
func New(typ string) Event {
	return Event{ID: newID(), Time: time.Now().UTC(), Type: typ}
}
