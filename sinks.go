package dominject

import (
	"context"
	"io"
	"log/slog"

	"github.com/hazyhaar/dominject/internal/sink"
)

// Sink is the output interface for injector lifecycle events.
type Sink = sink.Sink

// Event is one lifecycle occurrence on one page.
type Event = sink.Event

// Event types delivered to sinks.
const (
	EventMounted      = sink.TypeMounted
	EventPanelMounted = sink.TypePanelMounted
	EventPanelSkipped = sink.TypePanelSkipped
	EventRemounted    = sink.TypeRemounted
	EventThemeChanged = sink.TypeThemeChanged
	EventDegraded     = sink.TypeDegraded
)

// NewStdoutSink creates a stdout JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	return sink.NewWebhook(url, sink.WithWebhookLogger(logger))
}

// NewSQLiteSink creates (or opens) a local sqlite event log.
func NewSQLiteSink(path string) (Sink, error) {
	return sink.OpenSQLite(path)
}

// NewCallbackSink creates an in-process callback sink with no
// serialisation, for hosts embedding the injector.
func NewCallbackSink(fn func(ctx context.Context, ev Event) error) Sink {
	return sink.NewCallback(fn)
}
