package dominject

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/dominject/internal/browser"
	"github.com/hazyhaar/dominject/internal/livedom"
	"github.com/hazyhaar/dominject/internal/memdom"
)

// BrowserConfig controls Chrome lifecycle for live documents.
type BrowserConfig = browser.Config

// Browser owns one Chrome connection.
type Browser = browser.Manager

// NewBrowser creates a browser manager. Call Start before OpenDocument.
func NewBrowser(cfg BrowserConfig) *Browser {
	return browser.NewManager(cfg)
}

// OpenDocument opens a tab on url and attaches the injection glue. The
// returned close function closes the tab.
func OpenDocument(ctx context.Context, b *Browser, url string, logger *slog.Logger) (Document, func() error, error) {
	tab, err := browser.OpenTab(ctx, b, url)
	if err != nil {
		return nil, nil, fmt.Errorf("dominject: open %s: %w", url, err)
	}
	doc, err := livedom.Attach(ctx, tab, logger)
	if err != nil {
		tab.Close()
		return nil, nil, err
	}
	return doc, tab.Close, nil
}

// NewMemDocument parses page HTML into an in-memory document, the
// backend used by tests and offline rendering.
func NewMemDocument(url, pageHTML string) (*memdom.Document, error) {
	return memdom.New(url, pageHTML)
}
