// Package theme resolves the host page's current display mode from persisted
// user preference and DOM class state.
package theme

import (
	"context"
	"strings"

	"github.com/hazyhaar/dominject/internal/config"
)

// Mode is the dark/light display variant currently active on the host page.
type Mode string

const (
	Dark  Mode = "dark"
	Light Mode = "light"
)

// Default signal names. The host app is third-party, so all three are
// controller options rather than hard-wired selectors.
const (
	DefaultStorageKey = "lg-color-mode"
	DefaultDarkClass  = "dark"
	DefaultThemeAttr  = "data-theme"
)

// Keys names the theme signals on the host page.
type Keys struct {
	// StorageKey is the durable client-side preference entry. A non-empty
	// stored value wins over everything else.
	StorageKey string
	// DarkClass is the body class marker meaning "dark".
	DarkClass string
	// ThemeAttr is the body data attribute whose mutations (like class
	// mutations) trigger a remount.
	ThemeAttr string
}

// Source is the slice of the document the detector reads.
type Source interface {
	StorageGet(ctx context.Context, key string) (string, error)
	BodyClass(ctx context.Context) (string, error)
}

// Detect returns the current mode. Resolution order: stored preference if
// present and non-empty (value "dark" means dark, anything else light),
// otherwise the body class list containing the dark marker, otherwise light.
// Recomputed on every call since the host may flip either signal between
// calls. Read errors fall through to the next rule.
func Detect(ctx context.Context, src Source, keys Keys) Mode {
	if keys.StorageKey == "" {
		keys.StorageKey = DefaultStorageKey
	}
	if keys.DarkClass == "" {
		keys.DarkClass = DefaultDarkClass
	}

	if v, err := src.StorageGet(ctx, keys.StorageKey); err == nil && v != "" {
		if v == string(Dark) {
			return Dark
		}
		return Light
	}

	if cls, err := src.BodyClass(ctx); err == nil {
		for _, c := range strings.Fields(cls) {
			if c == keys.DarkClass {
				return Dark
			}
		}
	}

	return Light
}

// Tokens selects the color token set for mode.
func Tokens(cfg config.Config, mode Mode) config.Tokens {
	if mode == Dark {
		return cfg.Theme.Dark
	}
	return cfg.Theme.Light
}
