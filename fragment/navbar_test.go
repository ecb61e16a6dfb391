package fragment

import (
	"testing"

	"github.com/hazyhaar/dominject/internal/config"
	"github.com/hazyhaar/dominject/internal/theme"
)

func twoCityConfig() config.Config {
	cfg := config.Defaults()
	cfg.CurrentLocation = "ams"
	cfg.Locations = []config.Location{
		{ID: "msk", Name: "Moscow", URL: "https://msk.lg.example.net", Flag: "🇷🇺"},
		{ID: "ams", Name: "Amsterdam", URL: "https://ams.lg.example.net", Flag: "🇳🇱"},
	}
	return cfg
}

// controls returns the location entries of a built bar, label excluded.
func controls(bar *Node) []*Node {
	if len(bar.Children) == 0 {
		return nil
	}
	return bar.Children[1:]
}

func TestNavBar_MarkerAndLabel(t *testing.T) {
	bar := NavBar(twoCityConfig(), theme.Light)
	if bar.ID() != NavID {
		t.Errorf("bar id: got %q, want %q", bar.ID(), NavID)
	}
	if bar.Children[0].Children[0].Text != navLabel {
		t.Errorf("label: got %q, want %q", bar.Children[0].Children[0].Text, navLabel)
	}
	if bar.Style["position"] != "fixed" || bar.Style["top"] != "0" {
		t.Errorf("bar must be fixed to the top, got position=%q top=%q",
			bar.Style["position"], bar.Style["top"])
	}
}

func TestNavBar_ActiveEntryInert(t *testing.T) {
	bar := NavBar(twoCityConfig(), theme.Light)
	cs := controls(bar)
	if len(cs) != 2 {
		t.Fatalf("controls: got %d, want 2", len(cs))
	}

	msk, ams := cs[0], cs[1]

	if ams.Tag != "span" {
		t.Errorf("active entry tag: got %q, want span", ams.Tag)
	}
	if len(ams.Listeners) != 0 {
		t.Errorf("active entry listeners: got %d, want 0", len(ams.Listeners))
	}
	if _, ok := ams.Attrs["href"]; ok {
		t.Error("active entry must not be a link")
	}
	if ams.Style["font-weight"] != "700" {
		t.Errorf("active entry font-weight: got %q, want 700", ams.Style["font-weight"])
	}

	if msk.Tag != "a" {
		t.Errorf("inactive entry tag: got %q, want a", msk.Tag)
	}
	if msk.Attrs["href"] != "https://msk.lg.example.net" {
		t.Errorf("inactive href: got %q", msk.Attrs["href"])
	}
	if len(msk.Listeners) != 2 {
		t.Fatalf("inactive entry listeners: got %d, want 2", len(msk.Listeners))
	}
	if msk.Listeners[0].Event != "mouseenter" || msk.Listeners[1].Event != "mouseleave" {
		t.Errorf("listener events: got %q,%q, want mouseenter,mouseleave",
			msk.Listeners[0].Event, msk.Listeners[1].Event)
	}
}

func TestNavBar_HoverSwapsNeutralAndAccent(t *testing.T) {
	cfg := twoCityConfig()
	bar := NavBar(cfg, theme.Light)
	link := controls(bar)[0]

	enter := link.Listeners[0].Set
	leave := link.Listeners[1].Set
	if enter["background"] != cfg.Theme.Light.Accent {
		t.Errorf("hover-in background: got %q, want accent %q",
			enter["background"], cfg.Theme.Light.Accent)
	}
	if leave["background"] != "transparent" {
		t.Errorf("hover-out background: got %q, want transparent", leave["background"])
	}
	if enter["border-color"] != cfg.Theme.Light.Accent {
		t.Errorf("hover-in border: got %q, want accent", enter["border-color"])
	}
}

func TestNavBar_OrderFollowsInput(t *testing.T) {
	cfg := twoCityConfig()
	bar := NavBar(cfg, theme.Light)
	cs := controls(bar)
	if cs[0].Attrs["href"] == "" || cs[1].Tag != "span" {
		t.Fatalf("expected msk link then active ams, got %q then %q", cs[0].Tag, cs[1].Tag)
	}

	cfg.Locations[0], cfg.Locations[1] = cfg.Locations[1], cfg.Locations[0]
	bar = NavBar(cfg, theme.Light)
	cs = controls(bar)
	if cs[0].Tag != "span" {
		t.Errorf("after reorder, first control: got %q, want active span", cs[0].Tag)
	}
	if cs[1].Attrs["href"] != "https://msk.lg.example.net" {
		t.Errorf("after reorder, second control href: got %q", cs[1].Attrs["href"])
	}
}

func TestNavBar_EmptyLocations(t *testing.T) {
	cfg := twoCityConfig()
	cfg.Locations = nil
	bar := NavBar(cfg, theme.Light)
	if len(bar.Children) != 1 {
		t.Fatalf("children: got %d, want just the label", len(bar.Children))
	}
}

func TestNavBar_NoMatchMarksNothingActive(t *testing.T) {
	cfg := twoCityConfig()
	cfg.CurrentLocation = "zrh"
	bar := NavBar(cfg, theme.Light)
	for i, c := range controls(bar) {
		if c.Tag != "a" {
			t.Errorf("control %d: got tag %q, want a (no active entry)", i, c.Tag)
		}
	}
}

func TestNavBar_DarkModeTokens(t *testing.T) {
	cfg := twoCityConfig()
	light := NavBar(cfg, theme.Light)
	dark := NavBar(cfg, theme.Dark)
	if light.Style["background"] != cfg.Theme.Light.Background {
		t.Errorf("light background: got %q, want %q",
			light.Style["background"], cfg.Theme.Light.Background)
	}
	if dark.Style["background"] != cfg.Theme.Dark.Background {
		t.Errorf("dark background: got %q, want %q",
			dark.Style["background"], cfg.Theme.Dark.Background)
	}
	if light.Style["background"] == dark.Style["background"] {
		t.Error("light and dark bars must not share a background token")
	}
}

func TestNavBar_FlagGlyphOptional(t *testing.T) {
	cfg := twoCityConfig()
	cfg.Locations[0].Flag = ""
	bar := NavBar(cfg, theme.Light)
	cs := controls(bar)

	// Without a flag the entry has only the name text child.
	if len(cs[0].Children) != 1 {
		t.Errorf("flagless entry children: got %d, want 1", len(cs[0].Children))
	}
	// With a flag there is a glyph span before the name.
	if len(cs[1].Children) != 2 {
		t.Fatalf("flagged entry children: got %d, want 2", len(cs[1].Children))
	}
	if cs[1].Children[0].Tag != "span" || cs[1].Children[0].Children[0].Text != "🇳🇱" {
		t.Errorf("flag glyph: got %+v", cs[1].Children[0])
	}
}
