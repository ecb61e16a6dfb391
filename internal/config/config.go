// Package config defines the looking-glass page configuration consumed by the
// fragment builders, and resolves host-supplied partial configuration over
// built-in defaults. Resolution is a one-level overlay: a supplied top-level
// key fully replaces the default value for that key, nested objects are never
// deep-merged.
package config

// Config is the complete, resolved configuration. It is built once per
// injector and treated as read-only afterwards.
type Config struct {
	CurrentLocation string     `koanf:"currentLocation" yaml:"currentLocation" json:"currentLocation"`
	Locations       []Location `koanf:"locations" yaml:"locations" json:"locations"`
	SpeedTest       SpeedTest  `koanf:"speedTest" yaml:"speedTest" json:"speedTest"`
	Theme           Theme      `koanf:"theme" yaml:"theme" json:"theme"`
}

// Location is one looking-glass instance reachable from the navigation bar.
type Location struct {
	ID   string `koanf:"id" yaml:"id" json:"id"`
	Name string `koanf:"name" yaml:"name" json:"name"`
	URL  string `koanf:"url" yaml:"url" json:"url"`
	Flag string `koanf:"flag" yaml:"flag" json:"flag,omitempty"`
}

// SpeedTest configures the download panel.
type SpeedTest struct {
	Enabled     bool   `koanf:"enabled" yaml:"enabled" json:"enabled"`
	Title       string `koanf:"title" yaml:"title" json:"title"`
	Description string `koanf:"description" yaml:"description" json:"description"`
	BaseURL     string `koanf:"baseUrl" yaml:"baseUrl" json:"baseUrl"`
	Files       []File `koanf:"files" yaml:"files" json:"files"`
}

// File is one downloadable test file. The download URL is derived at build
// time as BaseURL + "/" + File, never stored.
type File struct {
	Name string `koanf:"name" yaml:"name" json:"name"`
	File string `koanf:"file" yaml:"file" json:"file"`
	Size string `koanf:"size" yaml:"size" json:"size"`
}

// Theme carries the color token sets for both display modes.
type Theme struct {
	Light Tokens `koanf:"light" yaml:"light" json:"light"`
	Dark  Tokens `koanf:"dark" yaml:"dark" json:"dark"`
}

// Tokens is a fixed set of named color values consumed by the fragment
// builders. Values are opaque CSS colors; nothing validates them.
type Tokens struct {
	Background string `koanf:"background" yaml:"background" json:"background"`
	Text       string `koanf:"text" yaml:"text" json:"text"`
	Muted      string `koanf:"muted" yaml:"muted" json:"muted"`
	Border     string `koanf:"border" yaml:"border" json:"border"`
	Accent     string `koanf:"accent" yaml:"accent" json:"accent"`
	AccentText string `koanf:"accentText" yaml:"accentText" json:"accentText"`
	Card       string `koanf:"card" yaml:"card" json:"card"`
	Shadow     string `koanf:"shadow" yaml:"shadow" json:"shadow"`
}

// Overrides is a host-supplied partial configuration. Pointer fields make
// "supplied" and "absent" distinguishable: an explicitly empty locations list
// replaces the default list, a nil one leaves it alone.
type Overrides struct {
	CurrentLocation *string     `koanf:"currentLocation" yaml:"currentLocation" json:"currentLocation"`
	Locations       *[]Location `koanf:"locations" yaml:"locations" json:"locations"`
	SpeedTest       *SpeedTest  `koanf:"speedTest" yaml:"speedTest" json:"speedTest"`
	Theme           *Theme      `koanf:"theme" yaml:"theme" json:"theme"`
}

// Resolve overlays o on Defaults. Each supplied top-level key replaces the
// whole default value for that key; a partial nested object therefore
// discards its siblings' defaults. Nil yields pure defaults. Resolve never
// fails and never mutates its input.
func Resolve(o *Overrides) Config {
	cfg := Defaults()
	if o == nil {
		return cfg
	}
	if o.CurrentLocation != nil {
		cfg.CurrentLocation = *o.CurrentLocation
	}
	if o.Locations != nil {
		cfg.Locations = *o.Locations
	}
	if o.SpeedTest != nil {
		cfg.SpeedTest = *o.SpeedTest
	}
	if o.Theme != nil {
		cfg.Theme = *o.Theme
	}
	return cfg
}

// Defaults returns the built-in configuration: a single self location, the
// standard three test files under /speedtest, and the stock color tokens.
func Defaults() Config {
	return Config{
		CurrentLocation: "local",
		Locations: []Location{
			{ID: "local", Name: "Local", URL: "/"},
		},
		SpeedTest: SpeedTest{
			Enabled:     true,
			Title:       "Speed Test",
			Description: "Download a test file to measure transfer speed from this location.",
			BaseURL:     "/speedtest",
			Files: []File{
				{Name: "10 MB", File: "10MB.bin", Size: "10 MB"},
				{Name: "100 MB", File: "100MB.bin", Size: "100 MB"},
				{Name: "1 GB", File: "1GB.bin", Size: "1 GB"},
			},
		},
		Theme: Theme{
			Light: Tokens{
				Background: "#ffffff",
				Text:       "#0f172a",
				Muted:      "#64748b",
				Border:     "#e2e8f0",
				Accent:     "#2563eb",
				AccentText: "#ffffff",
				Card:       "#f8fafc",
				Shadow:     "rgba(15, 23, 42, 0.12)",
			},
			Dark: Tokens{
				Background: "#0f172a",
				Text:       "#e2e8f0",
				Muted:      "#94a3b8",
				Border:     "#334155",
				Accent:     "#3b82f6",
				AccentText: "#0b1120",
				Card:       "#1e293b",
				Shadow:     "rgba(0, 0, 0, 0.4)",
			},
		},
	}
}
