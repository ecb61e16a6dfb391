package dominject

import (
	"github.com/hazyhaar/dominject/internal/config"
)

// Config is the fully resolved injector configuration. Re-exported from
// internal.
type Config = config.Config

// Location is one looking-glass instance in the nav bar.
type Location = config.Location

// SpeedTest configures the download panel.
type SpeedTest = config.SpeedTest

// File is one downloadable test file.
type File = config.File

// Theme carries the light and dark token sets.
type Theme = config.Theme

// Tokens is one set of color tokens.
type Tokens = config.Tokens

// Overrides is a partial configuration. A nil field keeps the default; a
// set field replaces the default top-level value wholesale, nested keys
// included.
type Overrides = config.Overrides

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return config.Defaults()
}

// ResolveConfig merges overrides over the defaults, one level deep.
func ResolveConfig(o *Overrides) Config {
	return config.Resolve(o)
}

// LoadOverrides reads overrides from a YAML file layered under
// LOOKING_GLASS_* environment variables. Both sources are optional; with
// neither present it returns (nil, nil).
func LoadOverrides(path string) (*Overrides, error) {
	return config.Load(path)
}

// OverridesFromEnvDoc parses the LOOKING_GLASS_CONFIG environment
// variable as a complete YAML (or JSON) overrides document.
func OverridesFromEnvDoc() (*Overrides, error) {
	return config.FromEnvDoc()
}

// MergeOverrides layers over on top of base, per top-level key.
func MergeOverrides(base, over *Overrides) *Overrides {
	return config.Merge(base, over)
}
