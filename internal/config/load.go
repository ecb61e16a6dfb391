package config

import (
	"fmt"
	stdhtml "html"
	"os"
	"strings"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"
)

// EnvDocVar is the environment variable holding an inline configuration
// document (YAML, or JSON since JSON is a YAML subset). This is the object
// the hosting deployment hands to the injector.
const EnvDocVar = "LOOKING_GLASS_CONFIG"

const envPrefix = "LOOKING_GLASS_"

// envKeys maps LOOKING_GLASS_* variable suffixes to configuration keys.
// Only scalar knobs are overridable through discrete variables; structured
// values (locations, theme, files) belong in the file or in EnvDocVar.
var envKeys = map[string]string{
	"CURRENT_LOCATION":      "currentLocation",
	"SPEEDTEST_ENABLED":     "speedTest.enabled",
	"SPEEDTEST_TITLE":       "speedTest.title",
	"SPEEDTEST_DESCRIPTION": "speedTest.description",
	"SPEEDTEST_BASE_URL":    "speedTest.baseUrl",
}

// Load reads a partial configuration from a YAML file (path may be empty:
// file step skipped) and overlays LOOKING_GLASS_* environment variables on
// top. Display strings are sanitized. Returns nil when neither source
// supplied anything.
func Load(path string) (*Overrides, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	if len(k.Keys()) == 0 {
		return nil, nil
	}

	var ov Overrides
	if err := k.Unmarshal("", &ov); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	sanitize(&ov)
	return &ov, nil
}

// envKey maps one environment variable name to a configuration key.
// Returning "" makes koanf skip the variable.
func envKey(s string) string {
	return envKeys[strings.TrimPrefix(s, envPrefix)]
}

// FromEnvDoc parses the EnvDocVar inline document. Absent or empty variable
// yields nil, not an error.
func FromEnvDoc() (*Overrides, error) {
	raw := os.Getenv(EnvDocVar)
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ov Overrides
	if err := yaml.Unmarshal([]byte(raw), &ov); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", EnvDocVar, err)
	}
	sanitize(&ov)
	return &ov, nil
}

// Merge overlays over on base, top-level key by top-level key (same
// replace-not-merge rule as Resolve). Either side may be nil.
func Merge(base, over *Overrides) *Overrides {
	if base == nil {
		return over
	}
	if over == nil {
		return base
	}
	out := *base
	if over.CurrentLocation != nil {
		out.CurrentLocation = over.CurrentLocation
	}
	if over.Locations != nil {
		out.Locations = over.Locations
	}
	if over.SpeedTest != nil {
		out.SpeedTest = over.SpeedTest
	}
	if over.Theme != nil {
		out.Theme = over.Theme
	}
	return &out
}

// strict strips all markup from display strings before they reach a live
// page. Policies are safe for concurrent use.
var strict = bluemonday.StrictPolicy()

// sanitize cleans host-supplied display strings in place. URLs and color
// tokens pass through untouched: they land in attribute/style positions that
// the document layer escapes itself.
func sanitize(o *Overrides) {
	if o == nil {
		return
	}
	if o.Locations != nil {
		locs := *o.Locations
		for i := range locs {
			locs[i].Name = cleanText(locs[i].Name)
			locs[i].Flag = cleanText(locs[i].Flag)
		}
	}
	if o.SpeedTest != nil {
		o.SpeedTest.Title = cleanText(o.SpeedTest.Title)
		o.SpeedTest.Description = cleanText(o.SpeedTest.Description)
		for i := range o.SpeedTest.Files {
			o.SpeedTest.Files[i].Name = cleanText(o.SpeedTest.Files[i].Name)
			o.SpeedTest.Files[i].Size = cleanText(o.SpeedTest.Files[i].Size)
		}
	}
}

// cleanText strips tags and decodes the entities bluemonday re-encodes, so
// stored values stay plain text (the document layer escapes on render).
func cleanText(s string) string {
	return stdhtml.UnescapeString(strict.Sanitize(s))
}
