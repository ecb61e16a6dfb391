package fragment

import (
	"github.com/hazyhaar/dominject/internal/config"
	"github.com/hazyhaar/dominject/internal/theme"
)

// navLabel is the static caption before the location controls.
const navLabel = "Locations:"

// NavBar builds the cross-instance navigation bar: a fixed, full-width,
// top-pinned strip with one control per location in input order. The entry
// whose ID equals CurrentLocation renders active (filled accent background,
// bold, default cursor, not a link) and carries no listeners. Every other
// entry is an outlined link with hover listeners swapping between neutral
// and accent colors. An empty location list yields a bar with only the
// label.
func NavBar(cfg config.Config, mode theme.Mode) *Node {
	t := theme.Tokens(cfg, mode)

	controls := make([]*Node, 0, len(cfg.Locations))
	for _, loc := range cfg.Locations {
		if loc.ID == cfg.CurrentLocation {
			controls = append(controls, activeEntry(loc, t))
			continue
		}
		controls = append(controls, linkEntry(loc, t))
	}

	return El("div", Props{
		"id": NavID,
		"style": Style{
			"position":      "fixed",
			"top":           "0",
			"left":          "0",
			"right":         "0",
			"height":        BarHeight,
			"display":       "flex",
			"align-items":   "center",
			"gap":           "8px",
			"padding":       "0 16px",
			"box-sizing":    "border-box",
			"background":    t.Background,
			"color":         t.Text,
			"border-bottom": "1px solid " + t.Border,
			"box-shadow":    "0 1px 3px " + t.Shadow,
			"font-size":     "14px",
			"white-space":   "nowrap",
			"overflow-x":    "auto",
			"z-index":       "9999",
		},
	},
		El("span", Props{
			"style": Style{
				"font-weight":  "600",
				"color":        t.Muted,
				"margin-right": "4px",
			},
		}, navLabel),
		controls,
	)
}

func activeEntry(loc config.Location, t config.Tokens) *Node {
	return El("span", Props{
		"style": Style{
			"display":       "inline-flex",
			"align-items":   "center",
			"gap":           "6px",
			"padding":       "4px 12px",
			"border-radius": "6px",
			"background":    t.Accent,
			"color":         t.AccentText,
			"border":        "1px solid " + t.Accent,
			"font-weight":   "700",
			"cursor":        "default",
		},
	}, flagNode(loc), loc.Name)
}

func linkEntry(loc config.Location, t config.Tokens) *Node {
	return El("a", Props{
		"href": loc.URL,
		"style": Style{
			"display":         "inline-flex",
			"align-items":     "center",
			"gap":             "6px",
			"padding":         "4px 12px",
			"border-radius":   "6px",
			"background":      "transparent",
			"color":           t.Text,
			"border":          "1px solid " + t.Border,
			"text-decoration": "none",
			"cursor":          "pointer",
			"transition":      "background 120ms ease, border-color 120ms ease, color 120ms ease",
		},
		"onmouseenter": Style{
			"background":   t.Accent,
			"border-color": t.Accent,
			"color":        t.AccentText,
		},
		"onmouseleave": Style{
			"background":   "transparent",
			"border-color": t.Border,
			"color":        t.Text,
		},
	}, flagNode(loc), loc.Name)
}

// flagNode wraps the optional flag glyph in its own span so flex gap applies
// between glyph and name. Nil when the location has no flag; El skips nil
// children.
func flagNode(loc config.Location) *Node {
	if loc.Flag == "" {
		return nil
	}
	return El("span", nil, loc.Flag)
}
