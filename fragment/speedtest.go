package fragment

import (
	"github.com/hazyhaar/dominject/internal/config"
	"github.com/hazyhaar/dominject/internal/theme"
)

// SpeedTest builds the download panel: a card with a header and a responsive
// grid of one download link per configured file, in input order. Returns nil
// when the feature is disabled; the controller treats nil as "no panel to
// mount, remove any previously mounted one". Each link's target is derived
// as BaseURL + "/" + File, exactly.
func SpeedTest(cfg config.Config, mode theme.Mode) *Node {
	st := cfg.SpeedTest
	if !st.Enabled {
		return nil
	}
	t := theme.Tokens(cfg, mode)

	links := make([]*Node, 0, len(st.Files))
	for _, f := range st.Files {
		links = append(links, fileLink(st.BaseURL, f, t))
	}

	return El("div", Props{
		"id": PanelID,
		"style": Style{
			"margin":        "24px auto",
			"max-width":     "720px",
			"padding":       "20px",
			"box-sizing":    "border-box",
			"background":    t.Card,
			"color":         t.Text,
			"border":        "1px solid " + t.Border,
			"border-radius": "12px",
			"box-shadow":    "0 1px 3px " + t.Shadow,
			"font-size":     "14px",
		},
	},
		header(st, t),
		El("div", Props{
			"style": Style{
				"display":               "grid",
				"grid-template-columns": "repeat(auto-fill, minmax(140px, 1fr))",
				"gap":                   "12px",
			},
		}, links),
	)
}

func header(st config.SpeedTest, t config.Tokens) *Node {
	var desc *Node
	if st.Description != "" {
		desc = El("p", Props{
			"style": Style{"margin": "0", "color": t.Muted},
		}, st.Description)
	}
	return El("div", Props{
		"style": Style{"margin-bottom": "16px"},
	},
		El("h3", Props{
			"style": Style{
				"margin":    "0 0 4px",
				"font-size": "16px",
				"color":     t.Text,
			},
		}, st.Title),
		desc,
	)
}

func fileLink(baseURL string, f config.File, t config.Tokens) *Node {
	var size *Node
	if f.Size != "" {
		size = El("div", Props{
			"style": Style{
				"font-size":  "12px",
				"color":      t.Muted,
				"margin-top": "4px",
			},
		}, f.Size)
	}
	return El("a", Props{
		"href":     baseURL + "/" + f.File,
		"download": "",
		"style": Style{
			"display":         "block",
			"padding":         "12px",
			"text-align":      "center",
			"background":      t.Background,
			"color":           t.Accent,
			"border":          "1px solid " + t.Border,
			"border-radius":   "8px",
			"text-decoration": "none",
			"font-weight":     "600",
			"transition":      "box-shadow 120ms ease, transform 120ms ease",
		},
		"onmouseenter": Style{
			"box-shadow": "0 4px 12px " + t.Shadow,
			"transform":  "translateY(-2px)",
		},
		"onmouseleave": Style{
			"box-shadow": "none",
			"transform":  "none",
		},
	},
		El("div", nil, f.Name),
		size,
	)
}
