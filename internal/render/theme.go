package render

import (
	"math"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/interact"
)

// Theme is the colour palette of a scene.
type Theme struct {
	Background string
	Disc       string
	Guide      string
	Cusp       string
	Angle      string
	Planet     string
	Retrograde string
	Selected   string
	Related    string
	TooltipBg  string
	TooltipFg  string

	Fire, Earth, Air, Water string

	Harmonious, Hard, Neutral string
}

// DarkTheme matches the terminal viewer's palette.
func DarkTheme() Theme {
	return Theme{
		Background: "#0d1117",
		Disc:       "#161b22",
		Guide:      "#3a4150",
		Cusp:       "#8b949e",
		Angle:      "#e3b341",
		Planet:     "#e6edf3",
		Retrograde: "#f0883e",
		Selected:   "#ffd54a",
		Related:    "#4fc3f7",
		TooltipBg:  "#21262d",
		TooltipFg:  "#e6edf3",
		Fire:       "#f85149",
		Earth:      "#56d364",
		Air:        "#e3b341",
		Water:      "#58a6ff",
		Harmonious: "#3fb950",
		Hard:       "#f85149",
		Neutral:    "#d2a8ff",
	}
}

// LightTheme is used for printable exports.
func LightTheme() Theme {
	return Theme{
		Background: "#ffffff",
		Disc:       "#fbfaf7",
		Guide:      "#9aa0a6",
		Cusp:       "#5f6368",
		Angle:      "#b06000",
		Planet:     "#202124",
		Retrograde: "#c5221f",
		Selected:   "#e37400",
		Related:    "#1a73e8",
		TooltipBg:  "#f1f3f4",
		TooltipFg:  "#202124",
		Fire:       "#d93025",
		Earth:      "#188038",
		Air:        "#b06000",
		Water:      "#1967d2",
		Harmonious: "#188038",
		Hard:       "#d93025",
		Neutral:    "#8430ce",
	}
}

func (t Theme) elementColor(e chart.Element) string {
	switch e {
	case chart.ElementFire:
		return t.Fire
	case chart.ElementEarth:
		return t.Earth
	case chart.ElementAir:
		return t.Air
	default:
		return t.Water
	}
}

func (t Theme) aspectColor(k chart.AspectKind) string {
	switch k {
	case chart.AspectTrine, chart.AspectSextile:
		return t.Harmonious
	case chart.AspectSquare, chart.AspectOpposition:
		return t.Hard
	default:
		return t.Neutral
	}
}

// emphasize layers selection styling over a base style.
func (t Theme) emphasize(s Style, em interact.Emphasis) Style {
	switch em {
	case interact.EmphasisSelected:
		if s.Stroke != "" {
			s.Stroke = t.Selected
		}
		if s.Fill != "" {
			s.Fill = t.Selected
		}
		s.Width *= 2
		s.Opacity = 1
	case interact.EmphasisRelated:
		if s.Fill != "" {
			s.Fill = t.Related
		}
		s.Width *= 1.5
		s.Opacity = math.Max(s.Opacity, 0.85)
	case interact.EmphasisDimmed:
		s.Opacity *= 0.25
	}
	return s
}
