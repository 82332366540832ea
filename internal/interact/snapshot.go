package interact

import "github.com/litescript/ls-natal/internal/chart"

// Emphasis is how strongly an element is drawn given the selection.
type Emphasis int

const (
	EmphasisNeutral Emphasis = iota
	EmphasisSelected
	EmphasisRelated
	EmphasisDimmed
)

func (e Emphasis) String() string {
	switch e {
	case EmphasisSelected:
		return "selected"
	case EmphasisRelated:
		return "related"
	case EmphasisDimmed:
		return "dimmed"
	default:
		return "neutral"
	}
}

// Snapshot is a consistent copy of the interaction state. Selection and
// its related sets are always taken together.
type Snapshot struct {
	Selected Element
	Related  Related
	Hovered  Hover
	View     View
}

// HasSelection reports whether anything is selected.
func (s Snapshot) HasSelection() bool {
	return !s.Selected.IsNone()
}

// PlanetEmphasis returns the emphasis of the named planet.
func (s Snapshot) PlanetEmphasis(name string) Emphasis {
	return s.emphasis(PlanetElement(name), s.Related.HasPlanet(name))
}

// HouseEmphasis returns the emphasis of a house.
func (s Snapshot) HouseEmphasis(number int) Emphasis {
	return s.emphasis(HouseElement(number), s.Related.HasHouse(number))
}

// AspectEmphasis returns the emphasis of an aspect.
func (s Snapshot) AspectEmphasis(key chart.AspectKey) Emphasis {
	return s.emphasis(AspectElement(key), s.Related.HasAspect(key))
}

func (s Snapshot) emphasis(e Element, related bool) Emphasis {
	switch {
	case !s.HasSelection():
		return EmphasisNeutral
	case s.Selected == e:
		return EmphasisSelected
	case related:
		return EmphasisRelated
	default:
		return EmphasisDimmed
	}
}
