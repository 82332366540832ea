// Package interact holds the transient selection, hover and zoom/pan state
// of a chart wheel and derives highlight relationships from it.
package interact

import (
	"strconv"
	"strings"

	"github.com/litescript/ls-natal/internal/chart"
)

// ElementKind tags which kind of chart element an Element refers to.
type ElementKind int

const (
	KindNone ElementKind = iota
	KindPlanet
	KindHouse
	KindAspect
)

func (k ElementKind) String() string {
	switch k {
	case KindPlanet:
		return "planet"
	case KindHouse:
		return "house"
	case KindAspect:
		return "aspect"
	default:
		return "none"
	}
}

// Element identifies one planet, house or aspect. Only the field matching
// Kind is set, so two Elements are equal exactly when they refer to the
// same chart element.
type Element struct {
	Kind   ElementKind
	Planet string
	House  int
	Aspect chart.AspectKey
}

// PlanetElement returns an Element for the named planet.
func PlanetElement(name string) Element {
	return Element{Kind: KindPlanet, Planet: name}
}

// HouseElement returns an Element for a house number.
func HouseElement(number int) Element {
	return Element{Kind: KindHouse, House: number}
}

// AspectElement returns an Element for an aspect.
func AspectElement(key chart.AspectKey) Element {
	return Element{Kind: KindAspect, Aspect: key}
}

// IsNone reports whether the element is empty.
func (e Element) IsNone() bool {
	return e.Kind == KindNone
}

// ID returns a stable identifier such as "planet:Sun" or "house:1".
func (e Element) ID() string {
	switch e.Kind {
	case KindPlanet:
		return "planet:" + e.Planet
	case KindHouse:
		return "house:" + strconv.Itoa(e.House)
	case KindAspect:
		return "aspect:" + e.Aspect.String()
	default:
		return ""
	}
}

// ParseElement parses the ID form produced by Element.ID. Unknown or
// malformed input yields the empty Element.
func ParseElement(id string) Element {
	kind, rest, ok := strings.Cut(id, ":")
	if !ok || rest == "" {
		return Element{}
	}
	switch kind {
	case "planet":
		return PlanetElement(rest)
	case "house":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return Element{}
		}
		return HouseElement(n)
	case "aspect":
		// "A-B-Kind"; kinds never contain '-', planet names may
		i := strings.LastIndex(rest, "-")
		if i <= 0 || i == len(rest)-1 {
			return Element{}
		}
		a, b, ok := splitPair(rest[:i])
		if !ok {
			return Element{}
		}
		return AspectElement(chart.NewAspectKey(a, b, chart.AspectKind(rest[i+1:])))
	default:
		return Element{}
	}
}

// splitPair splits "A-B" where either name may contain '-'. A split with a
// known body on one side wins, then the first split in key order (A <= B),
// then the first '-'.
func splitPair(pair string) (string, string, bool) {
	first, ordered := -1, -1
	for i := 1; i < len(pair)-1; i++ {
		if pair[i] != '-' {
			continue
		}
		a, b := pair[:i], pair[i+1:]
		if _, ok := chart.PlanetGlyphs[a]; ok {
			return a, b, true
		}
		if _, ok := chart.PlanetGlyphs[b]; ok {
			return a, b, true
		}
		if first < 0 {
			first = i
		}
		if ordered < 0 && a <= b {
			ordered = i
		}
	}
	i := ordered
	if i < 0 {
		i = first
	}
	if i < 0 {
		return "", "", false
	}
	return pair[:i], pair[i+1:], true
}

// Label returns a short human-readable name for the element.
func (e Element) Label() string {
	switch e.Kind {
	case KindPlanet:
		return e.Planet
	case KindHouse:
		return "House " + strconv.Itoa(e.House)
	case KindAspect:
		return e.Aspect.A + " " + string(e.Aspect.Kind) + " " + e.Aspect.B
	default:
		return ""
	}
}

// Hover is the element under the pointer and the pointer position.
type Hover struct {
	Element
	X, Y float64
}
