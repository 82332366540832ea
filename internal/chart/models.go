// Package chart provides the natal chart data model consumed by the wheel renderer.
package chart

import (
	"encoding/json"
	"fmt"
)

// AspectKind names an aspect between two planets (e.g., "Trine").
type AspectKind string

const (
	AspectConjunction    AspectKind = "Conjunction"
	AspectOpposition     AspectKind = "Opposition"
	AspectTrine          AspectKind = "Trine"
	AspectSquare         AspectKind = "Square"
	AspectSextile        AspectKind = "Sextile"
	AspectQuincunx       AspectKind = "Quincunx"
	AspectSemisextile    AspectKind = "Semisextile"
	AspectSemisquare     AspectKind = "Semisquare"
	AspectSesquiquadrate AspectKind = "Sesquiquadrate"
	AspectQuintile       AspectKind = "Quintile"
	AspectBiquintile     AspectKind = "Biquintile"
)

// MajorAspects is the fixed set of aspect kinds drawn on the wheel.
var MajorAspects = map[AspectKind]bool{
	AspectConjunction: true,
	AspectOpposition:  true,
	AspectTrine:       true,
	AspectSquare:      true,
	AspectSextile:     true,
}

// IsMajor reports whether the kind belongs to MajorAspects.
func (k AspectKind) IsMajor() bool {
	return MajorAspects[k]
}

// ExactAngle returns the ideal separation for the aspect kind in degrees.
// Unknown kinds return -1.
func (k AspectKind) ExactAngle() float64 {
	switch k {
	case AspectConjunction:
		return 0
	case AspectOpposition:
		return 180
	case AspectTrine:
		return 120
	case AspectSquare:
		return 90
	case AspectSextile:
		return 60
	case AspectQuincunx:
		return 150
	case AspectSemisextile:
		return 30
	case AspectSemisquare:
		return 45
	case AspectSesquiquadrate:
		return 135
	case AspectQuintile:
		return 72
	case AspectBiquintile:
		return 144
	default:
		return -1
	}
}

// Planet is one body's position in the chart.
type Planet struct {
	Name       string          `json:"name"`
	Longitude  float64         `json:"longitude"` // ecliptic, 0-360
	Latitude   float64         `json:"latitude"`
	Speed      float64         `json:"speed"` // degrees/day, negative = retrograde
	Sign       string          `json:"sign"`
	Degree     int             `json:"degree"` // sign-relative
	Minute     int             `json:"minute"`
	Second     int             `json:"second"`
	House      int             `json:"house"` // 1-12
	Retrograde bool            `json:"retrograde"`
	Dignities  json.RawMessage `json:"dignities,omitempty"`
}

// House is one house cusp.
type House struct {
	Number    int     `json:"house"`
	Longitude float64 `json:"longitude"`
	Sign      string  `json:"sign"`
	Degree    int     `json:"degree"`
	Minute    int     `json:"minute"`
	Second    int     `json:"second"`
}

// Aspect is an angular relationship between two planets.
type Aspect struct {
	Planet1  string     `json:"planet1"`
	Planet2  string     `json:"planet2"`
	Kind     AspectKind `json:"aspect"`
	Angle    float64    `json:"angle"`
	Orb      float64    `json:"orb"` // always >= 0
	Applying bool       `json:"applying"`
}

// AspectKey identifies an aspect independent of endpoint order.
type AspectKey struct {
	A, B string
	Kind AspectKind
}

// Key returns the canonical key for the aspect.
func (a Aspect) Key() AspectKey {
	return NewAspectKey(a.Planet1, a.Planet2, a.Kind)
}

// Touches reports whether the named planet is one of the aspect's endpoints.
func (a Aspect) Touches(name string) bool {
	return a.Planet1 == name || a.Planet2 == name
}

// Other returns the endpoint opposite to name.
func (a Aspect) Other(name string) string {
	if a.Planet1 == name {
		return a.Planet2
	}
	return a.Planet1
}

// NewAspectKey builds a key with endpoints in sorted order.
func NewAspectKey(p1, p2 string, kind AspectKind) AspectKey {
	if p2 < p1 {
		p1, p2 = p2, p1
	}
	return AspectKey{A: p1, B: p2, Kind: kind}
}

// String renders the key as "A-B-Kind".
func (k AspectKey) String() string {
	return fmt.Sprintf("%s-%s-%s", k.A, k.B, k.Kind)
}

// IsZero reports whether the key is unset.
func (k AspectKey) IsZero() bool {
	return k == AspectKey{}
}

// Chart is a complete chart snapshot as delivered by the backend.
type Chart struct {
	Name      string   `json:"name,omitempty"`
	Planets   []Planet `json:"planets"`
	Houses    []House  `json:"houses"`
	Aspects   []Aspect `json:"aspects"`
	Ascendant float64  `json:"ascendant"`
	Midheaven float64  `json:"midheaven"`
}

// Planet returns the named planet.
func (c *Chart) Planet(name string) (Planet, bool) {
	if c == nil {
		return Planet{}, false
	}
	for _, p := range c.Planets {
		if p.Name == name {
			return p, true
		}
	}
	return Planet{}, false
}

// House returns the house with the given number.
func (c *Chart) House(number int) (House, bool) {
	if c == nil {
		return House{}, false
	}
	for _, h := range c.Houses {
		if h.Number == number {
			return h, true
		}
	}
	return House{}, false
}

// Aspect returns the aspect matching key.
func (c *Chart) Aspect(key AspectKey) (Aspect, bool) {
	if c == nil {
		return Aspect{}, false
	}
	for _, a := range c.Aspects {
		if a.Key() == key {
			return a, true
		}
	}
	return Aspect{}, false
}

// AspectsOf returns every aspect touching the named planet, in input order.
func (c *Chart) AspectsOf(name string) []Aspect {
	if c == nil {
		return nil
	}
	var out []Aspect
	for _, a := range c.Aspects {
		if a.Touches(name) {
			out = append(out, a)
		}
	}
	return out
}

// PlanetsInHouse returns every planet whose house field equals number.
func (c *Chart) PlanetsInHouse(number int) []Planet {
	if c == nil {
		return nil
	}
	var out []Planet
	for _, p := range c.Planets {
		if p.House == number {
			out = append(out, p)
		}
	}
	return out
}

// MajorAspectList returns the aspects whose kind is major, in input order.
func (c *Chart) MajorAspectList() []Aspect {
	if c == nil {
		return nil
	}
	var out []Aspect
	for _, a := range c.Aspects {
		if a.Kind.IsMajor() {
			out = append(out, a)
		}
	}
	return out
}

// IsEmpty reports whether the chart carries nothing drawable.
func (c *Chart) IsEmpty() bool {
	return c == nil || (len(c.Planets) == 0 && len(c.Houses) == 0 && len(c.Aspects) == 0)
}
