package interact

import "github.com/litescript/ls-natal/internal/chart"

// ComputeRelated derives the related sets for a selection:
//   - planet: the aspects touching it, their other endpoints, its house
//   - house: the planets whose house field matches
//   - aspect: its two endpoints and itself
//
// An empty selection or nil chart yields empty sets.
func ComputeRelated(c *chart.Chart, sel Element) Related {
	var r Related
	if c == nil {
		return r
	}

	switch sel.Kind {
	case KindPlanet:
		seen := make(map[string]bool)
		for _, a := range c.AspectsOf(sel.Planet) {
			r.Aspects = append(r.Aspects, a.Key())
			other := a.Other(sel.Planet)
			if other != sel.Planet && !seen[other] {
				seen[other] = true
				r.Planets = append(r.Planets, other)
			}
		}
		if p, ok := c.Planet(sel.Planet); ok {
			r.Houses = []int{p.House}
		}

	case KindHouse:
		for _, p := range c.PlanetsInHouse(sel.House) {
			r.Planets = append(r.Planets, p.Name)
		}
		r.Houses = []int{sel.House}

	case KindAspect:
		r.Planets = []string{sel.Aspect.A, sel.Aspect.B}
		if a, ok := c.Aspect(sel.Aspect); ok {
			r.Planets = []string{a.Planet1, a.Planet2}
		}
		r.Aspects = []chart.AspectKey{sel.Aspect}
	}

	return r
}
