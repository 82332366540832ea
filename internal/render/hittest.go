package render

import (
	"github.com/litescript/ls-natal/internal/interact"
	"github.com/litescript/ls-natal/internal/wheel"
)

// aspectHitTolerance is how far from an aspect line, in screen units, a
// point still counts as on it.
const aspectHitTolerance = 3.0

// HitTest returns the topmost interactive element under the screen point
// (x, y): planets first, then aspect lines, then house wedges. It returns
// the empty element when nothing is hit.
func HitTest(s *Scene, x, y float64) interact.Element {
	if s == nil {
		return interact.Element{}
	}
	scale := s.View.Scale
	if scale <= 0 {
		scale = 1
	}
	p := s.View.Invert(wheel.Point{X: x, Y: y}, s.Layout.Center())

	if l, ok := s.Layer(LayerPlanets); ok {
		best := interact.Element{}
		bestDist := -1.0
		for _, sh := range l.Shapes {
			if sh.Kind != ShapeText || sh.Element.IsNone() {
				continue
			}
			d := p.Dist(sh.Center)
			if d <= sh.R && (bestDist < 0 || d < bestDist) {
				best, bestDist = sh.Element, d
			}
		}
		if !best.IsNone() {
			return best
		}
	}

	if l, ok := s.Layer(LayerAspects); ok {
		tol := aspectHitTolerance / scale
		best := interact.Element{}
		bestDist := -1.0
		for _, sh := range l.Shapes {
			if sh.Kind != ShapeLine {
				continue
			}
			d := segmentDistance(p, sh.From, sh.To)
			limit := tol
			if half := sh.Style.Width / 2; half > limit {
				limit = half
			}
			if d <= limit && (bestDist < 0 || d < bestDist) {
				best, bestDist = sh.Element, d
			}
		}
		if !best.IsNone() {
			return best
		}
	}

	if l, ok := s.Layer(LayerCusps); ok {
		if e := houseHit(l, p); !e.IsNone() {
			return e
		}
	}

	return interact.Element{}
}

// houseHit finds the house wedge containing p. Wedges are stored in house
// order, so their start angles are the cusps wheel.HouseAt expects.
func houseHit(l Layer, p wheel.Point) interact.Element {
	var wedges []Shape
	var cusps []float64
	for _, sh := range l.Shapes {
		if sh.Kind == ShapeSector {
			wedges = append(wedges, sh)
			cusps = append(cusps, sh.Start)
		}
	}
	if len(wedges) == 0 {
		return interact.Element{}
	}

	i := 0
	d, ang := wheel.CartesianToPolar(wedges[0].Center.X, wedges[0].Center.Y, p)
	if len(wedges) > 1 {
		i = wheel.HouseAt(ang, cusps)
		if i < 0 {
			return interact.Element{}
		}
	}
	if sh := wedges[i]; d >= sh.R && d <= sh.R2 {
		return sh.Element
	}
	return interact.Element{}
}
