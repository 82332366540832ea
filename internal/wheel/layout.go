package wheel

import "sort"

// Layout holds the ring radii of a wheel of a given size.
type Layout struct {
	Size      float64 // side of the square canvas
	CenterX   float64
	CenterY   float64
	Outer     float64 // outer edge of the sign ring
	Sign      float64 // inner edge of the sign ring
	House     float64 // inner edge of the house number ring
	Inner     float64 // aspect circle
	PlanetR   float64 // radius planets are drawn on
	SignLabel float64 // radius of sign glyphs
	CuspLabel float64 // radius of house numbers
}

// Ring fractions relative to half the canvas size.
const (
	outerFrac     = 0.95
	signFrac      = 0.80
	houseFrac     = 0.70
	innerFrac     = 0.45
	planetFrac    = 0.58
	signLabelFrac = 0.875
	cuspLabelFrac = 0.75
)

// DefaultLayout returns ring radii for a square canvas of side size.
func DefaultLayout(size float64) Layout {
	half := size / 2
	return Layout{
		Size:      size,
		CenterX:   half,
		CenterY:   half,
		Outer:     half * outerFrac,
		Sign:      half * signFrac,
		House:     half * houseFrac,
		Inner:     half * innerFrac,
		PlanetR:   half * planetFrac,
		SignLabel: half * signLabelFrac,
		CuspLabel: half * cuspLabelFrac,
	}
}

// Center returns the wheel centre.
func (l Layout) Center() Point {
	return Point{X: l.CenterX, Y: l.CenterY}
}

// At returns the point at radius r and screen angle a.
func (l Layout) At(r, a float64) Point {
	return PolarToCartesian(l.CenterX, l.CenterY, r, a)
}

// HouseAt returns the index into cusps of the sector containing angle.
// cusps are screen angles in house order; sector i runs counter-clockwise
// from cusps[i] to cusps[i+1], wrapping after the last. Returns -1 when
// fewer than two cusps are given.
func HouseAt(angle float64, cusps []float64) int {
	n := len(cusps)
	if n < 2 {
		return -1
	}
	angle = NormalizeDegrees(angle)
	for i := 0; i < n; i++ {
		start := cusps[i]
		end := cusps[(i+1)%n]
		span := ArcLength(start, end)
		if span == 0 {
			continue
		}
		if ArcLength(start, angle) < span {
			return i
		}
	}
	return -1
}

// SpreadPlanets returns display angles for glyphs at the given screen
// angles so that neighbours are at least minSep degrees apart. Output is
// index-aligned with the input. Glyphs that are already far enough apart
// keep their true angle.
func SpreadPlanets(angles []float64, minSep float64) []float64 {
	n := len(angles)
	out := make([]float64, n)
	for i, a := range angles {
		out[i] = NormalizeDegrees(a)
	}
	if n < 2 || minSep <= 0 || minSep*float64(n) >= 360 {
		return out
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return out[order[i]] < out[order[j]]
	})

	// Relax a few times; clusters push apart symmetrically.
	for iter := 0; iter < 8; iter++ {
		moved := false
		for k := 0; k < n; k++ {
			i := order[k]
			j := order[(k+1)%n]
			gap := ArcLength(out[i], out[j])
			if k == n-1 && gap == 0 {
				continue
			}
			if gap < minSep {
				push := (minSep - gap) / 2
				out[i] = NormalizeDegrees(out[i] - push)
				out[j] = NormalizeDegrees(out[j] + push)
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return out
}
