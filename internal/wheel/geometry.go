// Package wheel provides the coordinate math for drawing a chart wheel.
//
// Screen angles are in degrees, measured counter-clockwise from 3 o'clock,
// with screen Y growing downward:
//   - 0° = right, 90° = top, 180° = left (Ascendant), 270° = bottom
//   - zodiacal longitude increases counter-clockwise
package wheel

import "math"

// AscendantAngle is the screen angle at which the Ascendant is drawn.
const AscendantAngle = 180.0

// Point is a screen position.
type Point struct {
	X, Y float64
}

// Add returns the sum of two points.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dist returns the Euclidean distance between two points.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// NormalizeDegrees wraps an angle into [0, 360).
func NormalizeDegrees(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// LongitudeToAngle maps an ecliptic longitude to a screen angle, placing
// the ascendant at 9 o'clock with the zodiac running counter-clockwise.
func LongitudeToAngle(longitude, ascendant float64) float64 {
	return NormalizeDegrees(AscendantAngle + longitude - ascendant)
}

// AngleToLongitude is the inverse of LongitudeToAngle.
func AngleToLongitude(angle, ascendant float64) float64 {
	return NormalizeDegrees(angle - AscendantAngle + ascendant)
}

// PolarToCartesian converts a radius and screen angle around (cx, cy) to a
// screen point.
func PolarToCartesian(cx, cy, r, angleDeg float64) Point {
	rad := degToRad(angleDeg)
	return Point{
		X: cx + r*math.Cos(rad),
		Y: cy - r*math.Sin(rad),
	}
}

// CartesianToPolar returns the radius and screen angle of p relative to
// (cx, cy).
func CartesianToPolar(cx, cy float64, p Point) (r, angleDeg float64) {
	dx := p.X - cx
	dy := cy - p.Y
	r = math.Hypot(dx, dy)
	if r == 0 {
		return 0, 0
	}
	return r, NormalizeDegrees(radToDeg(math.Atan2(dy, dx)))
}

// AngularDistance returns the smallest separation between two angles, in
// [0, 180].
func AngularDistance(a, b float64) float64 {
	d := math.Abs(NormalizeDegrees(a) - NormalizeDegrees(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// ArcLength returns the counter-clockwise sweep from a to b, in [0, 360).
func ArcLength(from, to float64) float64 {
	return NormalizeDegrees(to - from)
}

// Midpoint returns the angle halfway along the counter-clockwise arc from
// a to b.
func Midpoint(from, to float64) float64 {
	return NormalizeDegrees(from + ArcLength(from, to)/2)
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
