package interact

import "github.com/litescript/ls-natal/internal/wheel"

// PlaceTooltip returns the top-left corner for a w×h tooltip near cursor
// inside a boundsW×boundsH area. The tooltip sits offset below-right of
// the cursor, flips to the left or above when it would overflow the right
// or bottom edge, and is finally clamped into the area.
func PlaceTooltip(cursor wheel.Point, w, h, boundsW, boundsH, offset float64) wheel.Point {
	x := cursor.X + offset
	if x+w > boundsW {
		x = cursor.X - offset - w
	}
	y := cursor.Y + offset
	if y+h > boundsH {
		y = cursor.Y - offset - h
	}

	x = clamp(x, 0, boundsW-w)
	y = clamp(y, 0, boundsH-h)
	return wheel.Point{X: x, Y: y}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
