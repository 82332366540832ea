package interact

import (
	"math"

	"github.com/litescript/ls-natal/internal/wheel"
)

// Zoom bounds and step.
const (
	MinScale = 0.5
	MaxScale = 2.0
	ZoomStep = 0.1
)

// View is the zoom/pan transform applied to the wheel. A chart point p is
// drawn at center + translate + (p - center) * scale.
type View struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// Identity returns the untransformed view.
func Identity() View {
	return View{Scale: 1}
}

// IsIdentity reports whether the view applies no transform.
func (v View) IsIdentity() bool {
	return v == Identity()
}

// clampScale bounds s to [MinScale, MaxScale] and snaps it to the step grid
// so repeated steps do not accumulate float drift.
func clampScale(s float64) float64 {
	s = math.Round(s/ZoomStep) * ZoomStep
	s = math.Round(s*1e6) / 1e6
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}

// Zoomed returns the view with the scale stepped by delta steps
// (positive = in), translation unchanged.
func (v View) Zoomed(steps int) View {
	v.Scale = clampScale(v.Scale + float64(steps)*ZoomStep)
	return v
}

// ZoomedToward returns the view rescaled to newScale so that the chart
// point under cursor stays under cursor.
func (v View) ZoomedToward(newScale float64, cursor, center wheel.Point) View {
	newScale = clampScale(newScale)
	if v.Scale == 0 || newScale == v.Scale {
		return v
	}
	ratio := newScale / v.Scale
	// offset of the cursor from the transformed origin
	ox := cursor.X - center.X - v.TranslateX
	oy := cursor.Y - center.Y - v.TranslateY
	return View{
		Scale:      newScale,
		TranslateX: v.TranslateX + ox*(1-ratio),
		TranslateY: v.TranslateY + oy*(1-ratio),
	}
}

// Apply maps a chart point to the screen.
func (v View) Apply(p, center wheel.Point) wheel.Point {
	return wheel.Point{
		X: center.X + v.TranslateX + (p.X-center.X)*v.Scale,
		Y: center.Y + v.TranslateY + (p.Y-center.Y)*v.Scale,
	}
}

// Invert maps a screen point back to chart space.
func (v View) Invert(screen, center wheel.Point) wheel.Point {
	s := v.Scale
	if s == 0 {
		s = 1
	}
	return wheel.Point{
		X: center.X + (screen.X-center.X-v.TranslateX)/s,
		Y: center.Y + (screen.Y-center.Y-v.TranslateY)/s,
	}
}
