package interact

import (
	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/wheel"
)

// Callbacks are optional click notifications. Each fires once per click,
// after the selection has been updated.
type Callbacks struct {
	OnPlanetClick func(chart.Planet)
	OnHouseClick  func(chart.House)
	OnAspectClick func(chart.Aspect)
}

// Related lists the elements highlighted alongside the selection.
type Related struct {
	Planets []string
	Houses  []int
	Aspects []chart.AspectKey
}

// IsEmpty reports whether nothing is related.
func (r Related) IsEmpty() bool {
	return len(r.Planets) == 0 && len(r.Houses) == 0 && len(r.Aspects) == 0
}

// HasPlanet reports whether name is in the related planets.
func (r Related) HasPlanet(name string) bool {
	for _, p := range r.Planets {
		if p == name {
			return true
		}
	}
	return false
}

// HasHouse reports whether number is in the related houses.
func (r Related) HasHouse(number int) bool {
	for _, h := range r.Houses {
		if h == number {
			return true
		}
	}
	return false
}

// HasAspect reports whether key is in the related aspects.
func (r Related) HasAspect(key chart.AspectKey) bool {
	for _, a := range r.Aspects {
		if a == key {
			return true
		}
	}
	return false
}

// State is the interaction state of one mounted wheel. It is not safe for
// concurrent use; the owning view drives it from a single event loop.
type State struct {
	chart    *chart.Chart
	selected Element
	hovered  Hover
	view     View
	related  Related
	cb       Callbacks
}

// New creates interaction state for c with an identity view.
func New(c *chart.Chart, cb Callbacks) *State {
	return &State{
		chart: c,
		view:  Identity(),
		cb:    cb,
	}
}

// Chart returns the chart the state refers into.
func (s *State) Chart() *chart.Chart {
	return s.chart
}

// SetChart swaps in a new chart. The selection is kept and its related
// set recomputed against the new collections; the hover is dropped since
// its pointer position refers to the old layout.
func (s *State) SetChart(c *chart.Chart) {
	s.chart = c
	s.hovered = Hover{}
	s.related = ComputeRelated(c, s.selected)
}

// Selection

// Select replaces the selection with e. Membership in the chart is not
// checked.
func (s *State) Select(e Element) {
	s.selected = e
	s.related = ComputeRelated(s.chart, e)
}

// SelectPlanet selects the named planet.
func (s *State) SelectPlanet(name string) {
	s.Select(PlanetElement(name))
}

// SelectHouse selects a house by number.
func (s *State) SelectHouse(number int) {
	s.Select(HouseElement(number))
}

// SelectAspect selects an aspect.
func (s *State) SelectAspect(key chart.AspectKey) {
	s.Select(AspectElement(key))
}

// ClearSelection drops the selection and its related sets.
func (s *State) ClearSelection() {
	s.selected = Element{}
	s.related = Related{}
}

// ClickPlanet selects the planet and fires OnPlanetClick.
func (s *State) ClickPlanet(name string) {
	s.SelectPlanet(name)
	if s.cb.OnPlanetClick != nil {
		p, ok := s.chart.Planet(name)
		if !ok {
			p = chart.Planet{Name: name}
		}
		s.cb.OnPlanetClick(p)
	}
}

// ClickHouse selects the house and fires OnHouseClick.
func (s *State) ClickHouse(number int) {
	s.SelectHouse(number)
	if s.cb.OnHouseClick != nil {
		h, ok := s.chart.House(number)
		if !ok {
			h = chart.House{Number: number}
		}
		s.cb.OnHouseClick(h)
	}
}

// ClickAspect selects the aspect and fires OnAspectClick.
func (s *State) ClickAspect(key chart.AspectKey) {
	s.SelectAspect(key)
	if s.cb.OnAspectClick != nil {
		a, ok := s.chart.Aspect(key)
		if !ok {
			a = chart.Aspect{Planet1: key.A, Planet2: key.B, Kind: key.Kind}
		}
		s.cb.OnAspectClick(a)
	}
}

// Click dispatches to the Click method matching e's kind; an empty element
// is a background click.
func (s *State) Click(e Element) {
	switch e.Kind {
	case KindPlanet:
		s.ClickPlanet(e.Planet)
	case KindHouse:
		s.ClickHouse(e.House)
	case KindAspect:
		s.ClickAspect(e.Aspect)
	default:
		s.ClickBackground()
	}
}

// ClickBackground handles a click that hit no element.
func (s *State) ClickBackground() {
	s.ClearSelection()
}

// DoubleClick resets the view and clears the selection.
func (s *State) DoubleClick() {
	s.ClearSelection()
	s.ResetZoom()
}

// Hover

// SetHover replaces the hovered element. An empty element clears it.
func (s *State) SetHover(e Element, x, y float64) {
	if e.IsNone() {
		s.hovered = Hover{}
		return
	}
	s.hovered = Hover{Element: e, X: x, Y: y}
}

// HoverPlanet marks the named planet as hovered at (x, y).
func (s *State) HoverPlanet(name string, x, y float64) {
	s.SetHover(PlanetElement(name), x, y)
}

// HoverHouse marks a house as hovered at (x, y).
func (s *State) HoverHouse(number int, x, y float64) {
	s.SetHover(HouseElement(number), x, y)
}

// HoverAspect marks an aspect as hovered at (x, y).
func (s *State) HoverAspect(key chart.AspectKey, x, y float64) {
	s.SetHover(AspectElement(key), x, y)
}

// ClearHover drops the hovered element.
func (s *State) ClearHover() {
	s.hovered = Hover{}
}

// Zoom / pan

// ZoomIn steps the scale up by ZoomStep, capped at MaxScale.
func (s *State) ZoomIn() {
	s.view = s.view.Zoomed(1)
}

// ZoomOut steps the scale down by ZoomStep, floored at MinScale.
func (s *State) ZoomOut() {
	s.view = s.view.Zoomed(-1)
}

// SetPan sets the translation. No bounds are applied.
func (s *State) SetPan(x, y float64) {
	s.view.TranslateX = x
	s.view.TranslateY = y
}

// PanBy offsets the translation.
func (s *State) PanBy(dx, dy float64) {
	s.SetPan(s.view.TranslateX+dx, s.view.TranslateY+dy)
}

// ResetZoom restores the identity view.
func (s *State) ResetZoom() {
	s.view = Identity()
}

// WheelZoom steps the scale by the sign of delta (negative = in, as with a
// scroll-up) keeping the chart point under cursor fixed.
func (s *State) WheelZoom(delta float64, cursor, center wheel.Point) {
	var target float64
	switch {
	case delta < 0:
		target = s.view.Scale + ZoomStep
	case delta > 0:
		target = s.view.Scale - ZoomStep
	default:
		return
	}
	s.view = s.view.ZoomedToward(target, cursor, center)
}

// Read-only projections

// Selected returns the selected element.
func (s *State) Selected() Element {
	return s.selected
}

// Hovered returns the hovered element.
func (s *State) Hovered() Hover {
	return s.hovered
}

// Related returns the elements related to the selection.
func (s *State) Related() Related {
	return s.related
}

// View returns the zoom/pan transform.
func (s *State) View() View {
	return s.view
}

// Snapshot returns selection, related sets, hover and view together.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Selected: s.selected,
		Related:  s.related.clone(),
		Hovered:  s.hovered,
		View:     s.view,
	}
}

// KeyActions returns the keyboard actions bound to this state.
func (s *State) KeyActions() KeyActions {
	return KeyActions{
		ClearSelection: s.ClearSelection,
		ZoomIn:         s.ZoomIn,
		ZoomOut:        s.ZoomOut,
		ResetZoom:      s.ResetZoom,
	}
}

func (r Related) clone() Related {
	return Related{
		Planets: append([]string(nil), r.Planets...),
		Houses:  append([]int(nil), r.Houses...),
		Aspects: append([]chart.AspectKey(nil), r.Aspects...),
	}
}
