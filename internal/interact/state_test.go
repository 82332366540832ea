package interact

import (
	"sort"
	"testing"

	"github.com/litescript/ls-natal/internal/chart"
)

// sunMoonChart has Sun (10°, house 1) opposite Moon (190°, house 7).
func sunMoonChart() *chart.Chart {
	return &chart.Chart{
		Planets: []chart.Planet{
			{Name: "Sun", Longitude: 10, House: 1},
			{Name: "Moon", Longitude: 190, House: 7},
		},
		Houses: equalHouses(),
		Aspects: []chart.Aspect{
			{Planet1: "Sun", Planet2: "Moon", Kind: chart.AspectOpposition, Angle: 180, Orb: 0, Applying: false},
		},
	}
}

func equalHouses() []chart.House {
	houses := make([]chart.House, 12)
	for i := range houses {
		houses[i] = chart.House{Number: i + 1, Longitude: float64(i * 30)}
	}
	return houses
}

// busyChart has several aspects around Sun, including a duplicate endpoint.
func busyChart() *chart.Chart {
	return &chart.Chart{
		Planets: []chart.Planet{
			{Name: "Sun", Longitude: 10, House: 1},
			{Name: "Moon", Longitude: 190, House: 7},
			{Name: "Mercury", Longitude: 15, House: 1},
			{Name: "Venus", Longitude: 70, House: 3},
			{Name: "Mars", Longitude: 100, House: 4},
		},
		Houses: equalHouses(),
		Aspects: []chart.Aspect{
			{Planet1: "Sun", Planet2: "Moon", Kind: chart.AspectOpposition},
			{Planet1: "Mercury", Planet2: "Sun", Kind: chart.AspectConjunction, Orb: 5},
			{Planet1: "Sun", Planet2: "Venus", Kind: chart.AspectSextile, Orb: 0},
			{Planet1: "Sun", Planet2: "Mars", Kind: chart.AspectSquare, Orb: 0},
			{Planet1: "Sun", Planet2: "Mercury", Kind: chart.AspectSemisextile, Orb: 25},
			{Planet1: "Moon", Planet2: "Mars", Kind: chart.AspectTrine, Orb: 30},
		},
	}
}

func sortedStrings(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew_Defaults(t *testing.T) {
	s := New(sunMoonChart(), Callbacks{})

	if !s.Selected().IsNone() {
		t.Error("selection should start empty")
	}
	if !s.Hovered().IsNone() {
		t.Error("hover should start empty")
	}
	if s.View() != Identity() {
		t.Errorf("view = %+v, want identity", s.View())
	}
	if !s.Related().IsEmpty() {
		t.Error("related sets should start empty")
	}
}

func TestSelectPlanet_SunMoonOpposition(t *testing.T) {
	s := New(sunMoonChart(), Callbacks{})
	s.SelectPlanet("Sun")

	r := s.Related()
	if !equalStrings(r.Planets, []string{"Moon"}) {
		t.Errorf("related planets = %v, want [Moon]", r.Planets)
	}
	want := chart.NewAspectKey("Sun", "Moon", chart.AspectOpposition)
	if len(r.Aspects) != 1 || r.Aspects[0] != want {
		t.Errorf("related aspects = %v, want [%v]", r.Aspects, want)
	}
	if len(r.Houses) != 1 || r.Houses[0] != 1 {
		t.Errorf("related houses = %v, want [1]", r.Houses)
	}
}

func TestSelectAspect_SunMoonOpposition(t *testing.T) {
	s := New(sunMoonChart(), Callbacks{})
	s.SelectAspect(chart.NewAspectKey("Sun", "Moon", chart.AspectOpposition))

	r := s.Related()
	if !equalStrings(r.Planets, []string{"Sun", "Moon"}) {
		t.Errorf("related planets = %v, want [Sun Moon]", r.Planets)
	}
	if len(r.Houses) != 0 {
		t.Errorf("related houses = %v, want none", r.Houses)
	}
	if len(r.Aspects) != 1 {
		t.Errorf("related aspects = %v, want the aspect itself", r.Aspects)
	}
}

func TestSelectPlanet_AllAspectsAndOppositeEndpoints(t *testing.T) {
	c := busyChart()
	s := New(c, Callbacks{})
	s.SelectPlanet("Sun")
	r := s.Related()

	var wantAspects []chart.AspectKey
	wantPlanets := map[string]bool{}
	for _, a := range c.Aspects {
		if a.Touches("Sun") {
			wantAspects = append(wantAspects, a.Key())
			wantPlanets[a.Other("Sun")] = true
		}
	}

	if len(r.Aspects) != len(wantAspects) {
		t.Fatalf("related aspects = %v, want %v", r.Aspects, wantAspects)
	}
	for _, k := range wantAspects {
		if !r.HasAspect(k) {
			t.Errorf("missing related aspect %v", k)
		}
	}

	if len(r.Planets) != len(wantPlanets) {
		t.Errorf("related planets = %v, want set %v (no duplicates)", r.Planets, wantPlanets)
	}
	for name := range wantPlanets {
		if !r.HasPlanet(name) {
			t.Errorf("missing related planet %s", name)
		}
	}
	if r.HasPlanet("Sun") {
		t.Error("selected planet should not be its own related planet")
	}
}

func TestSelectHouse_PlanetsByHouseField(t *testing.T) {
	c := busyChart()
	s := New(c, Callbacks{})
	s.SelectHouse(1)
	r := s.Related()

	got := sortedStrings(r.Planets)
	if !equalStrings(got, []string{"Mercury", "Sun"}) {
		t.Errorf("related planets = %v, want [Mercury Sun]", got)
	}
	if len(r.Aspects) != 0 {
		t.Errorf("related aspects = %v, want none", r.Aspects)
	}
	if len(r.Houses) != 1 || r.Houses[0] != 1 {
		t.Errorf("related houses = %v, want [1]", r.Houses)
	}
}

func TestSelectHouse_EqualHouseMercury(t *testing.T) {
	c := &chart.Chart{
		Planets: []chart.Planet{{Name: "Mercury", Longitude: 15, House: 1}},
		Houses:  equalHouses(),
	}
	s := New(c, Callbacks{})
	s.SelectHouse(1)

	if !equalStrings(s.Related().Planets, []string{"Mercury"}) {
		t.Errorf("related planets = %v, want [Mercury]", s.Related().Planets)
	}
}

func TestSelection_ReplacesNeverStacks(t *testing.T) {
	s := New(busyChart(), Callbacks{})
	s.SelectPlanet("Sun")
	s.SelectHouse(4)

	if s.Selected() != HouseElement(4) {
		t.Errorf("selected = %+v, want house 4", s.Selected())
	}
	if !equalStrings(s.Related().Planets, []string{"Mars"}) {
		t.Errorf("related planets = %v, want [Mars]", s.Related().Planets)
	}
	if len(s.Related().Aspects) != 0 {
		t.Error("aspects from the previous selection leaked")
	}
}

func TestClearSelection_AllPaths(t *testing.T) {
	clears := map[string]func(*State){
		"explicit":   func(s *State) { s.ClearSelection() },
		"background": func(s *State) { s.ClickBackground() },
		"escape":     func(s *State) { NewKeyHandler(s.KeyActions()).Handle("esc") },
		"double":     func(s *State) { s.DoubleClick() },
		"empty":      func(s *State) { s.Click(Element{}) },
	}

	for name, clear := range clears {
		t.Run(name, func(t *testing.T) {
			s := New(busyChart(), Callbacks{})
			s.SelectPlanet("Sun")
			clear(s)

			if !s.Selected().IsNone() {
				t.Errorf("selected = %+v, want none", s.Selected())
			}
			if !s.Related().IsEmpty() {
				t.Errorf("related = %+v, want empty", s.Related())
			}
		})
	}
}

func TestSelectUnknownPlanet_Accepted(t *testing.T) {
	s := New(sunMoonChart(), Callbacks{})
	s.SelectPlanet("Pluto")

	if s.Selected() != PlanetElement("Pluto") {
		t.Errorf("selected = %+v, want Pluto", s.Selected())
	}
	if !s.Related().IsEmpty() {
		t.Errorf("related = %+v, want empty", s.Related())
	}
}

func TestHover_DoesNotTouchSelection(t *testing.T) {
	s := New(sunMoonChart(), Callbacks{})
	s.SelectPlanet("Sun")
	before := s.Snapshot()

	s.HoverPlanet("Moon", 10, 20)
	s.HoverHouse(3, 30, 40)
	s.ClearHover()

	after := s.Snapshot()
	if after.Selected != before.Selected {
		t.Error("hover changed the selection")
	}
	if !equalStrings(after.Related.Planets, before.Related.Planets) {
		t.Error("hover changed the related set")
	}
}

func TestHover_Exclusive(t *testing.T) {
	s := New(busyChart(), Callbacks{})
	s.HoverPlanet("Sun", 1, 2)
	s.HoverAspect(chart.NewAspectKey("Sun", "Moon", chart.AspectOpposition), 5, 6)

	h := s.Hovered()
	if h.Kind != KindAspect {
		t.Fatalf("hovered kind = %v, want aspect", h.Kind)
	}
	if h.Planet != "" {
		t.Error("previous hover leaked into the new one")
	}
	if h.X != 5 || h.Y != 6 {
		t.Errorf("hover position = (%v, %v), want (5, 6)", h.X, h.Y)
	}

	s.SetHover(Element{}, 9, 9)
	if !s.Hovered().IsNone() {
		t.Error("empty element should clear hover")
	}
}

func TestClickCallbacks_FireOnceAfterUpdate(t *testing.T) {
	var s *State
	var planetCalls, houseCalls, aspectCalls int
	var seenSelection Element

	cb := Callbacks{
		OnPlanetClick: func(p chart.Planet) {
			planetCalls++
			seenSelection = s.Selected()
			if p.Longitude != 10 {
				t.Errorf("callback planet = %+v, want Sun entity", p)
			}
		},
		OnHouseClick: func(h chart.House) {
			houseCalls++
			if h.Number != 7 || h.Longitude != 180 {
				t.Errorf("callback house = %+v", h)
			}
		},
		OnAspectClick: func(a chart.Aspect) {
			aspectCalls++
			if a.Planet1 != "Sun" {
				t.Errorf("callback aspect = %+v", a)
			}
		},
	}
	s = New(sunMoonChart(), cb)

	s.ClickPlanet("Sun")
	if planetCalls != 1 {
		t.Errorf("planet callback calls = %d, want 1", planetCalls)
	}
	if seenSelection != PlanetElement("Sun") {
		t.Errorf("callback observed selection %+v, want Sun", seenSelection)
	}

	s.ClickHouse(7)
	s.Click(AspectElement(chart.NewAspectKey("Moon", "Sun", chart.AspectOpposition)))
	if houseCalls != 1 || aspectCalls != 1 {
		t.Errorf("house/aspect calls = %d/%d, want 1/1", houseCalls, aspectCalls)
	}
}

func TestZoom_Bounds(t *testing.T) {
	s := New(nil, Callbacks{})

	for i := 0; i < 50; i++ {
		s.ZoomIn()
		if s.View().Scale > MaxScale {
			t.Fatalf("scale %v above max", s.View().Scale)
		}
	}
	if s.View().Scale != MaxScale {
		t.Errorf("scale = %v, want %v", s.View().Scale, MaxScale)
	}

	for i := 0; i < 50; i++ {
		s.ZoomOut()
		if s.View().Scale < MinScale {
			t.Fatalf("scale %v below min", s.View().Scale)
		}
	}
	if s.View().Scale != MinScale {
		t.Errorf("scale = %v, want %v", s.View().Scale, MinScale)
	}
}

func TestZoom_Steps(t *testing.T) {
	s := New(nil, Callbacks{})
	s.ZoomIn()
	s.ZoomIn()
	s.ZoomIn()
	if s.View().Scale != 1.3 {
		t.Errorf("scale = %v, want 1.3", s.View().Scale)
	}
	s.ZoomOut()
	if s.View().Scale != 1.2 {
		t.Errorf("scale = %v, want 1.2", s.View().Scale)
	}
}

func TestResetZoom_Identity(t *testing.T) {
	s := New(nil, Callbacks{})
	s.ZoomIn()
	s.SetPan(-1234.5, 99)
	s.ResetZoom()

	if s.View() != (View{Scale: 1, TranslateX: 0, TranslateY: 0}) {
		t.Errorf("view = %+v, want identity", s.View())
	}
}

func TestSetPan_Unclamped(t *testing.T) {
	s := New(nil, Callbacks{})
	s.SetPan(1e6, -1e6)
	if v := s.View(); v.TranslateX != 1e6 || v.TranslateY != -1e6 {
		t.Errorf("view = %+v", v)
	}
	s.PanBy(1, 1)
	if v := s.View(); v.TranslateX != 1e6+1 || v.TranslateY != -1e6+1 {
		t.Errorf("after PanBy view = %+v", v)
	}
}

func TestSetChart_RecomputesRelated(t *testing.T) {
	s := New(sunMoonChart(), Callbacks{})
	s.SelectPlanet("Sun")
	s.HoverPlanet("Moon", 1, 1)

	s.SetChart(busyChart())

	if s.Selected() != PlanetElement("Sun") {
		t.Error("selection should survive a chart swap")
	}
	if len(s.Related().Aspects) != 5 {
		t.Errorf("related aspects = %d, want 5", len(s.Related().Aspects))
	}
	if !s.Hovered().IsNone() {
		t.Error("hover should be dropped on chart swap")
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	s := New(busyChart(), Callbacks{})
	s.SelectPlanet("Sun")
	snap := s.Snapshot()
	snap.Related.Planets[0] = "Tampered"

	if s.Related().HasPlanet("Tampered") {
		t.Error("snapshot shares storage with state")
	}
}
