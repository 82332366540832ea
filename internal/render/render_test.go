package render

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/interact"
	"github.com/litescript/ls-natal/internal/wheel"
)

func testChart() *chart.Chart {
	houses := make([]chart.House, 12)
	for i := range houses {
		houses[i] = chart.House{Number: i + 1, Longitude: float64(i * 30)}
	}
	return &chart.Chart{
		Name: "Test <chart>",
		Planets: []chart.Planet{
			{Name: "Sun", Longitude: 10, House: 1},
			{Name: "Moon", Longitude: 190, House: 7},
			{Name: "Mars", Longitude: 130, House: 5},
			{Name: "Venus", Longitude: 160, House: 6},
			{Name: "Jupiter", Longitude: 280, House: 10, Retrograde: true},
		},
		Houses: houses,
		Aspects: []chart.Aspect{
			{Planet1: "Sun", Planet2: "Moon", Kind: chart.AspectOpposition, Angle: 180, Orb: 0},
			{Planet1: "Sun", Planet2: "Mars", Kind: chart.AspectTrine, Angle: 120, Orb: 0},
			{Planet1: "Sun", Planet2: "Venus", Kind: chart.AspectQuincunx, Angle: 150, Orb: 0},
			{Planet1: "Moon", Planet2: "Pluto", Kind: chart.AspectSquare, Angle: 90, Orb: 1},
		},
		Ascendant: 0,
		Midheaven: 270,
	}
}

func neutral() interact.Snapshot {
	return interact.Snapshot{View: interact.Identity()}
}

func aspectKinds(s *Scene) map[chart.AspectKind]int {
	out := make(map[chart.AspectKind]int)
	l, _ := s.Layer(LayerAspects)
	for _, sh := range l.Shapes {
		out[sh.Element.Aspect.Kind]++
	}
	return out
}

func findShape(t *testing.T, s *Scene, kind LayerKind, shape ShapeKind, e interact.Element) Shape {
	t.Helper()
	l, ok := s.Layer(kind)
	if !ok {
		t.Fatalf("layer %v missing", kind)
	}
	for _, sh := range l.Shapes {
		if sh.Kind == shape && sh.Element == e {
			return sh
		}
	}
	t.Fatalf("no %v shape for %s in layer %v", shape, e.ID(), kind)
	return Shape{}
}

func TestBuild_MajorAspectFilter(t *testing.T) {
	s := Build(testChart(), neutral(), DefaultOptions())
	kinds := aspectKinds(s)

	if kinds[chart.AspectQuincunx] != 0 {
		t.Error("Quincunx must never be drawn")
	}
	if kinds[chart.AspectTrine] != 1 {
		t.Errorf("Trine drawn %d times, want 1", kinds[chart.AspectTrine])
	}
	if kinds[chart.AspectOpposition] != 1 {
		t.Errorf("Opposition drawn %d times, want 1", kinds[chart.AspectOpposition])
	}
	// Moon-Pluto references a planet that is not in the chart
	if kinds[chart.AspectSquare] != 0 {
		t.Error("aspect with a missing endpoint should be skipped")
	}
}

func TestBuild_LayerOrder(t *testing.T) {
	s := Build(testChart(), neutral(), DefaultOptions())

	want := []LayerKind{
		LayerBackground, LayerGuides, LayerAspects, LayerSigns,
		LayerCusps, LayerAscendant, LayerMidheaven, LayerPlanets,
	}
	if len(s.Layers) != len(want) {
		t.Fatalf("got %d layers, want %d", len(s.Layers), len(want))
	}
	for i, l := range s.Layers {
		if l.Kind != want[i] {
			t.Errorf("layer %d = %v, want %v", i, l.Kind, want[i])
		}
	}
}

func TestBuild_LayersFollowData(t *testing.T) {
	c := testChart()
	c.Aspects = nil
	c.Houses = nil
	s := Build(c, neutral(), DefaultOptions())

	if _, ok := s.Layer(LayerAspects); ok {
		t.Error("aspect layer present without aspects")
	}
	if _, ok := s.Layer(LayerCusps); ok {
		t.Error("cusp layer present without houses")
	}
	if _, ok := s.Layer(LayerPlanets); !ok {
		t.Error("planet layer missing")
	}

	empty := Build(nil, neutral(), DefaultOptions())
	if len(empty.Layers) != 2 {
		t.Errorf("nil chart layers = %d, want background and guides", len(empty.Layers))
	}
}

func TestBuild_SignRing(t *testing.T) {
	s := Build(testChart(), neutral(), DefaultOptions())
	l, _ := s.Layer(LayerSigns)

	sectors := 0
	for _, sh := range l.Shapes {
		if sh.Kind == ShapeSector {
			sectors++
			if sh.End-sh.Start != 30 {
				t.Errorf("sign sector spans %v degrees", sh.End-sh.Start)
			}
		}
	}
	if sectors != 12 {
		t.Errorf("sign sectors = %d, want 12", sectors)
	}
}

func TestBuild_AscendantAtNineOClock(t *testing.T) {
	c := testChart()
	c.Ascendant = 123.4
	s := Build(c, neutral(), DefaultOptions())

	l, _ := s.Layer(LayerAscendant)
	line := l.Shapes[0]
	ctr := s.Layout.Center()
	if line.To.X >= ctr.X || !nearly(line.To.Y, ctr.Y) {
		t.Errorf("ascendant marker ends at %+v, want left of centre %+v", line.To, ctr)
	}
}

func TestBuild_Emphasis(t *testing.T) {
	c := testChart()
	st := interact.New(c, interact.Callbacks{})
	st.SelectPlanet("Sun")
	s := Build(c, st.Snapshot(), DefaultOptions())

	tests := []struct {
		name string
		e    interact.Element
		want interact.Emphasis
	}{
		{"selected", interact.PlanetElement("Sun"), interact.EmphasisSelected},
		{"related", interact.PlanetElement("Moon"), interact.EmphasisRelated},
		{"unrelated", interact.PlanetElement("Jupiter"), interact.EmphasisDimmed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh := findShape(t, s, LayerPlanets, ShapeText, tt.e)
			if sh.Emphasis != tt.want {
				t.Errorf("emphasis = %v, want %v", sh.Emphasis, tt.want)
			}
		})
	}

	house1 := findShape(t, s, LayerCusps, ShapeSector, interact.HouseElement(1))
	if house1.Emphasis != interact.EmphasisRelated {
		t.Errorf("house 1 emphasis = %v, want related", house1.Emphasis)
	}
	house2 := findShape(t, s, LayerCusps, ShapeLine, interact.HouseElement(2))
	if house2.Emphasis != interact.EmphasisDimmed {
		t.Errorf("house 2 emphasis = %v, want dimmed", house2.Emphasis)
	}

	sun := findShape(t, s, LayerPlanets, ShapeText, interact.PlanetElement("Sun"))
	jup := findShape(t, s, LayerPlanets, ShapeText, interact.PlanetElement("Jupiter"))
	if sun.Style.Opacity <= jup.Style.Opacity {
		t.Error("dimmed planet should be less opaque than the selection")
	}
}

func TestBuild_HoverDoesNotEmphasize(t *testing.T) {
	c := testChart()
	st := interact.New(c, interact.Callbacks{})
	st.HoverPlanet("Sun", 590, 590)
	s := Build(c, st.Snapshot(), DefaultOptions())

	for _, l := range s.Layers {
		for _, sh := range l.Shapes {
			if sh.Emphasis != interact.EmphasisNeutral {
				t.Fatalf("hover changed emphasis of %s to %v", sh.Element.ID(), sh.Emphasis)
			}
		}
	}

	tip, ok := s.Layer(LayerTooltip)
	if !ok {
		t.Fatal("tooltip layer missing")
	}
	box := tip.Shapes[0]
	if box.From.X < 0 || box.From.Y < 0 || box.To.X > s.Size || box.To.Y > s.Size {
		t.Errorf("tooltip %+v-%+v escapes the canvas", box.From, box.To)
	}
	if box.To.X > 590 || box.To.Y > 590 {
		t.Error("tooltip near the bottom-right corner should flip up and left")
	}
	if !strings.Contains(tip.Shapes[1].Text, "Sun") {
		t.Errorf("tooltip text = %q", tip.Shapes[1].Text)
	}
}

func TestOrbStyle(t *testing.T) {
	w0, a0 := OrbStyle(0)
	w5, a5 := OrbStyle(5)
	w20, a20 := OrbStyle(20)

	if !(w0 > w5 && w5 > w20) {
		t.Errorf("widths not decreasing with orb: %v %v %v", w0, w5, w20)
	}
	if !(a0 > a5 && a5 > a20) {
		t.Errorf("opacities not decreasing with orb: %v %v %v", a0, a5, a20)
	}
	if w, a := OrbStyle(-5); w != w5 || a != a5 {
		t.Error("negative orb should style like its absolute value")
	}
	if w, _ := OrbStyle(maxStyledOrb); w != w20 {
		t.Error("orbs beyond the styled range should clamp")
	}
}

func TestDescribe(t *testing.T) {
	c := testChart()
	tests := []struct {
		e    interact.Element
		want string
	}{
		{interact.PlanetElement("Sun"), "Sun 10°00'00\" Aries, house 1"},
		{interact.PlanetElement("Jupiter"), "Jupiter 10°00'00\" Capricorn, house 10 R"},
		{interact.HouseElement(2), "House 2 cusp  0°00'00\" Taurus"},
		{interact.AspectElement(chart.NewAspectKey("Moon", "Sun", chart.AspectOpposition)), "Sun Opposition Moon (180°), separation 180.00°, orb 0.00°, separating"},
		{interact.AspectElement(chart.NewAspectKey("Sun", "Venus", chart.AspectQuincunx)), "Sun Quincunx Venus (150°), separation 150.00°, orb 0.00°, separating"},
		{interact.AspectElement(chart.NewAspectKey("Moon", "Pluto", chart.AspectSquare)), "Moon Square Pluto (90°), orb 1.00°, separating"},
		{interact.PlanetElement("Vulcan"), "Vulcan"},
		{interact.Element{}, ""},
	}
	for _, tt := range tests {
		if got := Describe(c, tt.e); got != tt.want {
			t.Errorf("Describe(%s) = %q, want %q", tt.e.ID(), got, tt.want)
		}
	}
}

func TestSceneTransform(t *testing.T) {
	snap := neutral()
	snap.View = interact.View{Scale: 2, TranslateX: 10, TranslateY: -5}
	s := Build(nil, snap, Options{Size: 100})

	// centre 50,50: translate = T + c*(1-s)
	if got, want := s.Transform(), "translate(-40.00 -55.00) scale(2.0000)"; got != want {
		t.Errorf("Transform() = %q, want %q", got, want)
	}
}

func TestHitTest(t *testing.T) {
	c := testChart()
	s := Build(c, neutral(), DefaultOptions())

	sun := findShape(t, s, LayerPlanets, ShapeText, interact.PlanetElement("Sun"))
	if got := HitTest(s, sun.Center.X, sun.Center.Y); got != interact.PlanetElement("Sun") {
		t.Errorf("hit at Sun glyph = %+v", got)
	}

	trineKey := chart.NewAspectKey("Sun", "Mars", chart.AspectTrine)
	trine := findShape(t, s, LayerAspects, ShapeLine, interact.AspectElement(trineKey))
	mid := wheel.Point{X: (trine.From.X + trine.To.X) / 2, Y: (trine.From.Y + trine.To.Y) / 2}
	if got := HitTest(s, mid.X, mid.Y); got != interact.AspectElement(trineKey) {
		t.Errorf("hit at trine midpoint = %+v", got)
	}

	// house 3 spans screen angles 240..270 with the ascendant at 0°
	l := s.Layout
	p := l.At((l.Inner+l.Sign)/2, 255)
	if got := HitTest(s, p.X, p.Y); got != interact.HouseElement(3) {
		t.Errorf("hit in house 3 wedge = %+v", got)
	}

	if got := HitTest(s, 1, 1); !got.IsNone() {
		t.Errorf("hit in the corner = %+v, want none", got)
	}
}

func TestHitTest_HouseWedges(t *testing.T) {
	s := Build(testChart(), neutral(), DefaultOptions())
	l := s.Layout
	mid := (l.Inner + l.Sign) / 2

	tests := []struct {
		name string
		p    wheel.Point
		want interact.Element
	}{
		{"house 1 after the ascendant", l.At(mid, 205), interact.HouseElement(1)},
		{"house 12 wraps back to the ascendant", l.At(mid, 165), interact.HouseElement(12)},
		{"house 7 opposite", l.At(mid, 25), interact.HouseElement(7)},
		{"sign ring is outside every wedge", l.At((l.Sign+l.Outer)/2, 165), interact.Element{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HitTest(s, tt.p.X, tt.p.Y); got != tt.want {
				t.Errorf("HitTest = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHitTest_Zoomed(t *testing.T) {
	c := testChart()
	snap := neutral()
	snap.View = interact.View{Scale: 1.5, TranslateX: 40, TranslateY: -30}
	s := Build(c, snap, DefaultOptions())

	sun := findShape(t, s, LayerPlanets, ShapeText, interact.PlanetElement("Sun"))
	screen := snap.View.Apply(sun.Center, s.Layout.Center())
	if got := HitTest(s, screen.X, screen.Y); got != interact.PlanetElement("Sun") {
		t.Errorf("hit at zoomed Sun = %+v", got)
	}
}

func TestWriteSVG(t *testing.T) {
	c := testChart()
	st := interact.New(c, interact.Callbacks{})
	st.SelectPlanet("Sun")
	st.ZoomIn()

	var buf bytes.Buffer
	if err := WriteSVG(&buf, Build(c, st.Snapshot(), DefaultOptions())); err != nil {
		t.Fatalf("WriteSVG: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg"`,
		`data-id="planet:Sun"`,
		`data-id="house:1"`,
		`class="layer-aspects" transform="translate(`,
		"Trine",
		"</svg>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if strings.Contains(out, "Quincunx") {
		t.Error("svg contains a minor aspect")
	}
}

func TestEscapeXML(t *testing.T) {
	if got := escapeXML(`a<b & "c"`); got != "a&lt;b &amp; &quot;c&quot;" {
		t.Errorf("escapeXML = %q", got)
	}
}

func TestRasterize(t *testing.T) {
	s := Build(testChart(), neutral(), DefaultOptions())
	img := Rasterize(s, 120)

	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 120 {
		t.Fatalf("bounds = %v, want 120x120", b)
	}

	bg := parseHex(s.Theme.Background)
	got := img.RGBAAt(0, 0)
	if diff(got.R, bg.R) > 2 || diff(got.G, bg.G) > 2 || diff(got.B, bg.B) > 2 {
		t.Errorf("corner pixel = %v, want background %v", got, bg)
	}

	disc := parseHex(s.Theme.Disc)
	mid := img.RGBAAt(60, 60)
	if mid == got && disc != bg {
		t.Error("centre pixel should not be the canvas background")
	}
}

func TestEncoders(t *testing.T) {
	img := Rasterize(Build(testChart(), neutral(), DefaultOptions()), 64)

	var pngBuf bytes.Buffer
	if err := EncodePNG(&pngBuf, img); err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	decoded, err := png.Decode(&pngBuf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if decoded.Bounds().Dx() != 64 {
		t.Errorf("decoded width = %d", decoded.Bounds().Dx())
	}

	var webpBuf bytes.Buffer
	if err := EncodeWebP(&webpBuf, img); err != nil {
		t.Fatalf("EncodeWebP: %v", err)
	}
	if !bytes.HasPrefix(webpBuf.Bytes(), []byte("RIFF")) {
		t.Error("webp output lacks RIFF header")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"wheel.svg":    FormatSVG,
		"out/W.PNG":    FormatPNG,
		"chart.webp":   FormatWebP,
		"chart.jpeg":   FormatUnknown,
		"no-extension": FormatUnknown,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %v, want %v", path, got, want)
		}
	}

	if err := Write(&bytes.Buffer{}, Build(nil, neutral(), DefaultOptions()), FormatUnknown, 10); err == nil {
		t.Error("Write with unknown format should fail")
	}
}

func TestParseHex(t *testing.T) {
	if c := parseHex("#ff8000"); c.R != 255 || c.G != 128 || c.B != 0 {
		t.Errorf("parseHex = %v", c)
	}
	if c := parseHex("#fff"); c.R != 255 || c.B != 255 {
		t.Errorf("short parseHex = %v", c)
	}
	if c := parseHex("bogus"); c.R != 0 || c.A != 255 {
		t.Errorf("bad parseHex = %v", c)
	}
}

func nearly(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}

func diff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestPlanetAbbrev(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Sun", "Su"},
		{"Mercury", "Me"},
		{"Chiron", "Ch"},
		{"Eris", "Er"},
		{"X", "X"},
		{"Ōkuninushi", "Ōk"},
		{"Δήμητρα", "Δή"},
	}
	for _, tt := range tests {
		got := planetAbbrev(tt.name)
		if got != tt.want {
			t.Errorf("planetAbbrev(%q) = %q, want %q", tt.name, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("planetAbbrev(%q) = %q is not valid UTF-8", tt.name, got)
		}
	}
}
