// Package render composes a chart and its interaction state into a layered
// scene and writes it out as SVG or as a raster image.
package render

import (
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/interact"
	"github.com/litescript/ls-natal/internal/wheel"
)

// LayerKind identifies a scene layer. Layers are drawn in declaration order.
type LayerKind int

const (
	LayerBackground LayerKind = iota
	LayerGuides
	LayerAspects
	LayerSigns
	LayerCusps
	LayerAscendant
	LayerMidheaven
	LayerPlanets
	LayerTooltip
)

var layerNames = map[LayerKind]string{
	LayerBackground: "background",
	LayerGuides:     "guides",
	LayerAspects:    "aspects",
	LayerSigns:      "signs",
	LayerCusps:      "cusps",
	LayerAscendant:  "ascendant",
	LayerMidheaven:  "midheaven",
	LayerPlanets:    "planets",
	LayerTooltip:    "tooltip",
}

func (k LayerKind) String() string {
	if n, ok := layerNames[k]; ok {
		return n
	}
	return "unknown"
}

// ShapeKind is the primitive a Shape draws.
type ShapeKind int

const (
	ShapeCircle ShapeKind = iota
	ShapeLine
	ShapeSector
	ShapeText
	ShapeRect
)

// Style is the paint of a shape. Colours are "#rrggbb"; an empty Fill or
// Stroke is not painted.
type Style struct {
	Stroke  string
	Fill    string
	Width   float64
	Opacity float64
}

// Shape is one drawable primitive in chart coordinates. Which geometry
// fields apply depends on Kind:
//   - circle: Center, R
//   - line: From, To
//   - sector: Center, R (inner), R2 (outer), Start..End screen angles
//   - text: Center, Text, Alt, Size, Anchor; R is the hit radius
//   - rect: From (top-left), To (bottom-right)
type Shape struct {
	Kind     ShapeKind
	Element  interact.Element
	Emphasis interact.Emphasis

	Center wheel.Point
	R, R2  float64
	From   wheel.Point
	To     wheel.Point
	Start  float64
	End    float64

	Text   string // may contain astrological glyphs
	Alt    string // plain ASCII fallback for fonts without glyphs
	Size   float64
	Anchor string // "middle" or "start"

	Style Style
}

// Layer is a named group of shapes.
type Layer struct {
	Kind   LayerKind
	Shapes []Shape
}

// Scene is a fully styled chart wheel ready to be written out.
type Scene struct {
	Size   float64
	Layout wheel.Layout
	View   interact.View
	Theme  Theme
	Layers []Layer
}

// Layer returns the layer of the given kind, if present.
func (s *Scene) Layer(kind LayerKind) (Layer, bool) {
	for _, l := range s.Layers {
		if l.Kind == kind {
			return l, true
		}
	}
	return Layer{}, false
}

// Transform returns the SVG transform applying the scene's zoom and pan
// around the wheel centre.
func (s *Scene) Transform() string {
	v := s.View
	c := s.Layout.Center()
	tx := v.TranslateX + c.X*(1-v.Scale)
	ty := v.TranslateY + c.Y*(1-v.Scale)
	return fmt.Sprintf("translate(%.2f %.2f) scale(%.4f)", tx, ty, v.Scale)
}

// Options controls scene composition.
type Options struct {
	Size          float64 // canvas side in chart units
	Theme         Theme
	MinGlyphSep   float64 // minimum angular separation of planet glyphs
	TooltipOffset float64
}

// DefaultOptions returns options for a 600-unit wheel in the dark theme.
func DefaultOptions() Options {
	return Options{
		Size:          600,
		Theme:         DarkTheme(),
		MinGlyphSep:   6,
		TooltipOffset: 12,
	}
}

// Build composes the scene for c under the interaction snapshot. A nil
// chart yields only the background and guide circles.
func Build(c *chart.Chart, snap interact.Snapshot, opts Options) *Scene {
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	if opts.Theme.Background == "" {
		opts.Theme = DarkTheme()
	}
	if opts.MinGlyphSep <= 0 {
		opts.MinGlyphSep = DefaultOptions().MinGlyphSep
	}

	b := &builder{
		chart:  c,
		snap:   snap,
		opts:   opts,
		theme:  opts.Theme,
		layout: wheel.DefaultLayout(opts.Size),
	}

	s := &Scene{
		Size:   opts.Size,
		Layout: b.layout,
		View:   snap.View,
		Theme:  opts.Theme,
	}

	s.add(b.background())
	s.add(b.guides())
	if c == nil {
		return s
	}
	b.asc = c.Ascendant

	s.add(b.aspects())
	s.add(b.signs())
	s.add(b.cusps())
	s.add(b.ascendant())
	s.add(b.midheaven())
	s.add(b.planets())
	s.add(b.tooltip())
	return s
}

func (s *Scene) add(l Layer) {
	if len(l.Shapes) > 0 {
		s.Layers = append(s.Layers, l)
	}
}

type builder struct {
	chart  *chart.Chart
	snap   interact.Snapshot
	opts   Options
	theme  Theme
	layout wheel.Layout
	asc    float64
}

func (b *builder) angle(lon float64) float64 {
	return wheel.LongitudeToAngle(lon, b.asc)
}

func (b *builder) background() Layer {
	return Layer{Kind: LayerBackground, Shapes: []Shape{{
		Kind:   ShapeCircle,
		Center: b.layout.Center(),
		R:      b.layout.Outer,
		Style:  Style{Fill: b.theme.Disc, Opacity: 1},
	}}}
}

func (b *builder) guides() Layer {
	l := Layer{Kind: LayerGuides}
	for _, r := range []float64{b.layout.Outer, b.layout.Sign, b.layout.House, b.layout.Inner} {
		l.Shapes = append(l.Shapes, Shape{
			Kind:   ShapeCircle,
			Center: b.layout.Center(),
			R:      r,
			Style:  Style{Stroke: b.theme.Guide, Width: 1, Opacity: 1},
		})
	}
	return l
}

// aspects draws major aspects only. An aspect whose endpoint is missing
// from the planet list is skipped.
func (b *builder) aspects() Layer {
	l := Layer{Kind: LayerAspects}
	for _, a := range b.chart.Aspects {
		if !a.Kind.IsMajor() {
			continue
		}
		p1, ok1 := b.chart.Planet(a.Planet1)
		p2, ok2 := b.chart.Planet(a.Planet2)
		if !ok1 || !ok2 {
			continue
		}

		key := a.Key()
		em := b.snap.AspectEmphasis(key)
		width, opacity := OrbStyle(a.Orb)
		st := b.theme.emphasize(Style{
			Stroke:  b.theme.aspectColor(a.Kind),
			Width:   width,
			Opacity: opacity,
		}, em)

		l.Shapes = append(l.Shapes, Shape{
			Kind:     ShapeLine,
			Element:  interact.AspectElement(key),
			Emphasis: em,
			From:     b.layout.At(b.layout.Inner, b.angle(p1.Longitude)),
			To:       b.layout.At(b.layout.Inner, b.angle(p2.Longitude)),
			Style:    st,
		})
	}
	return l
}

// signs draws the fixed ring of twelve 30° segments.
func (b *builder) signs() Layer {
	l := Layer{Kind: LayerSigns}
	c := b.layout.Center()
	for _, sign := range chart.Signs {
		start := b.angle(sign.Start)
		l.Shapes = append(l.Shapes, Shape{
			Kind:   ShapeSector,
			Center: c,
			R:      b.layout.Sign,
			R2:     b.layout.Outer,
			Start:  start,
			End:    start + 30,
			Style: Style{
				Fill:    b.theme.elementColor(sign.Element),
				Stroke:  b.theme.Guide,
				Width:   1,
				Opacity: 0.35,
			},
		})
		l.Shapes = append(l.Shapes, Shape{
			Kind:   ShapeText,
			Center: b.layout.At(b.layout.SignLabel, start+15),
			Text:   string(sign.Glyph),
			Alt:    sign.Abbrev,
			Size:   b.opts.Size * 0.03,
			Anchor: "middle",
			Style:  Style{Fill: b.theme.elementColor(sign.Element), Opacity: 1},
		})
	}
	return l
}

// cusps draws each house as a wedge behind its cusp line, with the house
// number centred in the number band.
func (b *builder) cusps() Layer {
	l := Layer{Kind: LayerCusps}
	houses := append([]chart.House(nil), b.chart.Houses...)
	if len(houses) == 0 {
		return l
	}
	sort.SliceStable(houses, func(i, j int) bool { return houses[i].Number < houses[j].Number })

	c := b.layout.Center()
	n := len(houses)
	for i, h := range houses {
		start := b.angle(h.Longitude)
		end := start + 360.0/float64(n)
		if n > 1 {
			end = start + wheel.ArcLength(start, b.angle(houses[(i+1)%n].Longitude))
		}
		em := b.snap.HouseEmphasis(h.Number)
		el := interact.HouseElement(h.Number)

		wedge := Style{Opacity: 0}
		switch em {
		case interact.EmphasisSelected:
			wedge = Style{Fill: b.theme.Selected, Opacity: 0.18}
		case interact.EmphasisRelated:
			wedge = Style{Fill: b.theme.Related, Opacity: 0.12}
		}
		l.Shapes = append(l.Shapes, Shape{
			Kind:     ShapeSector,
			Element:  el,
			Emphasis: em,
			Center:   c,
			R:        b.layout.Inner,
			R2:       b.layout.Sign,
			Start:    start,
			End:      end,
			Style:    wedge,
		})

		width := 1.0
		if h.Number == 1 || h.Number == 4 || h.Number == 7 || h.Number == 10 {
			width = 1.5
		}
		l.Shapes = append(l.Shapes, Shape{
			Kind:     ShapeLine,
			Element:  el,
			Emphasis: em,
			From:     b.layout.At(b.layout.Inner, start),
			To:       b.layout.At(b.layout.Sign, start),
			Style:    b.theme.emphasize(Style{Stroke: b.theme.Cusp, Width: width, Opacity: 0.8}, em),
		})
		l.Shapes = append(l.Shapes, Shape{
			Kind:     ShapeText,
			Element:  el,
			Emphasis: em,
			Center:   b.layout.At(b.layout.CuspLabel, wheel.Midpoint(start, end)),
			Text:     fmt.Sprintf("%d", h.Number),
			Alt:      fmt.Sprintf("%d", h.Number),
			Size:     b.opts.Size * 0.022,
			Anchor:   "middle",
			Style:    b.theme.emphasize(Style{Fill: b.theme.Cusp, Opacity: 1}, em),
		})
	}
	return l
}

func (b *builder) ascendant() Layer {
	return b.angleMarker(LayerAscendant, b.chart.Ascendant, "AC")
}

func (b *builder) midheaven() Layer {
	return b.angleMarker(LayerMidheaven, b.chart.Midheaven, "MC")
}

func (b *builder) angleMarker(kind LayerKind, lon float64, label string) Layer {
	a := b.angle(lon)
	return Layer{Kind: kind, Shapes: []Shape{
		{
			Kind:  ShapeLine,
			From:  b.layout.At(b.layout.Inner, a),
			To:    b.layout.At(b.layout.Outer, a),
			Style: Style{Stroke: b.theme.Angle, Width: 2.5, Opacity: 1},
		},
		{
			Kind:   ShapeText,
			Center: b.layout.At((b.layout.Outer+b.layout.Sign)/2, a+4),
			Text:   label,
			Alt:    label,
			Size:   b.opts.Size * 0.022,
			Anchor: "middle",
			Style:  Style{Fill: b.theme.Angle, Opacity: 1},
		},
	}}
}

// planets draws glyphs last so they sit above every line. Crowded glyphs
// are spread apart; a tick on the inner circle marks the true longitude.
func (b *builder) planets() Layer {
	l := Layer{Kind: LayerPlanets}
	ps := b.chart.Planets
	if len(ps) == 0 {
		return l
	}

	angles := make([]float64, len(ps))
	for i, p := range ps {
		angles[i] = b.angle(p.Longitude)
	}
	display := wheel.SpreadPlanets(angles, b.opts.MinGlyphSep)

	size := b.opts.Size * 0.04
	for i, p := range ps {
		em := b.snap.PlanetEmphasis(p.Name)
		el := interact.PlanetElement(p.Name)

		l.Shapes = append(l.Shapes, Shape{
			Kind:     ShapeLine,
			Element:  el,
			Emphasis: em,
			From:     b.layout.At(b.layout.Inner, angles[i]),
			To:       b.layout.At(b.layout.Inner+size*0.3, angles[i]),
			Style:    b.theme.emphasize(Style{Stroke: b.theme.Planet, Width: 1.5, Opacity: 0.9}, em),
		})

		st := Style{Fill: b.theme.Planet, Opacity: 1}
		if p.Retrograde {
			st.Fill = b.theme.Retrograde
		}
		l.Shapes = append(l.Shapes, Shape{
			Kind:     ShapeText,
			Element:  el,
			Emphasis: em,
			Center:   b.layout.At(b.layout.PlanetR, display[i]),
			R:        size * 0.7,
			Text:     string(chart.PlanetGlyph(p.Name)),
			Alt:      planetAbbrev(p.Name),
			Size:     size * emphasisScale(em),
			Anchor:   "middle",
			Style:    b.theme.emphasize(st, em),
		})
	}
	return l
}

// tooltip places a label box near the hovered element. Hover coordinates
// are screen coordinates, so this layer is not zoomed or panned.
func (b *builder) tooltip() Layer {
	l := Layer{Kind: LayerTooltip}
	h := b.snap.Hovered
	if h.IsNone() {
		return l
	}
	text := Describe(b.chart, h.Element)
	if text == "" {
		return l
	}

	size := b.opts.Size * 0.022
	pad := size * 0.5
	w := float64(utf8.RuneCountInString(text))*size*0.6 + 2*pad
	hgt := size + 2*pad
	at := interact.PlaceTooltip(wheel.Point{X: h.X, Y: h.Y}, w, hgt, b.opts.Size, b.opts.Size, b.opts.TooltipOffset)

	l.Shapes = append(l.Shapes,
		Shape{
			Kind:    ShapeRect,
			Element: h.Element,
			From:    at,
			To:      wheel.Point{X: at.X + w, Y: at.Y + hgt},
			Style:   Style{Fill: b.theme.TooltipBg, Stroke: b.theme.Guide, Width: 1, Opacity: 0.95},
		},
		Shape{
			Kind:    ShapeText,
			Element: h.Element,
			Center:  wheel.Point{X: at.X + pad, Y: at.Y + hgt/2},
			Text:    text,
			Alt:     text,
			Size:    size,
			Anchor:  "start",
			Style:   Style{Fill: b.theme.TooltipFg, Opacity: 1},
		},
	)
	return l
}

// Describe returns the one-line tooltip text for an element.
func Describe(c *chart.Chart, e interact.Element) string {
	switch e.Kind {
	case interact.KindPlanet:
		p, ok := c.Planet(e.Planet)
		if !ok {
			return e.Planet
		}
		s := fmt.Sprintf("%s %s, house %d", p.Name, chart.FormatPosition(p.Longitude), p.House)
		if p.Retrograde {
			s += " R"
		}
		return s
	case interact.KindHouse:
		h, ok := c.House(e.House)
		if !ok {
			return e.Label()
		}
		return fmt.Sprintf("House %d cusp %s", h.Number, chart.FormatPosition(h.Longitude))
	case interact.KindAspect:
		a, ok := c.Aspect(e.Aspect)
		if !ok {
			return e.Label()
		}
		motion := "separating"
		if a.Applying {
			motion = "applying"
		}
		s := fmt.Sprintf("%s %s %s", a.Planet1, a.Kind, a.Planet2)
		if exact := a.Kind.ExactAngle(); exact >= 0 {
			s += fmt.Sprintf(" (%g°)", exact)
		}
		p1, ok1 := c.Planet(a.Planet1)
		p2, ok2 := c.Planet(a.Planet2)
		if ok1 && ok2 {
			s += fmt.Sprintf(", separation %.2f°", wheel.AngularDistance(p1.Longitude, p2.Longitude))
		}
		return s + fmt.Sprintf(", orb %.2f°, %s", a.Orb, motion)
	default:
		return ""
	}
}

// Orb styling bounds. An exact aspect gets the widest, most opaque line;
// anything at or beyond maxStyledOrb gets the thinnest.
const (
	maxStyledOrb = 10.0
	minAspectW   = 0.75
	maxAspectW   = 2.5
	minAspectA   = 0.3
	maxAspectA   = 0.9
)

// OrbStyle returns the stroke width and opacity of an aspect line with the
// given orb. Tighter orbs draw thicker and more opaque.
func OrbStyle(orb float64) (width, opacity float64) {
	t := 1 - math.Min(math.Abs(orb), maxStyledOrb)/maxStyledOrb
	return minAspectW + (maxAspectW-minAspectW)*t, minAspectA + (maxAspectA-minAspectA)*t
}

func emphasisScale(em interact.Emphasis) float64 {
	switch em {
	case interact.EmphasisSelected:
		return 1.35
	case interact.EmphasisRelated:
		return 1.15
	default:
		return 1
	}
}

var planetAbbrevs = map[string]string{
	"Sun":        "Su",
	"Moon":       "Mo",
	"Mercury":    "Me",
	"Venus":      "Ve",
	"Mars":       "Ma",
	"Jupiter":    "Ju",
	"Saturn":     "Sa",
	"Uranus":     "Ur",
	"Neptune":    "Ne",
	"Pluto":      "Pl",
	"North Node": "NN",
	"South Node": "SN",
	"Chiron":     "Ch",
	"Lilith":     "Li",
}

func planetAbbrev(name string) string {
	if a, ok := planetAbbrevs[name]; ok {
		return a
	}
	if r := []rune(name); len(r) > 2 {
		return string(r[:2])
	}
	return name
}
