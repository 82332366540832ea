package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/litescript/ls-natal/internal/interact"
	"github.com/litescript/ls-natal/internal/wheel"
)

// Supersample is the factor the scene is drawn at before downscaling.
const Supersample = 2

// Format is an output image format.
type Format int

const (
	FormatUnknown Format = iota
	FormatSVG
	FormatPNG
	FormatWebP
)

func (f Format) String() string {
	switch f {
	case FormatSVG:
		return "svg"
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	default:
		return "unknown"
	}
}

// FormatFromPath detects the output format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return FormatSVG
	case ".png":
		return FormatPNG
	case ".webp":
		return FormatWebP
	default:
		return FormatUnknown
	}
}

// Write renders the scene in the given format.
func Write(w io.Writer, s *Scene, f Format, px int) error {
	switch f {
	case FormatSVG:
		return WriteSVG(w, s)
	case FormatPNG:
		return EncodePNG(w, Rasterize(s, px))
	case FormatWebP:
		return EncodeWebP(w, Rasterize(s, px))
	default:
		return fmt.Errorf("unsupported image format %q", f)
	}
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// EncodeWebP writes img as lossless WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("encode webp: %w", err)
	}
	return nil
}

// Rasterize draws the scene into a px×px image. The scene is drawn at
// Supersample times the size and downscaled with Catmull-Rom filtering.
func Rasterize(s *Scene, px int) *image.RGBA {
	if px <= 0 {
		px = int(s.Size)
	}
	big := px * Supersample

	r := &rasterizer{
		img:   image.NewRGBA(image.Rect(0, 0, big, big)),
		k:     float64(big) / s.Size,
		view:  s.View,
		ctr:   s.Layout.Center(),
		faces: make(map[int]font.Face),
	}
	if f, err := opentype.Parse(goregular.TTF); err == nil {
		r.font = f
	}

	r.fillRect(0, 0, float64(big), float64(big), parseHex(s.Theme.Background), 1)
	for _, l := range s.Layers {
		r.transformed = l.Kind != LayerTooltip
		for _, sh := range l.Shapes {
			r.draw(sh)
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, px, px))
	draw.CatmullRom.Scale(out, out.Bounds(), r.img, r.img.Bounds(), draw.Src, nil)
	return out
}

type rasterizer struct {
	img         *image.RGBA
	k           float64 // chart units to pixels
	view        interact.View
	ctr         wheel.Point
	transformed bool
	font        *opentype.Font
	faces       map[int]font.Face
}

// project maps a chart point to pixel space.
func (r *rasterizer) project(p wheel.Point) wheel.Point {
	if r.transformed {
		p = r.view.Apply(p, r.ctr)
	}
	return wheel.Point{X: p.X * r.k, Y: p.Y * r.k}
}

// length maps a chart-unit length to pixels.
func (r *rasterizer) length(v float64) float64 {
	if r.transformed {
		v *= r.view.Scale
	}
	return v * r.k
}

func (r *rasterizer) draw(sh Shape) {
	st := sh.Style
	if st.Opacity <= 0 {
		return
	}
	fill := parseHex(st.Fill)
	stroke := parseHex(st.Stroke)
	width := math.Max(r.length(st.Width), 1)

	switch sh.Kind {
	case ShapeCircle:
		c := r.project(sh.Center)
		rad := r.length(sh.R)
		if st.Fill != "" {
			r.fillAnnulus(c, 0, rad, 0, 360, fill, st.Opacity)
		}
		if st.Stroke != "" && st.Width > 0 {
			r.fillAnnulus(c, rad-width/2, rad+width/2, 0, 360, stroke, st.Opacity)
		}

	case ShapeLine:
		if st.Stroke != "" {
			r.line(r.project(sh.From), r.project(sh.To), width, stroke, st.Opacity)
		}

	case ShapeSector:
		c := r.project(sh.Center)
		if st.Fill != "" {
			r.fillAnnulus(c, r.length(sh.R), r.length(sh.R2), sh.Start, sh.End, fill, st.Opacity)
		}
		if st.Stroke != "" && st.Width > 0 {
			a := r.project(wheel.PolarToCartesian(sh.Center.X, sh.Center.Y, sh.R, sh.Start))
			b := r.project(wheel.PolarToCartesian(sh.Center.X, sh.Center.Y, sh.R2, sh.Start))
			r.line(a, b, width, stroke, st.Opacity)
		}

	case ShapeRect:
		a, b := r.project(sh.From), r.project(sh.To)
		if st.Fill != "" {
			r.fillRect(a.X, a.Y, b.X, b.Y, fill, st.Opacity)
		}
		if st.Stroke != "" && st.Width > 0 {
			r.line(a, wheel.Point{X: b.X, Y: a.Y}, width, stroke, st.Opacity)
			r.line(wheel.Point{X: b.X, Y: a.Y}, b, width, stroke, st.Opacity)
			r.line(b, wheel.Point{X: a.X, Y: b.Y}, width, stroke, st.Opacity)
			r.line(wheel.Point{X: a.X, Y: b.Y}, a, width, stroke, st.Opacity)
		}

	case ShapeText:
		if st.Fill != "" {
			r.text(sh, fill, st.Opacity)
		}
	}
}

// blend composites c at opacity a over the pixel at (x, y).
func (r *rasterizer) blend(x, y int, c color.RGBA, a float64) {
	if !(image.Point{X: x, Y: y}.In(r.img.Rect)) {
		return
	}
	i := r.img.PixOffset(x, y)
	p := r.img.Pix[i : i+4 : i+4]
	inv := 1 - a
	p[0] = uint8(float64(c.R)*a + float64(p[0])*inv + 0.5)
	p[1] = uint8(float64(c.G)*a + float64(p[1])*inv + 0.5)
	p[2] = uint8(float64(c.B)*a + float64(p[2])*inv + 0.5)
	p[3] = uint8(255*a + float64(p[3])*inv + 0.5)
}

func (r *rasterizer) bounds(x0, y0, x1, y1 float64) (int, int, int, int) {
	b := r.img.Rect
	ix0 := max(int(math.Floor(math.Min(x0, x1))), b.Min.X)
	iy0 := max(int(math.Floor(math.Min(y0, y1))), b.Min.Y)
	ix1 := min(int(math.Ceil(math.Max(x0, x1))), b.Max.X-1)
	iy1 := min(int(math.Ceil(math.Max(y0, y1))), b.Max.Y-1)
	return ix0, iy0, ix1, iy1
}

func (r *rasterizer) fillRect(x0, y0, x1, y1 float64, c color.RGBA, a float64) {
	ix0, iy0, ix1, iy1 := r.bounds(x0, y0, x1, y1)
	for y := iy0; y <= iy1; y++ {
		for x := ix0; x <= ix1; x++ {
			r.blend(x, y, c, a)
		}
	}
}

// fillAnnulus fills the part of the ring [r0, r1] around c that lies on
// the counter-clockwise arc from start to end (screen angles).
func (r *rasterizer) fillAnnulus(c wheel.Point, r0, r1, start, end float64, col color.RGBA, a float64) {
	if r0 < 0 {
		r0 = 0
	}
	span := end - start
	full := span >= 360
	ix0, iy0, ix1, iy1 := r.bounds(c.X-r1, c.Y-r1, c.X+r1, c.Y+r1)
	for y := iy0; y <= iy1; y++ {
		for x := ix0; x <= ix1; x++ {
			p := wheel.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			d, ang := wheel.CartesianToPolar(c.X, c.Y, p)
			if d < r0 || d > r1 {
				continue
			}
			if !full && wheel.ArcLength(start, ang) > span {
				continue
			}
			r.blend(x, y, col, a)
		}
	}
}

func (r *rasterizer) line(from, to wheel.Point, width float64, c color.RGBA, a float64) {
	half := width / 2
	ix0, iy0, ix1, iy1 := r.bounds(
		math.Min(from.X, to.X)-half, math.Min(from.Y, to.Y)-half,
		math.Max(from.X, to.X)+half, math.Max(from.Y, to.Y)+half,
	)
	for y := iy0; y <= iy1; y++ {
		for x := ix0; x <= ix1; x++ {
			p := wheel.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			if segmentDistance(p, from, to) <= half {
				r.blend(x, y, c, a)
			}
		}
	}
}

func (r *rasterizer) face(size float64) font.Face {
	if r.font == nil {
		return nil
	}
	px := int(math.Round(size))
	if px < 4 {
		px = 4
	}
	if f, ok := r.faces[px]; ok {
		return f
	}
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    float64(px),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil
	}
	r.faces[px] = f
	return f
}

// text draws the ASCII fallback label; the embedded font has no
// astrological glyphs.
func (r *rasterizer) text(sh Shape, c color.RGBA, a float64) {
	label := sh.Alt
	if label == "" {
		label = sh.Text
	}
	face := r.face(r.length(sh.Size))
	if face == nil || label == "" {
		return
	}

	at := r.project(sh.Center)
	width := font.MeasureString(face, label).Ceil()
	x := int(at.X)
	if sh.Anchor != "start" {
		x -= width / 2
	}
	// vertically centre on the cap height
	baseline := int(at.Y) + int(float64(face.Metrics().Ascent.Ceil())*0.35)

	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(255 * a)}),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(baseline)},
	}
	d.DrawString(label)
}

// segmentDistance returns the distance from p to the segment ab.
func segmentDistance(p, a, b wheel.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(wheel.Point{X: a.X + ab.X*t, Y: a.Y + ab.Y*t})
}

// parseHex parses "#rrggbb" or "#rgb". Anything else is black.
func parseHex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{A: 255}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
