package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/litescript/ls-natal/internal/wheel"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// WriteSVG writes the scene as a standalone SVG document. Interactive
// elements carry a data-id attribute with their element ID.
func WriteSVG(w io.Writer, s *Scene) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.2f %.2f">`+"\n",
		s.Size, s.Size, s.Size, s.Size)
	fmt.Fprintf(bw, `  <rect x="0" y="0" width="%.2f" height="%.2f" fill="%s"/>`+"\n", s.Size, s.Size, s.Theme.Background)

	transform := ""
	if !s.View.IsIdentity() {
		transform = fmt.Sprintf(` transform="%s"`, s.Transform())
	}

	for _, l := range s.Layers {
		t := transform
		if l.Kind == LayerTooltip {
			t = ""
		}
		fmt.Fprintf(bw, `  <g class="layer-%s"%s>`+"\n", l.Kind, t)
		for _, sh := range l.Shapes {
			writeShape(bw, sh)
		}
		bw.WriteString("  </g>\n")
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func writeShape(w io.Writer, sh Shape) {
	id := ""
	if !sh.Element.IsNone() {
		id = fmt.Sprintf(` data-id="%s"`, escapeXML(sh.Element.ID()))
	}
	paint := paintAttrs(sh.Style)

	switch sh.Kind {
	case ShapeCircle:
		fmt.Fprintf(w, `    <circle cx="%.2f" cy="%.2f" r="%.2f"%s%s/>`+"\n",
			sh.Center.X, sh.Center.Y, sh.R, paint, id)

	case ShapeLine:
		fmt.Fprintf(w, `    <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"%s%s/>`+"\n",
			sh.From.X, sh.From.Y, sh.To.X, sh.To.Y, paint, id)

	case ShapeSector:
		fmt.Fprintf(w, `    <path d="%s"%s%s/>`+"\n", sectorPath(sh), paint, id)

	case ShapeRect:
		fmt.Fprintf(w, `    <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="4" ry="4"%s%s/>`+"\n",
			sh.From.X, sh.From.Y, sh.To.X-sh.From.X, sh.To.Y-sh.From.Y, paint, id)

	case ShapeText:
		anchor := sh.Anchor
		if anchor == "" {
			anchor = "middle"
		}
		fmt.Fprintf(w, `    <text x="%.2f" y="%.2f" font-family="sans-serif" font-size="%.2f" text-anchor="%s" dominant-baseline="central"%s%s>%s</text>`+"\n",
			sh.Center.X, sh.Center.Y, sh.Size, anchor, paint, id, escapeXML(sh.Text))
	}
}

func paintAttrs(st Style) string {
	var b strings.Builder
	if st.Fill != "" {
		fmt.Fprintf(&b, ` fill="%s"`, st.Fill)
	} else {
		b.WriteString(` fill="none"`)
	}
	if st.Stroke != "" && st.Width > 0 {
		fmt.Fprintf(&b, ` stroke="%s" stroke-width="%.2f"`, st.Stroke, st.Width)
	}
	if st.Opacity < 1 {
		fmt.Fprintf(&b, ` opacity="%.2f"`, st.Opacity)
	}
	return b.String()
}

// sectorPath returns the path of an annular wedge running counter-clockwise
// on screen from Start to End.
func sectorPath(sh Shape) string {
	c := sh.Center
	span := sh.End - sh.Start
	if span >= 360 {
		span = 359.99
	}
	large := 0
	if span > 180 {
		large = 1
	}
	end := sh.Start + span

	o1 := wheel.PolarToCartesian(c.X, c.Y, sh.R2, sh.Start)
	o2 := wheel.PolarToCartesian(c.X, c.Y, sh.R2, end)
	i2 := wheel.PolarToCartesian(c.X, c.Y, sh.R, end)
	i1 := wheel.PolarToCartesian(c.X, c.Y, sh.R, sh.Start)

	// screen y points down, so counter-clockwise is sweep-flag 0
	return fmt.Sprintf("M %.2f %.2f A %.2f %.2f 0 %d 0 %.2f %.2f L %.2f %.2f A %.2f %.2f 0 %d 1 %.2f %.2f Z",
		o1.X, o1.Y, sh.R2, sh.R2, large, o2.X, o2.Y,
		i2.X, i2.Y, sh.R, sh.R, large, i1.X, i1.Y)
}
