package chart

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/litescript/ls-natal/internal/wheel"
)

// ChartExport is the JSON-serializable representation of a chart with
// wheel placement already resolved.
type ChartExport struct {
	Name      string         `json:"name"`
	LoadedAt  time.Time      `json:"loaded_at"`
	Ascendant PointExport    `json:"ascendant"`
	Midheaven PointExport    `json:"midheaven"`
	Planets   []PlanetExport `json:"planets"`
	Houses    []HouseExport  `json:"houses"`
	Aspects   []AspectExport `json:"aspects"`
}

// PointExport is a longitude with its wheel angle.
type PointExport struct {
	Longitude  float64 `json:"longitude"`
	WheelAngle float64 `json:"wheel_angle"`
	Position   string  `json:"position"`
}

// PlanetExport is a JSON-friendly planet with derived fields.
type PlanetExport struct {
	Name       string  `json:"name"`
	Longitude  float64 `json:"longitude"`
	WheelAngle float64 `json:"wheel_angle"`
	Position   string  `json:"position"`
	House      int     `json:"house"`
	Retrograde bool    `json:"retrograde"`
	Aspects    int     `json:"aspect_count"`
}

// HouseExport is a JSON-friendly house cusp.
type HouseExport struct {
	Number     int     `json:"house"`
	Longitude  float64 `json:"longitude"`
	WheelAngle float64 `json:"wheel_angle"`
	Position   string  `json:"position"`
	Occupants  int     `json:"occupants"`
}

// AspectExport is a JSON-friendly aspect.
type AspectExport struct {
	ID       string  `json:"id"`
	Planet1  string  `json:"planet1"`
	Planet2  string  `json:"planet2"`
	Kind     string  `json:"aspect"`
	Orb      float64 `json:"orb"`
	Applying bool    `json:"applying"`
	Major    bool    `json:"major"`
}

// ExportChart converts a chart to an exportable format.
func ExportChart(c *Chart, loadedAt time.Time) *ChartExport {
	if c == nil {
		return &ChartExport{LoadedAt: loadedAt}
	}

	asc := c.Ascendant
	export := &ChartExport{
		Name:      c.Name,
		LoadedAt:  loadedAt,
		Ascendant: pointExport(c.Ascendant, asc),
		Midheaven: pointExport(c.Midheaven, asc),
	}

	for _, p := range c.Planets {
		export.Planets = append(export.Planets, PlanetExport{
			Name:       p.Name,
			Longitude:  p.Longitude,
			WheelAngle: wheel.LongitudeToAngle(p.Longitude, asc),
			Position:   FormatPosition(p.Longitude),
			House:      p.House,
			Retrograde: p.Retrograde,
			Aspects:    len(c.AspectsOf(p.Name)),
		})
	}

	for _, h := range c.Houses {
		export.Houses = append(export.Houses, HouseExport{
			Number:     h.Number,
			Longitude:  h.Longitude,
			WheelAngle: wheel.LongitudeToAngle(h.Longitude, asc),
			Position:   FormatPosition(h.Longitude),
			Occupants:  len(c.PlanetsInHouse(h.Number)),
		})
	}

	for _, a := range c.Aspects {
		export.Aspects = append(export.Aspects, AspectExport{
			ID:       a.Key().String(),
			Planet1:  a.Planet1,
			Planet2:  a.Planet2,
			Kind:     string(a.Kind),
			Orb:      a.Orb,
			Applying: a.Applying,
			Major:    a.Kind.IsMajor(),
		})
	}

	return export
}

func pointExport(lon, asc float64) PointExport {
	return PointExport{
		Longitude:  lon,
		WheelAngle: wheel.LongitudeToAngle(lon, asc),
		Position:   FormatPosition(lon),
	}
}

// WriteJSON writes the export as indented JSON.
func (e *ChartExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// WriteSummary writes planet, house and aspect tables. When styled is set
// headers are rendered with terminal colours.
func WriteSummary(w io.Writer, c *Chart, rawSize int, styled bool) {
	heading := func(s string) string { return s }
	dim := func(s string) string { return s }
	if styled {
		hs := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
		ds := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
		heading = func(s string) string { return hs.Render(s) }
		dim = func(s string) string { return ds.Render(s) }
	}

	if c == nil {
		fmt.Fprintln(w, "No chart loaded")
		return
	}

	title := c.Name
	if title == "" {
		title = "Chart"
	}
	fmt.Fprintf(w, "%s  %s\n", heading(title), dim(fmt.Sprintf("(%s payload)", humanize.Bytes(uint64(rawSize)))))
	fmt.Fprintf(w, "ASC %s   MC %s\n", FormatPosition(c.Ascendant), FormatPosition(c.Midheaven))
	fmt.Fprintln(w, strings.Repeat("─", 64))

	// Planets
	fmt.Fprintln(w, heading(fmt.Sprintf("%-12s %-22s %-5s %-3s", "Planet", "Position", "House", "R")))
	for _, p := range c.Planets {
		retro := ""
		if p.Retrograde {
			retro = "℞"
		}
		fmt.Fprintf(w, "%-12s %-22s %5d %-3s\n",
			truncateStr(p.Name, 12), FormatPosition(p.Longitude), p.House, retro)
	}

	// Houses
	if len(c.Houses) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, heading(fmt.Sprintf("%-6s %-22s %-9s", "House", "Cusp", "Occupants")))
		for _, h := range c.Houses {
			fmt.Fprintf(w, "%-6d %-22s %9d\n", h.Number, FormatPosition(h.Longitude), len(c.PlanetsInHouse(h.Number)))
		}
	}

	// Aspects
	if len(c.Aspects) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, heading(fmt.Sprintf("%-12s %-14s %-12s %6s %-10s", "Planet", "Aspect", "Planet", "Orb", "Phase")))
		minor := 0
		for _, a := range c.Aspects {
			if !a.Kind.IsMajor() {
				minor++
			}
			phase := "separating"
			if a.Applying {
				phase = "applying"
			}
			fmt.Fprintf(w, "%-12s %-14s %-12s %5.2f° %-10s\n",
				truncateStr(a.Planet1, 12), a.Kind, truncateStr(a.Planet2, 12), a.Orb, phase)
		}
		fmt.Fprintf(w, "\nTotal: %d aspects (%d minor, hidden on the wheel)\n", len(c.Aspects), minor)
	}
}

func formatDMS(d, m, s int) string {
	return fmt.Sprintf("%2d°%02d'%02d\"", d, m, s)
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
