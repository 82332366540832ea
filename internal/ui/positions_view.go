package ui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/interact"
	"github.com/litescript/ls-natal/internal/state"
)

// Table styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	relatedRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81"))

	dimmedRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// recentEventCount is how many state events the positions view lists.
const recentEventCount = 8

// PositionsModel lists planets, houses and aspects with the wheel's
// selection emphasis.
type PositionsModel struct {
	width  int
	height int
	offset int

	chart  *chart.Chart
	events []state.Event
	motion map[string]float64
	snap   interact.Snapshot
}

// NewPositionsModel creates an empty positions view.
func NewPositionsModel() PositionsModel {
	return PositionsModel{}
}

// Init implements the Bubble Tea model interface.
func (m PositionsModel) Init() tea.Cmd {
	return nil
}

// SetSize updates the viewport size.
func (m PositionsModel) SetSize(width, height int) PositionsModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with new data.
func (m PositionsModel) UpdateData(snapshot state.Snapshot) PositionsModel {
	m.chart = snapshot.Chart
	m.events = snapshot.Events
	m.motion = snapshot.Motion
	return m
}

// SetInteraction sets the selection used to emphasise rows.
func (m PositionsModel) SetInteraction(snap interact.Snapshot) PositionsModel {
	m.snap = snap
	return m
}

// Update handles messages.
func (m PositionsModel) Update(msg tea.Msg) (PositionsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		maxOffset := len(m.lines()) - m.visibleRows()
		if maxOffset < 0 {
			maxOffset = 0
		}

		switch msg.String() {
		case "up", "k":
			m.offset--
		case "down", "j":
			m.offset++
		case "pgup":
			m.offset -= m.visibleRows()
		case "pgdown", " ":
			m.offset += m.visibleRows()
		case "home":
			m.offset = 0
		case "end":
			m.offset = maxOffset
		}

		if m.offset > maxOffset {
			m.offset = maxOffset
		}
		if m.offset < 0 {
			m.offset = 0
		}
	}
	return m, nil
}

func (m PositionsModel) visibleRows() int {
	if m.height < 5 {
		return 5
	}
	return m.height
}

// View renders the tables.
func (m PositionsModel) View() string {
	if m.chart == nil {
		return "Waiting for chart data...\n"
	}

	lines := m.lines()
	end := m.offset + m.visibleRows()
	if end > len(lines) {
		end = len(lines)
	}
	start := m.offset
	if start > end {
		start = end
	}
	return strings.Join(lines[start:end], "\n")
}

func (m PositionsModel) lines() []string {
	if m.chart == nil {
		return nil
	}
	var out []string
	out = append(out, m.planetLines()...)
	out = append(out, "")
	out = append(out, m.houseLines()...)
	out = append(out, "")
	out = append(out, m.aspectLines()...)
	if len(m.events) > 0 {
		out = append(out, "")
		out = append(out, m.eventLines()...)
	}
	return out
}

func (m PositionsModel) planetLines() []string {
	out := []string{
		titleStyle.Render("Planets"),
		headerStyle.Render(fmt.Sprintf("%-12s %-22s %-5s %-9s %-2s %s", "Planet", "Position", "House", "Speed", "", "Observed")),
	}
	if len(m.chart.Planets) == 0 {
		return append(out, "  No planets")
	}
	for _, p := range m.chart.Planets {
		retro := ""
		if p.Retrograde {
			retro = "R"
		}
		observed := "-"
		if v, ok := m.motion[p.Name]; ok {
			observed = fmt.Sprintf("%+8.4f°/d", v)
		}
		row := fmt.Sprintf("%-12s %-22s %-5d %+8.4f° %-2s %s",
			truncate(p.Name, 12),
			chart.FormatPosition(p.Longitude),
			p.House,
			p.Speed,
			retro,
			observed,
		)
		out = append(out, emphasisStyle(m.snap.PlanetEmphasis(p.Name)).Render(row))
	}
	return out
}

func (m PositionsModel) houseLines() []string {
	out := []string{
		titleStyle.Render("Houses"),
		headerStyle.Render(fmt.Sprintf("%-6s %-22s %s", "House", "Cusp", "Planets")),
	}
	if len(m.chart.Houses) == 0 {
		return append(out, "  No houses")
	}
	houses := append([]chart.House(nil), m.chart.Houses...)
	sort.SliceStable(houses, func(i, j int) bool { return houses[i].Number < houses[j].Number })

	for _, h := range houses {
		var names []string
		for _, p := range m.chart.PlanetsInHouse(h.Number) {
			names = append(names, p.Name)
		}
		row := fmt.Sprintf("%-6d %-22s %s",
			h.Number,
			chart.FormatPosition(h.Longitude),
			truncate(strings.Join(names, ", "), 40),
		)
		out = append(out, emphasisStyle(m.snap.HouseEmphasis(h.Number)).Render(row))
	}
	return out
}

func (m PositionsModel) aspectLines() []string {
	out := []string{
		titleStyle.Render("Aspects"),
		headerStyle.Render(fmt.Sprintf("%-12s %-14s %-12s %-7s %s", "Planet", "Aspect", "Planet", "Orb", "")),
	}
	if len(m.chart.Aspects) == 0 {
		return append(out, "  No aspects")
	}
	for _, a := range m.chart.Aspects {
		motion := "separating"
		if a.Applying {
			motion = "applying"
		}
		if !a.Kind.IsMajor() {
			motion += " (minor)"
		}
		row := fmt.Sprintf("%-12s %-14s %-12s %5.2f°  %s",
			truncate(a.Planet1, 12),
			truncate(string(a.Kind), 14),
			truncate(a.Planet2, 12),
			a.Orb,
			motion,
		)
		out = append(out, emphasisStyle(m.snap.AspectEmphasis(a.Key())).Render(row))
	}
	return out
}

func (m PositionsModel) eventLines() []string {
	out := []string{titleStyle.Render("Recent Changes")}
	events := m.events
	if len(events) > recentEventCount {
		events = events[len(events)-recentEventCount:]
	}
	// newest first
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		out = append(out, rowStyle.Render(fmt.Sprintf("  %-14s %-18s %s",
			humanize.Time(e.Timestamp), e.Type, describeEvent(e))))
	}
	return out
}

func describeEvent(e state.Event) string {
	switch e.Type {
	case state.EventSignChange, state.EventHouseChange:
		return fmt.Sprintf("%s %s → %s", e.Planet, e.Old, e.New)
	case state.EventAspectFormed, state.EventAspectDissolved:
		return e.Aspect
	default:
		if e.Detail != "" {
			return e.Detail
		}
		return e.Chart
	}
}

func emphasisStyle(em interact.Emphasis) lipgloss.Style {
	switch em {
	case interact.EmphasisSelected:
		return selectedRowStyle
	case interact.EmphasisRelated:
		return relatedRowStyle
	case interact.EmphasisDimmed:
		return dimmedRowStyle
	default:
		return rowStyle
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
