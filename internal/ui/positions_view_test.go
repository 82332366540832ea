package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/interact"
	"github.com/litescript/ls-natal/internal/state"
)

func TestPositions_WaitingWithoutChart(t *testing.T) {
	m := NewPositionsModel().SetSize(80, 20)
	if !strings.Contains(m.View(), "Waiting for chart data") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestPositions_Tables(t *testing.T) {
	c := testChart()
	c.Aspects = append(c.Aspects, chart.Aspect{
		Planet1: "Sun", Planet2: "Moon", Kind: chart.AspectQuincunx, Orb: 2, Applying: true,
	})
	m := NewPositionsModel().SetSize(100, 60).UpdateData(state.Snapshot{Chart: c})
	out := m.View()

	for _, want := range []string{
		"Planets", "Houses", "Aspects",
		"Sun", "10°00'00\" Aries",
		"Opposition", "separating",
		"Quincunx", "applying (minor)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestPositions_ObservedMotion(t *testing.T) {
	snap := state.Snapshot{Chart: testChart(), Motion: map[string]float64{"Sun": 0.9856}}
	m := NewPositionsModel().SetSize(120, 60).UpdateData(snap)

	var sun, moon string
	for _, line := range m.planetLines() {
		switch {
		case strings.Contains(line, "Sun"):
			sun = line
		case strings.Contains(line, "Moon"):
			moon = line
		}
	}
	if !strings.Contains(sun, "+0.9856°/d") {
		t.Errorf("Sun row = %q, want observed motion", sun)
	}
	if moon == "" || strings.Contains(moon, "°/d") {
		t.Errorf("Moon row = %q, want no observed motion", moon)
	}
}

func TestPositions_HousePlanets(t *testing.T) {
	m := NewPositionsModel().SetSize(100, 60).UpdateData(state.Snapshot{Chart: testChart()})

	var house7 string
	for _, line := range m.houseLines() {
		if strings.HasPrefix(line, "7 ") {
			house7 = line
		}
	}
	if !strings.Contains(house7, "Moon") {
		t.Errorf("house 7 row = %q, want Moon listed", house7)
	}
}

func TestPositions_Emphasis(t *testing.T) {
	ix := interact.New(testChart(), interact.Callbacks{})
	ix.SelectPlanet("Sun")

	m := NewPositionsModel().
		UpdateData(state.Snapshot{Chart: ix.Chart()}).
		SetInteraction(ix.Snapshot())

	tests := []struct {
		name string
		got  interact.Emphasis
		want interact.Emphasis
	}{
		{"Sun", m.snap.PlanetEmphasis("Sun"), interact.EmphasisSelected},
		{"Moon", m.snap.PlanetEmphasis("Moon"), interact.EmphasisRelated},
		{"house 1", m.snap.HouseEmphasis(1), interact.EmphasisRelated},
		{"house 2", m.snap.HouseEmphasis(2), interact.EmphasisDimmed},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s emphasis = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestPositions_ScrollClamped(t *testing.T) {
	m := NewPositionsModel().SetSize(100, 5).UpdateData(state.Snapshot{Chart: testChart()})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.offset != 0 {
		t.Errorf("offset = %d after up at top, want 0", m.offset)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnd})
	maxOffset := len(m.lines()) - 5
	if m.offset != maxOffset {
		t.Errorf("offset = %d after end, want %d", m.offset, maxOffset)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.offset != maxOffset {
		t.Errorf("offset = %d after down at bottom, want %d", m.offset, maxOffset)
	}

	if got := strings.Count(m.View(), "\n") + 1; got != 5 {
		t.Errorf("View() shows %d lines, want 5", got)
	}
}

func TestPositions_RecentEvents(t *testing.T) {
	now := time.Now()
	snap := state.Snapshot{
		Chart: testChart(),
		Events: []state.Event{
			{Type: state.EventChartLoaded, Timestamp: now.Add(-time.Hour), Chart: "Test", Detail: "natal.json"},
			{Type: state.EventSignChange, Timestamp: now, Planet: "Moon", Old: "Virgo", New: "Libra"},
		},
	}
	m := NewPositionsModel().SetSize(100, 80).UpdateData(snap)
	lines := m.eventLines()

	if len(lines) != 3 {
		t.Fatalf("eventLines = %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[1], "Moon Virgo → Libra") {
		t.Errorf("newest event should be first: %q", lines[1])
	}
	if !strings.Contains(lines[2], "natal.json") || !strings.Contains(lines[2], "hour ago") {
		t.Errorf("load event line = %q", lines[2])
	}
}

func TestDescribeEvent(t *testing.T) {
	tests := []struct {
		e    state.Event
		want string
	}{
		{state.Event{Type: state.EventHouseChange, Planet: "Mars", Old: "3", New: "4"}, "Mars 3 → 4"},
		{state.Event{Type: state.EventAspectFormed, Aspect: "Mars-Sun-Trine"}, "Mars-Sun-Trine"},
		{state.Event{Type: state.EventLoadFailed, Chart: "natal.json", Detail: "timeout"}, "timeout"},
		{state.Event{Type: state.EventChartLoaded, Chart: "Natal"}, "Natal"},
	}
	for _, tt := range tests {
		if got := describeEvent(tt.e); got != tt.want {
			t.Errorf("describeEvent(%s) = %q, want %q", tt.e.Type, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Sun", 12, "Sun"},
		{"Sagittarius Rising", 10, "Sagitta..."},
		{"Chiron", 3, "Chi"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
