package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/litescript/ls-natal/internal/store"
)

// libraryLimit is how many recent charts the library view loads.
const libraryLimit = 50

// Library is the chart library behind the library view.
type Library interface {
	Recent(limit int) ([]store.Entry, error)
	Get(id string) (store.Entry, error)
	Touch(id string) error
	Delete(id string) error
}

// LibraryModel lists previously opened charts.
type LibraryModel struct {
	width   int
	height  int
	cursor  int
	entries []store.Entry
	lastErr error
	loaded  bool
}

// NewLibraryModel creates an empty library view.
func NewLibraryModel() LibraryModel {
	return LibraryModel{}
}

// Init implements the Bubble Tea model interface.
func (m LibraryModel) Init() tea.Cmd {
	return nil
}

// SetSize updates the viewport size.
func (m LibraryModel) SetSize(width, height int) LibraryModel {
	m.width = width
	m.height = height
	return m
}

// SetEntries replaces the listed charts, keeping the cursor in range.
func (m LibraryModel) SetEntries(entries []store.Entry, err error) LibraryModel {
	m.loaded = true
	m.lastErr = err
	if err != nil {
		return m
	}
	m.entries = entries
	if m.cursor >= len(entries) {
		m.cursor = len(entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

// Selected returns the entry under the cursor.
func (m LibraryModel) Selected() (store.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return store.Entry{}, false
	}
	return m.entries[m.cursor], true
}

// Update handles messages.
func (m LibraryModel) Update(msg tea.Msg) (LibraryModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "home":
		m.cursor = 0
	case "end":
		if len(m.entries) > 0 {
			m.cursor = len(m.entries) - 1
		}
	case "enter":
		if e, ok := m.Selected(); ok {
			return m, func() tea.Msg { return OpenChartMsg{ID: e.ID} }
		}
	case "x", "delete":
		if e, ok := m.Selected(); ok {
			return m, func() tea.Msg { return DeleteChartMsg{ID: e.ID} }
		}
	case "r":
		return m, func() tea.Msg { return RefreshLibraryMsg{} }
	}
	return m, nil
}

// View renders the library table.
func (m LibraryModel) View() string {
	var b strings.Builder

	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("Error: " + m.lastErr.Error()))
		b.WriteString("\n\n")
	}

	b.WriteString(titleStyle.Render("Chart Library"))
	b.WriteString("\n")

	if !m.loaded {
		b.WriteString("  Loading library...\n")
		return b.String()
	}

	header := fmt.Sprintf("%-24s %-30s %-9s %-16s %s", "Name", "Source", "Size", "Opened", "Opens")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if len(m.entries) == 0 {
		b.WriteString("  No saved charts\n")
		return b.String()
	}

	maxRows := m.height - 4
	if maxRows < 5 {
		maxRows = 5
	}
	startIdx := 0
	if m.cursor >= maxRows {
		startIdx = m.cursor - maxRows + 1
	}
	endIdx := startIdx + maxRows
	if endIdx > len(m.entries) {
		endIdx = len(m.entries)
	}

	for i := startIdx; i < endIdx; i++ {
		e := m.entries[i]
		row := fmt.Sprintf("%-24s %-30s %-9s %-16s %d",
			truncate(e.Name, 24),
			truncate(e.Source, 30),
			humanize.Bytes(uint64(e.Size())),
			humanize.Time(e.OpenedAt),
			e.OpenedCount,
		)
		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render(row))
		} else {
			b.WriteString(rowStyle.Render(row))
		}
		b.WriteString("\n")
	}

	if len(m.entries) > maxRows {
		b.WriteString(fmt.Sprintf("\n  Showing %d-%d of %d charts", startIdx+1, endIdx, len(m.entries)))
	}

	return b.String()
}
