// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/interact"
	"github.com/litescript/ls-natal/internal/logging"
	"github.com/litescript/ls-natal/internal/state"
	"github.com/litescript/ls-natal/internal/store"
	"github.com/litescript/ls-natal/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewWheel ViewMode = iota
	ViewPositions
	ViewLibrary

	viewCount = 3
)

// Msg types for Bubble Tea
type (
	// TickMsg triggers periodic UI updates.
	TickMsg time.Time

	// AnimTickMsg triggers fast animation updates.
	AnimTickMsg time.Time

	// DataUpdateMsg signals a new chart load is available.
	DataUpdateMsg struct {
		Snapshot state.Snapshot
	}

	// ErrorMsg signals a load error.
	ErrorMsg struct {
		Error error
	}

	// OpenChartMsg requests opening a chart from the library.
	OpenChartMsg struct {
		ID string
	}

	// DeleteChartMsg requests removing a chart from the library.
	DeleteChartMsg struct {
		ID string
	}

	// RefreshLibraryMsg requests reloading the library listing.
	RefreshLibraryMsg struct{}

	// libraryLoadedMsg carries a library listing.
	libraryLoadedMsg struct {
		entries []store.Entry
		err     error
	}

	// chartOpenedMsg carries a chart decoded from the library.
	chartOpenedMsg struct {
		entry store.Entry
		res   chart.LoadResult
	}
)

// Options are the optional dependencies of the root model.
type Options struct {
	Library Library
	Logger  *logging.Logger

	// Select is the initial wheel selection, kept across chart loads.
	Select interact.Element

	// OnOpen is called after a library chart is opened, so a watch loop
	// can follow the new source.
	OnOpen func(store.Entry)
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	state   *state.Manager
	library Library
	onOpen  func(store.Entry)
	log     *logging.Logger

	// UI state
	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	statusMsg string
	lastErr   error
	animTick  int

	// Sub-models
	wheel     WheelModel
	positions PositionsModel
	libView   LibraryModel

	snapshot state.Snapshot
}

// New creates a new root UI model.
func New(stateMgr *state.Manager, opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	m := Model{
		state:     stateMgr,
		library:   opts.Library,
		onOpen:    opts.OnOpen,
		log:       log,
		viewMode:  ViewWheel,
		wheel:     NewWheelModel(log.With("wheel")),
		positions: NewPositionsModel(),
		libView:   NewLibraryModel(),
	}
	if !opts.Select.IsNone() {
		m.wheel.ix.Select(opts.Select)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		animTickCmd(),
		m.loadLibrary(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.wheel.Close()
			return m, tea.Quit

		case "1", "w":
			m.viewMode = ViewWheel
		case "2", "p":
			m.viewMode = ViewPositions
		case "3", "L":
			m.viewMode = ViewLibrary

		case "tab":
			m.viewMode = (m.viewMode + 1) % viewCount

		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.MouseMsg:
		// Sub-views work in content coordinates.
		msg.Y -= m.headerHeight()
		cmds = append(cmds, m.updateActiveView(msg))

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		contentHeight := msg.Height - m.headerHeight() - 2
		m.wheel = m.wheel.SetSize(msg.Width, contentHeight)
		m.positions = m.positions.SetSize(msg.Width, contentHeight)
		m.libView = m.libView.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		if m.state != nil {
			m.applySnapshot(m.state.Snapshot())
		}

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++

	case DataUpdateMsg:
		loadsBefore := m.snapshot.Loads
		m.applySnapshot(msg.Snapshot)
		if msg.Snapshot.LastError == nil {
			m.lastErr = nil
		}
		if msg.Snapshot.Loads != loadsBefore {
			cmds = append(cmds, m.loadLibrary())
		}

	case ErrorMsg:
		m.lastErr = msg.Error

	case OpenChartMsg:
		cmds = append(cmds, m.openChart(msg.ID))

	case chartOpenedMsg:
		if msg.res.Error != nil {
			m.lastErr = msg.res.Error
			break
		}
		m.lastErr = nil
		if m.state != nil {
			m.state.Update(msg.res)
			m.applySnapshot(m.state.Snapshot())
		}
		if m.onOpen != nil {
			m.onOpen(msg.entry)
		}
		m.statusMsg = fmt.Sprintf("Opened %s", msg.entry.Name)
		m.viewMode = ViewWheel
		cmds = append(cmds, m.loadLibrary())

	case DeleteChartMsg:
		cmds = append(cmds, m.deleteChart(msg.ID))

	case RefreshLibraryMsg:
		cmds = append(cmds, m.loadLibrary())

	case libraryLoadedMsg:
		m.libView = m.libView.SetEntries(msg.entries, msg.err)

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	m.wheel = m.wheel.UpdateData(snap)
	m.positions = m.positions.UpdateData(snap).SetInteraction(m.wheel.Interaction())
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewWheel:
		m.wheel, cmd = m.wheel.Update(msg)
		m.positions = m.positions.SetInteraction(m.wheel.Interaction())
	case ViewPositions:
		m.positions, cmd = m.positions.Update(msg)
	case ViewLibrary:
		m.libView, cmd = m.libView.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewWheel:
		content = m.wheel.View()
	case ViewPositions:
		content = m.positions.View()
	case ViewLibrary:
		content = m.libView.View()
	}

	return m.renderFrame(content)
}

func (m Model) renderFrame(content string) string {
	header := m.renderHeader()
	footer := m.renderFooter()

	return header + "\n" + content + "\n" + footer
}

// headerHeight is the number of terminal rows above the content.
func (m Model) headerHeight() int {
	return strings.Count(m.renderHeader(), "\n") + 1
}

func (m Model) renderHeader() string {
	return m.renderLogo() + m.renderStatusLine()
}

func (m Model) renderLogo() string {
	title := "  ✶ L S - N A T A L ✶"

	var b strings.Builder
	b.WriteString("\n")

	runes := []rune(title)
	for col, r := range runes {
		color := gradientColor(col, 0, len(runes), 1)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
		b.WriteString(style.Render(string(r)))
	}
	b.WriteString("\n")

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	tagline := fmt.Sprintf("  Natal Chart Wheel · Interactive Viewer | v%s", version.Version)
	b.WriteString(muted.Render(tagline))
	b.WriteString("\n\n")

	return b.String()
}

// gradientColor returns a hex color for a position in the title gradient:
// blue -> purple -> magenta -> pink, fading toward the bottom rows.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64
	if xRatio < 0.33 {
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	} else if xRatio < 0.66 {
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	} else {
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	brightness := 1.0 - (yRatio * 0.5)
	return fmt.Sprintf("#%02X%02X%02X", clampByte(r*brightness), clampByte(g*brightness), clampByte(b*brightness))
}

func clampByte(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return int(v)
	}
}

func (m Model) renderStatusLine() string {
	return m.renderTabs() + "\n"
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Wheel", "[2] Positions", "[3] Library"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	switch {
	case m.lastErr != nil || m.snapshot.LastError != nil:
		err := m.lastErr
		if err == nil {
			err = m.snapshot.LastError
		}
		status = errStyle.Render("ERROR: " + err.Error())
		// failed reloads keep the last good chart
		if m.state != nil && m.state.HasData() {
			status += dimStyle.Render(" · showing previous chart")
		}
	case !m.snapshot.LastLoad.IsZero():
		status = accentStyle.Render(spinner) + dimStyle.Render(" loaded "+humanize.Time(m.snapshot.LastLoad))
		if m.snapshot.LoadDuration > 0 {
			status += dimStyle.Render(" (" + m.snapshot.LoadDuration.Round(time.Millisecond).String() + ")")
		}
		if m.state != nil {
			if every := m.state.RefreshInterval(); every > 0 {
				next := time.Until(m.snapshot.LastLoad.Add(every)).Round(time.Second)
				if next < 0 {
					next = 0
				}
				status += dimStyle.Render(fmt.Sprintf(" · refresh in %ds", int(next.Seconds())))
			}
		}
	default:
		status = accentStyle.Render(spinner) + " " + m.renderShimmerText("Waiting for chart...")
	}

	var help string
	switch m.viewMode {
	case ViewWheel:
		help = dimStyle.Render("click: select | dbl-click/0: reset | wheel/+/-: zoom | arrows/drag: pan | n/h/a: cycle | esc: clear | l: labels")
	case ViewPositions:
		help = dimStyle.Render("↑↓: scroll | pgup/pgdn | tab: switch view")
	case ViewLibrary:
		help = dimStyle.Render("↑↓: navigate | enter: open | x: delete | r: refresh")
	}

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + help

	if m.statusMsg != "" {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}

	return footer
}

// renderShimmerText renders text with a subtle moving shine effect.
func (m Model) renderShimmerText(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	pos := m.animTick % (len(runes) + 8)

	var result strings.Builder
	for i, r := range runes {
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}

		var r8, g8, b8 int
		switch {
		case dist <= 1:
			r8, g8, b8 = 180, 160, 220
		case dist <= 3:
			r8, g8, b8 = 140, 120, 180
		case dist <= 5:
			r8, g8, b8 = 110, 90, 150
		default:
			r8, g8, b8 = 80, 70, 120
		}

		hexColor := fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor))
		result.WriteString(style.Render(string(r)))
	}

	return result.String()
}

func (m Model) loadLibrary() tea.Cmd {
	lib := m.library
	if lib == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := lib.Recent(libraryLimit)
		return libraryLoadedMsg{entries: entries, err: err}
	}
}

// openChart decodes a saved payload without touching the network.
func (m Model) openChart(id string) tea.Cmd {
	lib := m.library
	if lib == nil {
		return nil
	}
	log := m.log
	return func() tea.Msg {
		start := time.Now()
		e, err := lib.Get(id)
		if err != nil {
			return chartOpenedMsg{res: chart.LoadResult{Error: fmt.Errorf("open %s: %w", id, err)}}
		}

		res := chart.LoadBytes(e.Source, e.Payload)
		if res.Error != nil {
			return chartOpenedMsg{entry: e, res: res}
		}
		res.LoadedAt = start
		res.Duration = time.Since(start)

		if err := lib.Touch(id); err != nil {
			log.Warn("touch %s: %v", id, err)
		}
		return chartOpenedMsg{entry: e, res: res}
	}
}

func (m Model) deleteChart(id string) tea.Cmd {
	lib := m.library
	if lib == nil {
		return nil
	}
	return func() tea.Msg {
		if err := lib.Delete(id); err != nil {
			return libraryLoadedMsg{err: fmt.Errorf("delete %s: %w", id, err)}
		}
		entries, err := lib.Recent(libraryLimit)
		return libraryLoadedMsg{entries: entries, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// SendDataUpdate creates a command that sends a data update message.
func SendDataUpdate(snapshot state.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return DataUpdateMsg{Snapshot: snapshot}
	}
}

// SendError creates a command that sends an error message.
func SendError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Error: err}
	}
}
