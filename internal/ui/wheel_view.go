package ui

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/interact"
	"github.com/litescript/ls-natal/internal/logging"
	"github.com/litescript/ls-natal/internal/render"
	"github.com/litescript/ls-natal/internal/state"
	"github.com/litescript/ls-natal/internal/wheel"
)

// LabelMode controls which planet names are drawn next to the glyphs.
type LabelMode int

const (
	LabelNone    LabelMode = iota // Glyphs only
	LabelFocused                  // Selected, related and hovered planets
	LabelAll                      // Every planet
)

func (l LabelMode) String() string {
	switch l {
	case LabelFocused:
		return "focused"
	case LabelAll:
		return "all"
	default:
		return "none"
	}
}

const (
	// Terminal cells are roughly twice as tall as they are wide.
	cellAspect = 2.0

	// Wheel scene size in chart units; the projection scales it to the grid.
	wheelSceneSize = 600.0

	// Arrow keys pan by this fraction of the scene.
	panFraction = 0.05

	// Two clicks on the same cell within this window are a double click.
	doubleClickWindow = 400 * time.Millisecond

	hudLines = 3
)

// Wheel colours
const (
	colorGuide    = lipgloss.Color("238")
	colorDimmed   = lipgloss.Color("238")
	colorLabel    = lipgloss.Color("250")
	colorLabelHot = lipgloss.Color("#ffd54a")
	colorTooltip  = lipgloss.Color("#e6edf3")
	colorHUD      = lipgloss.Color("60")
)

const (
	glyphGuide = '·'
	glyphShade = '░'
)

// projection maps scene coordinates onto a character grid, fitting the
// square scene into the grid with cells stretched to cellAspect.
type projection struct {
	cols, rows     int
	unitW, unitH   float64 // scene units per cell
	offCol, offRow float64 // cell position of the scene origin
}

func newProjection(cols, rows int, size float64) projection {
	d := float64(rows)
	if w := float64(cols) / cellAspect; w < d {
		d = w
	}
	if d < 1 {
		d = 1
	}
	unitH := size / d
	return projection{
		cols:   cols,
		rows:   rows,
		unitW:  unitH / cellAspect,
		unitH:  unitH,
		offCol: (float64(cols) - d*cellAspect) / 2,
		offRow: (float64(rows) - d) / 2,
	}
}

// toScene returns the scene point at the centre of a cell.
func (p projection) toScene(col, row int) wheel.Point {
	return wheel.Point{
		X: (float64(col) + 0.5 - p.offCol) * p.unitW,
		Y: (float64(row) + 0.5 - p.offRow) * p.unitH,
	}
}

// cellF returns the fractional cell position of a scene point.
func (p projection) cellF(pt wheel.Point) (float64, float64) {
	return pt.X/p.unitW + p.offCol, pt.Y/p.unitH + p.offRow
}

// toCell returns the cell containing a scene point and whether it is on
// the grid.
func (p projection) toCell(pt wheel.Point) (int, int, bool) {
	c, r := p.cellF(pt)
	col, row := int(math.Floor(c)), int(math.Floor(r))
	return col, row, col >= 0 && col < p.cols && row >= 0 && row < p.rows
}

// canvas is a character grid with per-cell colour and the chart element
// that painted each cell.
type canvas struct {
	cols, rows int
	cells      [][]rune
	colors     [][]lipgloss.Color
	owners     [][]interact.Element
	locked     [][]bool // planet glyphs; labels never cover them
}

func newCanvas(cols, rows int) *canvas {
	cv := &canvas{
		cols:   cols,
		rows:   rows,
		cells:  make([][]rune, rows),
		colors: make([][]lipgloss.Color, rows),
		owners: make([][]interact.Element, rows),
		locked: make([][]bool, rows),
	}
	for y := 0; y < rows; y++ {
		cv.cells[y] = []rune(strings.Repeat(" ", cols))
		cv.colors[y] = make([]lipgloss.Color, cols)
		cv.owners[y] = make([]interact.Element, cols)
		cv.locked[y] = make([]bool, cols)
	}
	return cv
}

func (cv *canvas) inBounds(col, row int) bool {
	return col >= 0 && col < cv.cols && row >= 0 && row < cv.rows
}

func (cv *canvas) set(col, row int, r rune, color lipgloss.Color, owner interact.Element) {
	if !cv.inBounds(col, row) {
		return
	}
	cv.cells[row][col] = r
	cv.colors[row][col] = color
	cv.owners[row][col] = owner
}

func (cv *canvas) String() string {
	var b strings.Builder
	for y := 0; y < cv.rows; y++ {
		for x := 0; x < cv.cols; x++ {
			ch := cv.cells[y][x]
			if ch == ' ' || cv.colors[y][x] == "" {
				b.WriteRune(ch)
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(cv.colors[y][x]).Render(string(ch)))
		}
		if y < cv.rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// WheelModel is the interactive chart wheel view.
type WheelModel struct {
	width  int
	height int

	ix   *interact.State
	keys *interact.KeyHandler
	opts render.Options
	log  *logging.Logger

	labelMode LabelMode

	// Pointer tracking
	hoverCol, hoverRow int
	pressed            bool
	moved              bool
	lastCol, lastRow   int
	lastClickAt        time.Time
	lastClickCol       int
	lastClickRow       int
	now                func() time.Time
}

// NewWheelModel creates a wheel view with no chart. The keyboard handler
// is subscribed here once; Update only re-binds its actions.
func NewWheelModel(log *logging.Logger) WheelModel {
	if log == nil {
		log = logging.Discard()
	}
	opts := render.DefaultOptions()
	opts.Size = wheelSceneSize
	opts.MinGlyphSep = 10

	m := WheelModel{
		opts:      opts,
		log:       log,
		labelMode: LabelFocused,
		hoverCol:  -1,
		hoverRow:  -1,
		now:       time.Now,
	}
	m.ix = interact.New(nil, interact.Callbacks{
		OnPlanetClick: func(p chart.Planet) { log.Debug("planet clicked: %s", p.Name) },
		OnHouseClick:  func(h chart.House) { log.Debug("house clicked: %d", h.Number) },
		OnAspectClick: func(a chart.Aspect) { log.Debug("aspect clicked: %s", a.Key()) },
	})
	m.keys = interact.NewKeyHandler(m.ix.KeyActions())
	return m
}

// Init returns nil cmd
func (m WheelModel) Init() tea.Cmd {
	return nil
}

// SetSize updates the viewport size.
func (m WheelModel) SetSize(width, height int) WheelModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData swaps in the snapshot's chart when it changed.
func (m WheelModel) UpdateData(snapshot state.Snapshot) WheelModel {
	if snapshot.Chart != m.ix.Chart() {
		m.ix.SetChart(snapshot.Chart)
	}
	return m
}

// Interaction returns the current selection, hover and view.
func (m WheelModel) Interaction() interact.Snapshot {
	return m.ix.Snapshot()
}

// LabelMode returns the current label mode.
func (m WheelModel) LabelMode() LabelMode {
	return m.labelMode
}

// Close detaches the keyboard handler.
func (m WheelModel) Close() {
	m.keys.Close()
}

func (m WheelModel) canvasSize() (int, int) {
	rows := m.height - hudLines
	if rows < 1 {
		rows = 1
	}
	cols := m.width
	if cols < 1 {
		cols = 1
	}
	return cols, rows
}

func (m WheelModel) projection() projection {
	cols, rows := m.canvasSize()
	return newProjection(cols, rows, m.opts.Size)
}

func (m WheelModel) scene() *render.Scene {
	return render.Build(m.ix.Chart(), m.ix.Snapshot(), m.opts)
}

// Update handles messages.
func (m WheelModel) Update(msg tea.Msg) (WheelModel, tea.Cmd) {
	// The state may have been replaced since the last update; keep the
	// single subscription pointed at the current actions.
	m.keys.Bind(m.ix.KeyActions())

	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if m.keys.Handle(key) {
			return m, nil
		}
		step := m.opts.Size * panFraction
		switch key {
		case "up":
			m.ix.PanBy(0, step)
		case "down":
			m.ix.PanBy(0, -step)
		case "left":
			m.ix.PanBy(step, 0)
		case "right":
			m.ix.PanBy(-step, 0)
		case "n":
			m.cyclePlanet(1)
		case "N":
			m.cyclePlanet(-1)
		case "h":
			m.cycleHouse(1)
		case "H":
			m.cycleHouse(-1)
		case "a":
			m.cycleAspect(1)
		case "A":
			m.cycleAspect(-1)
		case "l":
			m.labelMode = (m.labelMode + 1) % 3
		}

	case tea.MouseMsg:
		m = m.handleMouse(msg)
	}

	return m, nil
}

func (m WheelModel) handleMouse(msg tea.MouseMsg) WheelModel {
	proj := m.projection()
	pt := proj.toScene(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.ix.WheelZoom(-1, pt, m.scene().Layout.Center())
		case tea.MouseButtonWheelDown:
			m.ix.WheelZoom(1, pt, m.scene().Layout.Center())
		case tea.MouseButtonLeft:
			m.pressed = true
			m.moved = false
			m.lastCol, m.lastRow = msg.X, msg.Y
		}

	case tea.MouseActionMotion:
		if m.pressed && msg.Button == tea.MouseButtonLeft {
			dc, dr := msg.X-m.lastCol, msg.Y-m.lastRow
			if dc != 0 || dr != 0 {
				m.ix.PanBy(float64(dc)*proj.unitW, float64(dr)*proj.unitH)
				m.moved = true
				m.lastCol, m.lastRow = msg.X, msg.Y
			}
			return m
		}
		m.hoverCol, m.hoverRow = msg.X, msg.Y
		e := m.elementAt(msg.X, msg.Y)
		m.ix.SetHover(e, pt.X, pt.Y)

	case tea.MouseActionRelease:
		if m.pressed && !m.moved {
			m = m.click(msg.X, msg.Y)
		}
		m.pressed = false
		m.moved = false
	}
	return m
}

func (m WheelModel) click(col, row int) WheelModel {
	now := m.now()
	double := !m.lastClickAt.IsZero() &&
		now.Sub(m.lastClickAt) <= doubleClickWindow &&
		col == m.lastClickCol && row == m.lastClickRow

	if double {
		m.ix.DoubleClick()
		m.lastClickAt = time.Time{}
		return m
	}

	m.lastClickAt = now
	m.lastClickCol, m.lastClickRow = col, row

	e := m.elementAt(col, row)
	if e.IsNone() {
		m.ix.ClickBackground()
		return m
	}
	m.ix.Click(e)
	return m
}

// elementAt returns the chart element under a cell: whatever painted the
// cell, else the scene hit test at the cell centre.
func (m WheelModel) elementAt(col, row int) interact.Element {
	s := m.scene()
	cv := m.draw(s)
	if cv.inBounds(col, row) {
		if e := cv.owners[row][col]; !e.IsNone() {
			return e
		}
	}
	pt := m.projection().toScene(col, row)
	return render.HitTest(s, pt.X, pt.Y)
}

func (m WheelModel) cyclePlanet(dir int) {
	c := m.ix.Chart()
	if c == nil || len(c.Planets) == 0 {
		return
	}
	names := make([]string, len(c.Planets))
	cur := -1
	for i, p := range c.Planets {
		names[i] = p.Name
		if sel := m.ix.Selected(); sel.Kind == interact.KindPlanet && sel.Planet == p.Name {
			cur = i
		}
	}
	m.ix.SelectPlanet(names[cycleIndex(cur, dir, len(names))])
}

func (m WheelModel) cycleHouse(dir int) {
	c := m.ix.Chart()
	if c == nil || len(c.Houses) == 0 {
		return
	}
	numbers := make([]int, len(c.Houses))
	for i, h := range c.Houses {
		numbers[i] = h.Number
	}
	sort.Ints(numbers)
	cur := -1
	if sel := m.ix.Selected(); sel.Kind == interact.KindHouse {
		for i, n := range numbers {
			if n == sel.House {
				cur = i
			}
		}
	}
	m.ix.SelectHouse(numbers[cycleIndex(cur, dir, len(numbers))])
}

func (m WheelModel) cycleAspect(dir int) {
	aspects := m.ix.Chart().MajorAspectList()
	if len(aspects) == 0 {
		return
	}
	cur := -1
	if sel := m.ix.Selected(); sel.Kind == interact.KindAspect {
		for i, a := range aspects {
			if a.Key() == sel.Aspect {
				cur = i
			}
		}
	}
	m.ix.SelectAspect(aspects[cycleIndex(cur, dir, len(aspects))].Key())
}

// cycleIndex steps from cur in direction dir, wrapping. With nothing
// current, forward starts at the first item and backward at the last.
func cycleIndex(cur, dir, n int) int {
	if cur < 0 {
		if dir < 0 {
			return n - 1
		}
		return 0
	}
	return ((cur+dir)%n + n) % n
}

// View renders the wheel and the HUD.
func (m WheelModel) View() string {
	s := m.scene()
	cv := m.draw(s)
	m.drawTooltip(cv)
	return cv.String() + "\n" + m.renderHUD()
}

// draw paints every scene layer except the tooltip onto a fresh canvas.
func (m WheelModel) draw(s *render.Scene) *canvas {
	cols, rows := m.canvasSize()
	cv := newCanvas(cols, rows)
	proj := newProjection(cols, rows, s.Size)
	center := s.Layout.Center()

	screen := func(p wheel.Point) wheel.Point { return s.View.Apply(p, center) }

	var planetLabels []render.Shape
	for _, l := range s.Layers {
		switch l.Kind {
		case render.LayerBackground, render.LayerTooltip:
			continue
		}
		for _, sh := range l.Shapes {
			switch sh.Kind {
			case render.ShapeCircle:
				m.drawCircle(cv, proj, screen(sh.Center), sh.R*s.View.Scale)
			case render.ShapeLine:
				drawLine(cv, proj, screen(sh.From), screen(sh.To), styleColor(sh, sh.Style.Stroke), sh.Element)
			case render.ShapeSector:
				m.drawSector(cv, proj, s, sh)
			case render.ShapeText:
				text := sh.Text
				if l.Kind == render.LayerSigns {
					text = sh.Alt
				}
				drawText(cv, proj, screen(sh.Center), text, styleColor(sh, sh.Style.Fill), sh.Element, l.Kind == render.LayerPlanets)
				if l.Kind == render.LayerPlanets {
					planetLabels = append(planetLabels, sh)
				}
			}
		}
	}

	m.drawLabels(cv, proj, s, planetLabels)
	return cv
}

func (m WheelModel) drawCircle(cv *canvas, proj projection, c wheel.Point, r float64) {
	steps := int(2 * math.Pi * r / (proj.unitW * 0.5))
	if steps < 64 {
		steps = 64
	}
	for i := 0; i < steps; i++ {
		a := float64(i) * 360 / float64(steps)
		col, row, ok := proj.toCell(wheel.PolarToCartesian(c.X, c.Y, r, a))
		if ok {
			cv.set(col, row, glyphGuide, colorGuide, interact.Element{})
		}
	}
}

// drawSector draws a sign boundary for unowned sectors, and shades the
// empty cells of an emphasised house wedge.
func (m WheelModel) drawSector(cv *canvas, proj projection, s *render.Scene, sh render.Shape) {
	center := s.Layout.Center()
	if sh.Element.IsNone() {
		from := s.View.Apply(wheel.PolarToCartesian(sh.Center.X, sh.Center.Y, sh.R, sh.Start), center)
		to := s.View.Apply(wheel.PolarToCartesian(sh.Center.X, sh.Center.Y, sh.R2, sh.Start), center)
		drawLine(cv, proj, from, to, colorGuide, interact.Element{})
		return
	}
	if sh.Style.Fill == "" || sh.Style.Opacity <= 0 {
		return
	}

	color := lipgloss.Color(sh.Style.Fill)
	span := wheel.ArcLength(sh.Start, sh.End)
	for row := 0; row < cv.rows; row++ {
		for col := 0; col < cv.cols; col++ {
			if cv.cells[row][col] != ' ' {
				continue
			}
			p := s.View.Invert(proj.toScene(col, row), center)
			r, a := wheel.CartesianToPolar(sh.Center.X, sh.Center.Y, p)
			if r < sh.R || r > sh.R2 || wheel.ArcLength(sh.Start, a) > span {
				continue
			}
			cv.set(col, row, glyphShade, color, sh.Element)
		}
	}
}

func drawLine(cv *canvas, proj projection, from, to wheel.Point, color lipgloss.Color, owner interact.Element) {
	if color == "" {
		return
	}
	c0, r0 := proj.cellF(from)
	c1, r1 := proj.cellF(to)
	dc, dr := c1-c0, r1-r0
	ch := lineRune(dc, dr)

	steps := int(math.Max(math.Abs(dc), math.Abs(dr))*2) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		col := int(math.Floor(c0 + dc*t))
		row := int(math.Floor(r0 + dr*t))
		if cv.inBounds(col, row) && !cv.locked[row][col] {
			cv.set(col, row, ch, color, owner)
		}
	}
}

// lineRune picks a box-drawing character for a segment's on-screen slope.
func lineRune(dc, dr float64) rune {
	a := math.Atan2(-dr*cellAspect, dc) * 180 / math.Pi
	if a < 0 {
		a += 180
	}
	switch {
	case a < 22.5 || a >= 157.5:
		return '─'
	case a < 67.5:
		return '╱'
	case a < 112.5:
		return '│'
	default:
		return '╲'
	}
}

func drawText(cv *canvas, proj projection, at wheel.Point, text string, color lipgloss.Color, owner interact.Element, lock bool) {
	if text == "" || color == "" {
		return
	}
	col, row, _ := proj.toCell(at)
	runes := []rune(text)
	start := col - len(runes)/2
	for i, r := range runes {
		x := start + i
		if !cv.inBounds(x, row) {
			continue
		}
		cv.set(x, row, r, color, owner)
		if lock {
			cv.locked[row][x] = true
		}
	}
}

// drawLabels writes planet names beside their glyphs. Names never cover a
// glyph; selected and related planets are written last so they win
// overlaps.
func (m WheelModel) drawLabels(cv *canvas, proj projection, s *render.Scene, glyphs []render.Shape) {
	if m.labelMode == LabelNone {
		return
	}
	hovered := m.ix.Hovered()
	center := s.Layout.Center()

	sort.SliceStable(glyphs, func(i, j int) bool {
		return labelRank(glyphs[i].Emphasis) < labelRank(glyphs[j].Emphasis)
	})

	for _, g := range glyphs {
		isHovered := hovered.Element == g.Element
		focused := g.Emphasis == interact.EmphasisSelected || g.Emphasis == interact.EmphasisRelated || isHovered
		if m.labelMode == LabelFocused && !focused {
			continue
		}

		color := colorLabel
		if focused {
			color = colorLabelHot
		}
		if g.Emphasis == interact.EmphasisDimmed && !isHovered {
			color = colorDimmed
		}

		col, row, _ := proj.toCell(s.View.Apply(g.Center, center))
		for i, r := range []rune(g.Element.Planet) {
			x := col + 2 + i
			if !cv.inBounds(x, row) || cv.locked[row][x] {
				continue
			}
			cv.set(x, row, r, color, g.Element)
		}
	}
}

func labelRank(em interact.Emphasis) int {
	switch em {
	case interact.EmphasisSelected:
		return 3
	case interact.EmphasisRelated:
		return 2
	case interact.EmphasisNeutral:
		return 1
	default:
		return 0
	}
}

// drawTooltip writes the hovered element's description near the pointer,
// flipped to stay on the grid.
func (m WheelModel) drawTooltip(cv *canvas) {
	h := m.ix.Hovered()
	if h.IsNone() || m.hoverCol < 0 {
		return
	}
	text := " " + render.Describe(m.ix.Chart(), h.Element) + " "
	runes := []rune(text)
	at := interact.PlaceTooltip(
		wheel.Point{X: float64(m.hoverCol), Y: float64(m.hoverRow)},
		float64(len(runes)), 1,
		float64(cv.cols), float64(cv.rows),
		1,
	)
	col, row := int(at.X), int(at.Y)
	for i, r := range runes {
		if cv.inBounds(col+i, row) {
			cv.set(col+i, row, r, colorTooltip, h.Element)
		}
	}
}

// styleColor maps a shape's paint to a terminal colour. The terminal has
// no alpha, so dimmed elements and faint strokes share one grey.
func styleColor(sh render.Shape, paint string) lipgloss.Color {
	if paint == "" {
		return ""
	}
	if sh.Emphasis == interact.EmphasisDimmed || sh.Style.Opacity < 0.25 {
		return colorDimmed
	}
	return lipgloss.Color(paint)
}

func (m WheelModel) renderHUD() string {
	dim := lipgloss.NewStyle().Foreground(colorHUD)
	hot := lipgloss.NewStyle().Foreground(colorLabelHot).Bold(true)

	snap := m.ix.Snapshot()
	c := m.ix.Chart()

	var line1, line2 string
	if c == nil {
		line1 = dim.Render("  No chart loaded")
	} else if !snap.HasSelection() {
		line1 = dim.Render(fmt.Sprintf("  %s: click a planet, house or aspect", chartName(c)))
	} else {
		rel := snap.Related
		line1 = "  " + hot.Render(snap.Selected.Label()) + dim.Render(fmt.Sprintf(
			"  related: %d planets · %d houses · %d aspects",
			len(rel.Planets), len(rel.Houses), len(rel.Aspects)))
		line2 = "  " + render.Describe(c, snap.Selected)
	}

	line3 := dim.Render(fmt.Sprintf("  zoom %.1fx · labels: %s", snap.View.Scale, m.labelMode))
	if !snap.View.IsIdentity() {
		line3 += dim.Render(fmt.Sprintf(" · pan %.0f,%.0f", snap.View.TranslateX, snap.View.TranslateY))
	}
	if lon, ok := m.pointerLongitude(); ok {
		line3 += dim.Render(" · pointer " + chart.FormatPosition(lon))
	}
	return line1 + "\n" + line2 + "\n" + line3
}

// pointerLongitude returns the ecliptic longitude under the pointer while
// it is over the sign ring.
func (m WheelModel) pointerLongitude() (float64, bool) {
	c := m.ix.Chart()
	if c == nil || m.hoverCol < 0 || m.hoverRow < 0 {
		return 0, false
	}
	s := m.scene()
	center := s.Layout.Center()
	p := s.View.Invert(m.projection().toScene(m.hoverCol, m.hoverRow), center)
	r, a := wheel.CartesianToPolar(center.X, center.Y, p)
	if r < s.Layout.Sign || r > s.Layout.Outer {
		return 0, false
	}
	return wheel.AngleToLongitude(a, c.Ascendant), true
}

func chartName(c *chart.Chart) string {
	if c.Name == "" {
		return "Chart"
	}
	return c.Name
}
