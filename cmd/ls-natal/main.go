// Command ls-natal is a terminal viewer and exporter for natal chart wheels.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/litescript/ls-natal/internal/chart"
	"github.com/litescript/ls-natal/internal/interact"
	"github.com/litescript/ls-natal/internal/logging"
	"github.com/litescript/ls-natal/internal/render"
	"github.com/litescript/ls-natal/internal/state"
	"github.com/litescript/ls-natal/internal/store"
	"github.com/litescript/ls-natal/internal/ui"
	"github.com/litescript/ls-natal/internal/version"
)

// CLI flags for headless mode
var (
	summaryMode bool
	eventsMode  bool
	libraryMode bool
	jsonPath    string
	svgPath     string
	pngPath     string
	webpPath    string
	outPath     string
	themeName   string
	selectID    string
	openID      string
	exportSize  int
)

const (
	defaultTimeout = 10 * time.Second
	defaultRetries = 2
	defaultSize    = 800
	minSize        = 64
	maxSize        = 8192
	minRefresh     = 1 * time.Second
	maxRefresh     = 5 * time.Minute
	listLimit      = 20
	eventLimit     = 10
)

func main() {
	source := flag.String("chart", "", "Chart source: file path, http(s) URL, or - for stdin")
	refresh := flag.Duration("refresh", 0, "Reload interval (e.g., 30s); 0 loads once")
	timeout := flag.Duration("timeout", defaultTimeout, "Timeout for a remote load")
	retries := flag.Int("retries", defaultRetries, "Retries for a failed remote load")
	dbPath := flag.String("db", defaultDBPath(), "Chart library database (empty disables the library)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFile := flag.String("log-file", "", "Write logs to file (TUI logs are discarded otherwise)")
	flag.BoolVar(&summaryMode, "summary", false, "Print text summary instead of TUI")
	flag.BoolVar(&eventsMode, "events", false, "Print chart change events")
	flag.BoolVar(&libraryMode, "library", false, "List recently opened charts")
	flag.StringVar(&jsonPath, "json", "", "Export JSON chart to file (use - for stdout)")
	flag.StringVar(&svgPath, "svg", "", "Export SVG wheel to file (use - for stdout)")
	flag.StringVar(&pngPath, "png", "", "Export PNG wheel to file (use - for stdout)")
	flag.StringVar(&webpPath, "webp", "", "Export WebP wheel to file (use - for stdout)")
	flag.StringVar(&outPath, "o", "", "Export wheel to file, format from extension (.svg, .png, .webp)")
	flag.StringVar(&themeName, "theme", "dark", "Export theme (dark, light)")
	flag.StringVar(&selectID, "select", "", "Pre-select an element (planet:Sun, house:1, aspect:Sun-Moon-Opposition)")
	flag.StringVar(&openID, "open", "", "Open a chart from the library by id")
	flag.IntVar(&exportSize, "size", defaultSize, "Export image size in pixels")
	flag.Parse()

	if *source == "" && flag.NArg() > 0 {
		*source = flag.Arg(0)
	}

	// Validate refresh interval; zero means load once
	if *refresh > 0 {
		if *refresh < minRefresh {
			*refresh = minRefresh
		} else if *refresh > maxRefresh {
			*refresh = maxRefresh
		}
	}
	if exportSize < minSize {
		exportSize = minSize
	} else if exportSize > maxSize {
		exportSize = maxSize
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	headless := summaryMode || eventsMode || libraryMode || jsonPath != "" ||
		svgPath != "" || pngPath != "" || webpPath != "" || outPath != "" || !isTTY

	// Set up logging. The TUI owns the terminal, so its logs go to a file or nowhere.
	logger := logging.New(logging.ParseLevel(*logLevel))
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(f)
	} else if !headless {
		logger.SetOutput(io.Discard)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Initialize components
	stateCfg := state.DefaultConfig()
	stateCfg.RefreshInterval = *refresh
	stateMgr := state.NewManager(stateCfg)

	fetcher := chart.NewFetcher(
		chart.WithTimeout(*timeout),
		chart.WithRetry(*retries, 500*time.Millisecond),
		chart.WithUserAgent("ls-natal/"+version.Version),
	)

	db := openLibrary(*dbPath, logger.With("store"))
	if db != nil {
		defer db.Close()
	}

	a := &app{
		fetcher: fetcher,
		state:   stateMgr,
		db:      db,
		log:     logger,
	}
	a.source.Store(*source)

	if headless {
		if err := a.runHeadless(ctx, isTTY); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	opts := ui.Options{
		Logger: logger.With("ui"),
		Select: interact.ParseElement(selectID),
		OnOpen: func(e store.Entry) {
			a.firstOpen(e.Source)
			a.source.Store(e.Source)
		},
	}
	if db != nil {
		opts.Library = db
	}
	model := ui.New(stateMgr, opts)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion())

	// Start load loop in background
	go a.runLoadLoop(ctx, p)

	// Run TUI (blocks until quit)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// app holds what the load loops share.
type app struct {
	fetcher *chart.Fetcher
	state   *state.Manager
	db      *store.Store
	log     *logging.Logger

	// source follows charts opened from the library.
	source atomic.Value

	mu     sync.Mutex
	opened map[string]bool // sources already counted as opened this run
}

// firstOpen marks source as opened and reports whether this is the first
// time in this run.
func (a *app) firstOpen(source string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.opened[source] {
		return false
	}
	if a.opened == nil {
		a.opened = make(map[string]bool)
	}
	a.opened[source] = true
	return true
}

func (a *app) currentSource() string {
	s, _ := a.source.Load().(string)
	return s
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ls-natal", "library.db")
}

// openLibrary opens the chart library. A library that cannot be opened is
// reported and the viewer runs without one.
func openLibrary(path string, log *logging.Logger) *store.Store {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn("library disabled: %v", err)
		return nil
	}
	db, err := store.Open(path)
	if err != nil {
		log.Warn("library disabled: %v", err)
		return nil
	}
	return db
}

// load reads the current source, or the library entry given by -open on
// the first call, and records the result.
func (a *app) load(ctx context.Context) chart.LoadResult {
	var res chart.LoadResult
	fromLibrary := openID != "" && a.db != nil
	if fromLibrary {
		e, err := a.db.Get(openID)
		if err != nil {
			res = chart.LoadResult{Source: openID, LoadedAt: time.Now(), Error: fmt.Errorf("open %s: %w", openID, err)}
		} else {
			res = chart.LoadBytes(e.Source, e.Payload)
			a.firstOpen(e.Source)
			a.source.Store(e.Source)
			if err := a.db.Touch(e.ID); err != nil {
				a.log.Warn("touch %s: %v", e.ID, err)
			}
		}
		openID = ""
	} else {
		src := a.currentSource()
		if src == "" {
			res = chart.LoadResult{LoadedAt: time.Now(), Error: errors.New("no chart source; pass -chart or -open")}
		} else {
			a.log.Debug("Loading %s...", src)
			res = a.fetcher.Load(ctx, src)
		}
	}

	a.state.Update(res)
	if res.Error != nil {
		a.log.Error("Load failed: %v", res.Error)
		return res
	}

	a.log.Debug("Load complete: %d planets, %d aspects in %v",
		len(res.Chart.Planets), len(res.Chart.Aspects), res.Duration)
	if a.log.Enabled(logging.LevelDebug) {
		a.logEvents()
	}

	if a.db != nil && !fromLibrary && res.Source != "-" {
		// Reloads of a source opened earlier in this run only refresh the payload.
		save := a.db.Refresh
		if a.firstOpen(res.Source) {
			save = a.db.Save
		}
		if _, err := save(res.Chart.Name, res.Source, res.Raw); err != nil {
			a.log.Warn("save to library: %v", err)
		}
	}
	return res
}

// logEvents logs the events raised by the latest load.
func (a *app) logEvents() {
	last := a.state.Snapshot().LastLoad
	for _, e := range a.state.RecentEvents(eventLimit) {
		if e.Timestamp.Equal(last) {
			a.log.Debug("Event %s: %s", e.Type, eventDetail(e))
		}
	}
}

func (a *app) runLoadLoop(ctx context.Context, p *tea.Program) {
	// Do initial load immediately
	a.sendLoad(ctx, p)

	interval := a.state.RefreshInterval()
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Debug("Load loop shutting down")
			return
		case <-ticker.C:
			a.sendLoad(ctx, p)
		}
	}
}

func (a *app) sendLoad(ctx context.Context, p *tea.Program) {
	res := a.load(ctx)
	if res.Error != nil {
		p.Send(ui.ErrorMsg{Error: res.Error})
		return
	}
	p.Send(ui.DataUpdateMsg{Snapshot: a.state.Snapshot()})
}

// runHeadless handles all headless modes without starting TUI.
func (a *app) runHeadless(ctx context.Context, isTTY bool) error {
	if libraryMode {
		if err := a.writeLibrary(os.Stdout); err != nil {
			return err
		}
		if a.currentSource() == "" && openID == "" {
			return nil
		}
		fmt.Println()
	}

	outputOnce := func() error {
		res := a.load(ctx)
		if res.Error != nil {
			return res.Error
		}
		return a.output(isTTY)
	}

	// Single run
	interval := a.state.RefreshInterval()
	if interval <= 0 {
		return outputOnce()
	}

	// Watch mode: repeat at interval
	if err := outputOnce(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Println()
			if err := outputOnce(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}
}

func (a *app) output(isTTY bool) error {
	snap := a.state.Snapshot()
	c := snap.Chart

	// Export JSON if requested
	if jsonPath != "" {
		export := chart.ExportChart(c, snap.LastLoad)
		if err := writeTo(jsonPath, export.WriteJSON); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	}

	if err := a.exportImages(c); err != nil {
		return err
	}

	// Summary is the default when nothing else was asked for
	exporting := jsonPath != "" || svgPath != "" || pngPath != "" || webpPath != "" || outPath != ""
	if summaryMode || (!exporting && !eventsMode) {
		chart.WriteSummary(os.Stdout, c, len(snap.Raw), isTTY)
		if sel := interact.ParseElement(selectID); !sel.IsNone() {
			fmt.Printf("\nSelected: %s\n", render.Describe(c, sel))
		}
		if a.state.RefreshInterval() > 0 {
			writeMotion(os.Stdout, a.state, c)
		}
	}

	if eventsMode {
		fmt.Println()
		writeEvents(os.Stdout, a.state.RecentEvents(eventLimit))
	}
	return nil
}

func (a *app) exportImages(c *chart.Chart) error {
	targets := []struct {
		path   string
		format render.Format
	}{
		{svgPath, render.FormatSVG},
		{pngPath, render.FormatPNG},
		{webpPath, render.FormatWebP},
		{outPath, render.FormatFromPath(outPath)},
	}

	var scene *render.Scene
	for _, t := range targets {
		if t.path == "" {
			continue
		}
		if t.format == render.FormatUnknown {
			return fmt.Errorf("unknown image format for %s", t.path)
		}
		if scene == nil {
			scene = a.buildScene(c)
		}
		write := func(w io.Writer) error {
			return render.Write(w, scene, t.format, exportSize)
		}
		if err := writeTo(t.path, write); err != nil {
			return fmt.Errorf("write %s: %w", t.format, err)
		}
		a.log.Info("Wrote %s wheel to %s", t.format, t.path)
	}
	return nil
}

// buildScene composes the export scene with the -select element applied.
func (a *app) buildScene(c *chart.Chart) *render.Scene {
	ix := interact.New(c, interact.Callbacks{})
	if sel := interact.ParseElement(selectID); !sel.IsNone() {
		ix.Select(sel)
	}

	opts := render.DefaultOptions()
	opts.Size = float64(exportSize)
	if themeName == "light" {
		opts.Theme = render.LightTheme()
	}
	return render.Build(c, ix.Snapshot(), opts)
}

func (a *app) writeLibrary(w io.Writer) error {
	if a.db == nil {
		return errors.New("library is disabled")
	}
	entries, err := a.db.Recent(listLimit)
	if err != nil {
		return fmt.Errorf("list library: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No saved charts")
		return nil
	}
	fmt.Fprintf(w, "%-36s  %-20s  %-8s  %s\n", "ID", "NAME", "SIZE", "OPENED")
	for _, e := range entries {
		fmt.Fprintf(w, "%-36s  %-20s  %-8s  %s\n",
			e.ID, e.Name, humanize.Bytes(uint64(e.Size())), humanize.Time(e.OpenedAt))
	}
	return nil
}

func writeEvents(w io.Writer, events []state.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events")
		return
	}
	fmt.Fprintln(w, "Events:")
	for _, e := range events {
		fmt.Fprintf(w, "  %-16s  %-18s  %s\n", humanize.Time(e.Timestamp), e.Type, eventDetail(e))
	}
}

func eventDetail(e state.Event) string {
	switch {
	case e.Planet != "":
		return fmt.Sprintf("%s %s → %s", e.Planet, e.Old, e.New)
	case e.Aspect != "":
		return e.Aspect
	}
	return e.Detail
}

// writeMotion prints the motion observed across reloads for planets seen
// at least twice.
func writeMotion(w io.Writer, m *state.Manager, c *chart.Chart) {
	header := false
	for _, p := range c.Planets {
		hist := m.GetPlanetHistory(p.Name)
		if hist == nil || len(hist.Longitude) < 2 {
			continue
		}
		if !header {
			fmt.Fprintln(w, "\nObserved motion:")
			header = true
		}
		fmt.Fprintf(w, "  %-10s %+9.4f°/d  (chart speed %+.4f, %d loads)\n",
			p.Name, m.EstimateMotion(p.Name), p.Speed, len(hist.Longitude))
	}
}

// writeTo calls write on stdout for "-" or on a newly created file.
func writeTo(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
