// Package state provides thread-safe state management for the application.
package state

import (
	"strconv"
	"sync"
	"time"

	"github.com/litescript/ls-natal/internal/chart"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventChartLoaded     EventType = "CHART_LOADED"
	EventSignChange      EventType = "SIGN_CHANGE"
	EventHouseChange     EventType = "HOUSE_CHANGE"
	EventAspectFormed    EventType = "ASPECT_FORMED"
	EventAspectDissolved EventType = "ASPECT_DISSOLVED"
	EventLoadFailed      EventType = "LOAD_FAILED"
)

// Event represents a change between two successive chart loads.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Chart     string    `json:"chart,omitempty"`
	Planet    string    `json:"planet,omitempty"`
	Aspect    string    `json:"aspect,omitempty"`
	Old       string    `json:"old,omitempty"`
	New       string    `json:"new,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// HistoryEntry represents a single load in the history buffer.
type HistoryEntry struct {
	LoadedAt time.Time
	Source   string
	Chart    *chart.Chart
}

// PlanetHistory tracks the longitude of one planet across reloads.
type PlanetHistory struct {
	Planet    string
	Longitude []TimeSeries
}

// TimeSeries is a single data point with timestamp.
type TimeSeries struct {
	Timestamp time.Time
	Value     float64
}

// Manager handles all shared application state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Current state
	current      *chart.Chart
	source       string
	raw          []byte
	lastLoad     time.Time
	lastError    error
	loadDuration time.Duration
	attempts     int

	// History buffers
	history       []HistoryEntry
	maxHistoryLen int
	planetHistory map[string]*PlanetHistory
	maxPlanetHist int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	// Configuration
	refreshInterval time.Duration
}

// Config holds configuration for the state manager.
type Config struct {
	MaxHistoryLen   int
	MaxPlanetHist   int
	MaxEvents       int
	RefreshInterval time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistoryLen:   30,
		MaxPlanetHist:   120,
		MaxEvents:       50,
		RefreshInterval: 0, // load once
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	return &Manager{
		maxHistoryLen:   cfg.MaxHistoryLen,
		maxPlanetHist:   cfg.MaxPlanetHist,
		maxEvents:       maxEvents,
		events:          make([]Event, 0, maxEvents),
		refreshInterval: cfg.RefreshInterval,
		planetHistory:   make(map[string]*PlanetHistory),
	}
}

// Update atomically applies a load result. A failed load keeps the
// previous chart and records a LOAD_FAILED event.
func (m *Manager) Update(res chart.LoadResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastLoad = res.LoadedAt
	if m.lastLoad.IsZero() {
		m.lastLoad = time.Now()
	}
	m.lastError = res.Error
	m.loadDuration = res.Duration
	m.attempts = res.Attempts

	if res.Error != nil || res.Chart == nil {
		detail := "empty chart"
		if res.Error != nil {
			detail = res.Error.Error()
		}
		m.addEvent(Event{
			Type:      EventLoadFailed,
			Timestamp: m.lastLoad,
			Chart:     res.Source,
			Detail:    detail,
		})
		return
	}

	// Detect events before updating current state
	m.detectEvents(res.Source, res.Chart)

	m.current = res.Chart
	m.source = res.Source
	m.raw = res.Raw

	m.history = append(m.history, HistoryEntry{
		LoadedAt: m.lastLoad,
		Source:   res.Source,
		Chart:    res.Chart,
	})
	if m.maxHistoryLen > 0 && len(m.history) > m.maxHistoryLen {
		m.history = m.history[1:]
	}

	m.updatePlanetHistory(res.Chart)
}

// detectEvents compares a new chart with the current one. A load from a
// different source, or the first load, is a CHART_LOADED; a reload of the
// same source reports what moved.
func (m *Manager) detectEvents(source string, next *chart.Chart) {
	now := m.lastLoad
	prev := m.current

	if prev == nil || source != m.source {
		m.addEvent(Event{
			Type:      EventChartLoaded,
			Timestamp: now,
			Chart:     next.Name,
			Detail:    source,
		})
		return
	}

	for _, p := range next.Planets {
		old, ok := prev.Planet(p.Name)
		if !ok {
			continue
		}
		if old.Sign != p.Sign {
			m.addEvent(Event{
				Type:      EventSignChange,
				Timestamp: now,
				Chart:     next.Name,
				Planet:    p.Name,
				Old:       old.Sign,
				New:       p.Sign,
			})
		}
		if old.House != p.House {
			m.addEvent(Event{
				Type:      EventHouseChange,
				Timestamp: now,
				Chart:     next.Name,
				Planet:    p.Name,
				Old:       strconv.Itoa(old.House),
				New:       strconv.Itoa(p.House),
			})
		}
	}

	prevAspects := make(map[chart.AspectKey]bool, len(prev.Aspects))
	for _, a := range prev.Aspects {
		prevAspects[a.Key()] = true
	}
	nextAspects := make(map[chart.AspectKey]bool, len(next.Aspects))
	for _, a := range next.Aspects {
		k := a.Key()
		nextAspects[k] = true
		if !prevAspects[k] {
			m.addEvent(Event{
				Type:      EventAspectFormed,
				Timestamp: now,
				Chart:     next.Name,
				Aspect:    k.String(),
			})
		}
	}
	for _, a := range prev.Aspects {
		k := a.Key()
		if !nextAspects[k] {
			m.addEvent(Event{
				Type:      EventAspectDissolved,
				Timestamp: now,
				Chart:     next.Name,
				Aspect:    k.String(),
			})
		}
	}
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

func (m *Manager) updatePlanetHistory(c *chart.Chart) {
	for _, p := range c.Planets {
		hist, ok := m.planetHistory[p.Name]
		if !ok {
			hist = &PlanetHistory{
				Planet:    p.Name,
				Longitude: make([]TimeSeries, 0, m.maxPlanetHist),
			}
			m.planetHistory[p.Name] = hist
		}

		hist.Longitude = append(hist.Longitude, TimeSeries{Timestamp: m.lastLoad, Value: p.Longitude})
		if m.maxPlanetHist > 0 && len(hist.Longitude) > m.maxPlanetHist {
			hist.Longitude = hist.Longitude[1:]
		}
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Chart        *chart.Chart
	Source       string
	Raw          []byte
	LastLoad     time.Time
	LastError    error
	LoadDuration time.Duration
	Attempts     int
	Loads        int
	Events       []Event

	// Motion is each planet's observed motion in degrees per day across
	// the last two loads. Planets seen only once are absent.
	Motion map[string]float64
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw := make([]byte, len(m.raw))
	copy(raw, m.raw)

	return Snapshot{
		Chart:        m.current,
		Source:       m.source,
		Raw:          raw,
		LastLoad:     m.lastLoad,
		LastError:    m.lastError,
		LoadDuration: m.loadDuration,
		Attempts:     m.attempts,
		Loads:        len(m.history),
		Events:       m.getEventsOrdered(),
		Motion:       m.motionLocked(),
	}
}

// motionLocked estimates motion for every planet of the current chart.
// The caller holds m.mu.
func (m *Manager) motionLocked() map[string]float64 {
	if m.current == nil {
		return nil
	}
	var out map[string]float64
	for _, p := range m.current.Planets {
		if v, ok := m.estimateLocked(p.Name); ok {
			if out == nil {
				out = make(map[string]float64)
			}
			out[p.Name] = v
		}
	}
	return out
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// GetPlanetHistory returns the longitude history of a planet.
func (m *Manager) GetPlanetHistory(name string) *PlanetHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hist, ok := m.planetHistory[name]
	if !ok {
		return nil
	}

	// Return a copy
	copyHist := &PlanetHistory{
		Planet:    hist.Planet,
		Longitude: make([]TimeSeries, len(hist.Longitude)),
	}
	copy(copyHist.Longitude, hist.Longitude)
	return copyHist
}

// EstimateMotion returns a planet's apparent motion in degrees per day from
// its last two observed longitudes. Negative values mean retrograde.
func (m *Manager) EstimateMotion(name string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, _ := m.estimateLocked(name)
	return v
}

func (m *Manager) estimateLocked(name string) (float64, bool) {
	hist, ok := m.planetHistory[name]
	if !ok || len(hist.Longitude) < 2 {
		return 0, false
	}

	n := len(hist.Longitude)
	p1 := hist.Longitude[n-2]
	p2 := hist.Longitude[n-1]

	days := p2.Timestamp.Sub(p1.Timestamp).Hours() / 24
	if days <= 0 {
		return 0, false
	}

	// shortest signed arc, so 359° -> 1° is +2°
	delta := chart.Normalize(p2.Value-p1.Value+180) - 180
	return delta / days, true
}

// RefreshInterval returns the configured refresh interval.
func (m *Manager) RefreshInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshInterval
}

// HasData returns true if we have received at least one successful load.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}
