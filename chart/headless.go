package chart

import (
	"fmt"
	"sync"

	"github.com/raykavin/chartdeck/core"
)

// HeadlessSurface is an in-memory Surface implementation
// It renders nothing and records everything, which makes it the rendering
// target for UI-less sessions (replays, tests, alert-only deployments)
type HeadlessSurface struct {
	mu      sync.Mutex
	heights []float64
	series  map[string]*HeadlessSeries
	order   []string
	candles []core.Candle
	nextID  int

	// RefusePanes and RefuseSeries make the surface decline requests,
	// simulating an unavailable rendering backend
	RefusePanes  bool
	RefuseSeries bool
}

// NewHeadlessSurface creates a surface with the price pane realized
func NewHeadlessSurface() *HeadlessSurface {
	return &HeadlessSurface{
		heights: []float64{1},
		series:  make(map[string]*HeadlessSeries),
	}
}

// PaneCount returns the number of realized panes
func (h *HeadlessSurface) PaneCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.heights)
}

// CreatePane realizes the next pane and returns its index
func (h *HeadlessSurface) CreatePane(heightHint float64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.RefusePanes {
		return 0, fmt.Errorf("headless: %w", core.ErrSurfaceUnavailable)
	}

	h.heights = append(h.heights, heightHint)
	return len(h.heights) - 1, nil
}

// AddSeries creates a recording series on an existing pane
func (h *HeadlessSurface) AddSeries(paneIndex int, style SeriesStyle) (SeriesHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.RefuseSeries {
		return nil, fmt.Errorf("headless: %w", core.ErrSurfaceUnavailable)
	}
	if paneIndex < 0 || paneIndex >= len(h.heights) {
		return nil, fmt.Errorf("headless: pane %d does not exist: %w", paneIndex, core.ErrSurfaceUnavailable)
	}

	h.nextID++
	id := fmt.Sprintf("s-%d", h.nextID)

	series := &HeadlessSeries{
		surface: h,
		id:      id,
		pane:    paneIndex,
		style:   style,
		visible: true,
	}

	h.series[id] = series
	h.order = append(h.order, id)
	return series, nil
}

// SetCandles replaces the recorded price history
func (h *HeadlessSurface) SetCandles(candles []core.Candle) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.candles = append(h.candles[:0], candles...)
}

// OnCandle appends a price candle, replacing the last one on equal time
func (h *HeadlessSurface) OnCandle(candle core.Candle) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if last := len(h.candles) - 1; last >= 0 && h.candles[last].Time.Equal(candle.Time) {
		h.candles[last] = candle
		return
	}
	h.candles = append(h.candles, candle)
}

// Candles returns the recorded price history
func (h *HeadlessSurface) Candles() []core.Candle {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]core.Candle, len(h.candles))
	copy(out, h.candles)
	return out
}

// PaneHeights returns the height hints of the realized panes
func (h *HeadlessSurface) PaneHeights() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]float64, len(h.heights))
	copy(out, h.heights)
	return out
}

// LiveSeries returns the not-yet-removed series in creation order
func (h *HeadlessSurface) LiveSeries() []*HeadlessSeries {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*HeadlessSeries, 0, len(h.series))
	for _, id := range h.order {
		if series, ok := h.series[id]; ok && !series.removed {
			out = append(out, series)
		}
	}
	return out
}

// SeriesCount returns the number of live series
func (h *HeadlessSurface) SeriesCount() int {
	return len(h.LiveSeries())
}

// HeadlessSeries records the pushes a real rendering series would draw
type HeadlessSeries struct {
	surface *HeadlessSurface
	id      string
	pane    int
	style   SeriesStyle
	points  []core.ValuePoint
	visible bool
	removed bool
}

// SetData replaces the recorded points; no-op after removal
func (s *HeadlessSeries) SetData(points []core.ValuePoint) {
	s.surface.mu.Lock()
	defer s.surface.mu.Unlock()

	if s.removed {
		return
	}
	s.points = append(s.points[:0], points...)
}

// SetVisible flags the series visibility; no-op after removal
func (s *HeadlessSeries) SetVisible(visible bool) {
	s.surface.mu.Lock()
	defer s.surface.mu.Unlock()

	if s.removed {
		return
	}
	s.visible = visible
}

// Remove detaches the series from the surface
func (s *HeadlessSeries) Remove() {
	s.surface.mu.Lock()
	defer s.surface.mu.Unlock()

	s.removed = true
}

// Pane returns the pane the series was created on
func (s *HeadlessSeries) Pane() int {
	s.surface.mu.Lock()
	defer s.surface.mu.Unlock()
	return s.pane
}

// Style returns the series style
func (s *HeadlessSeries) Style() SeriesStyle {
	s.surface.mu.Lock()
	defer s.surface.mu.Unlock()
	return s.style
}

// Points returns the last pushed points
func (s *HeadlessSeries) Points() []core.ValuePoint {
	s.surface.mu.Lock()
	defer s.surface.mu.Unlock()

	out := make([]core.ValuePoint, len(s.points))
	copy(out, s.points)
	return out
}

// IsVisible reports the requested visibility
func (s *HeadlessSeries) IsVisible() bool {
	s.surface.mu.Lock()
	defer s.surface.mu.Unlock()
	return s.visible
}
