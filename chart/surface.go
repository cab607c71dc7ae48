// Package chart implements the indicator side of a multi-pane trading chart:
// a registry of indicator instances, their series lifecycle against a
// rendering surface, and lazy pane allocation. The rendering surface itself
// is abstract; chart/web provides the browser implementation and
// HeadlessSurface an in-memory one.
package chart

import "github.com/raykavin/chartdeck/core"

// DefaultPaneHeightRatio is the height hint of secondary panes relative to
// the price pane
const DefaultPaneHeightRatio = 0.25

// SeriesStyle describes how a rendering series draws its points
type SeriesStyle struct {
	Name  string // display label, eg "RSI(14)" or "signal"
	Color string
	Style core.MetricStyle
}

// SeriesHandle is an engine-owned reference to one series on the surface
// Handles stay valid until Remove; operations on a removed handle are no-ops
type SeriesHandle interface {
	SetData(points []core.ValuePoint)
	SetVisible(visible bool)
	Remove()
}

// Surface is the rendering boundary of the chart engine
// Pane 0 always exists and holds the price candles; secondary panes are
// materialized lazily through CreatePane and are never destroyed
type Surface interface {
	// PaneCount returns the number of realized panes, at least 1
	PaneCount() int

	// CreatePane realizes the next pane with the given height hint and
	// returns its index
	CreatePane(heightHint float64) (int, error)

	// AddSeries creates a rendering series on an existing pane
	AddSeries(paneIndex int, style SeriesStyle) (SeriesHandle, error)

	// SetCandles replaces the price history on pane 0
	SetCandles(candles []core.Candle)

	// OnCandle appends or updates a single price candle on pane 0
	OnCandle(candle core.Candle)
}
