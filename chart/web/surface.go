package web

import (
	"fmt"
	"time"

	"github.com/raykavin/chartdeck/chart"
	"github.com/raykavin/chartdeck/core"
)

// PaneCount returns the number of panes known to the clients
func (c *Chart) PaneCount() int {
	c.Lock()
	defer c.Unlock()
	return len(c.paneHeights)
}

// CreatePane appends a pane below the existing ones and announces it
func (c *Chart) CreatePane(heightHint float64) (int, error) {
	c.Lock()
	c.paneHeights = append(c.paneHeights, heightHint)
	index := len(c.paneHeights) - 1
	c.Unlock()

	c.wsManager.Broadcast(WebSocketMessage{
		Type: "createPane",
		Payload: map[string]any{
			"index":  index,
			"height": heightHint,
		},
	})

	return index, nil
}

// AddSeries creates a rendering series on an existing pane
func (c *Chart) AddSeries(paneIndex int, style chart.SeriesStyle) (chart.SeriesHandle, error) {
	c.Lock()
	if paneIndex < 0 || paneIndex >= len(c.paneHeights) {
		c.Unlock()
		return nil, fmt.Errorf("web: pane %d does not exist: %w", paneIndex, core.ErrSurfaceUnavailable)
	}

	c.nextSeriesID++
	series := &chartSeries{
		chart:   c,
		id:      fmt.Sprintf("s-%d", c.nextSeriesID),
		pane:    paneIndex,
		style:   style,
		visible: true,
	}

	c.series[series.id] = series
	c.seriesOrder = append(c.seriesOrder, series.id)
	c.Unlock()

	c.wsManager.Broadcast(WebSocketMessage{
		Type:    "addSeries",
		Payload: series.payload(false),
	})

	return series, nil
}

// SetCandles replaces the price history shown on the main pane
func (c *Chart) SetCandles(candles []core.Candle) {
	c.Lock()
	c.candles = append(c.candles[:0], candles...)
	if len(candles) > 0 {
		c.pair = candles[0].Pair
	}
	c.lastUpdate = time.Now()
	c.Unlock()

	c.wsManager.Broadcast(WebSocketMessage{
		Type: "setCandles",
		Payload: map[string]any{
			"candles": candlesPayload(candles),
		},
	})
}

// OnCandle pushes a live candle, replacing the last one on equal time
func (c *Chart) OnCandle(candle core.Candle) {
	c.Lock()
	if last := len(c.candles) - 1; last >= 0 && c.candles[last].Time.Equal(candle.Time) {
		c.candles[last] = candle
	} else {
		c.candles = append(c.candles, candle)
	}
	c.lastUpdate = time.Now()
	c.Unlock()

	c.wsManager.Broadcast(WebSocketMessage{
		Type: "newCandle",
		Payload: map[string]any{
			"candle": candlePayload(candle),
		},
	})
}

// chartSeries mirrors one rendering series into websocket operations
type chartSeries struct {
	chart   *Chart
	id      string
	pane    int
	style   chart.SeriesStyle
	visible bool
	removed bool
	points  []core.ValuePoint
}

// SetData replaces the series values on every client
func (s *chartSeries) SetData(points []core.ValuePoint) {
	s.chart.Lock()
	if s.removed {
		s.chart.Unlock()
		return
	}
	s.points = append(s.points[:0], points...)
	s.chart.Unlock()

	s.chart.wsManager.Broadcast(WebSocketMessage{
		Type: "setSeriesData",
		Payload: map[string]any{
			"id":     s.id,
			"points": pointsPayload(points),
		},
	})
}

// SetVisible shows or hides the series without discarding its data
func (s *chartSeries) SetVisible(visible bool) {
	s.chart.Lock()
	if s.removed {
		s.chart.Unlock()
		return
	}
	s.visible = visible
	s.chart.Unlock()

	s.chart.wsManager.Broadcast(WebSocketMessage{
		Type: "setSeriesVisibility",
		Payload: map[string]any{
			"id":      s.id,
			"visible": visible,
		},
	})
}

// Remove deletes the series from every client; the handle is inert after
func (s *chartSeries) Remove() {
	s.chart.Lock()
	if s.removed {
		s.chart.Unlock()
		return
	}
	s.removed = true
	delete(s.chart.series, s.id)
	for i, id := range s.chart.seriesOrder {
		if id == s.id {
			s.chart.seriesOrder = append(s.chart.seriesOrder[:i], s.chart.seriesOrder[i+1:]...)
			break
		}
	}
	s.chart.Unlock()

	s.chart.wsManager.Broadcast(WebSocketMessage{
		Type: "removeSeries",
		Payload: map[string]any{
			"id": s.id,
		},
	})
}

// payload serializes the series descriptor, optionally with its points
func (s *chartSeries) payload(withPoints bool) map[string]any {
	out := map[string]any{
		"id":      s.id,
		"pane":    s.pane,
		"name":    s.style.Name,
		"color":   s.style.Color,
		"style":   string(s.style.Style),
		"visible": s.visible,
	}
	if withPoints {
		out["points"] = pointsPayload(s.points)
	}
	return out
}

// snapshot assembles the full client state for a fresh connection
func (c *Chart) snapshot() map[string]any {
	c.Lock()
	defer c.Unlock()

	series := make([]map[string]any, 0, len(c.seriesOrder))
	for _, id := range c.seriesOrder {
		series = append(series, c.series[id].payload(true))
	}

	return map[string]any{
		"pair":      c.pair,
		"timeframe": c.timeframe,
		"panes":     append([]float64{}, c.paneHeights...),
		"candles":   candlesPayload(c.candles),
		"series":    series,
	}
}

func candlePayload(candle core.Candle) map[string]any {
	return map[string]any{
		"time":     candle.Time,
		"open":     candle.Open,
		"high":     candle.High,
		"low":      candle.Low,
		"close":    candle.Close,
		"volume":   candle.Volume,
		"complete": candle.Complete,
	}
}

func candlesPayload(candles []core.Candle) []map[string]any {
	out := make([]map[string]any, len(candles))
	for i, candle := range candles {
		out[i] = candlePayload(candle)
	}
	return out
}

func pointsPayload(points []core.ValuePoint) []map[string]any {
	out := make([]map[string]any, len(points))
	for i, point := range points {
		out[i] = map[string]any{
			"time":  point.Time,
			"value": point.Value,
		}
	}
	return out
}
