package web

import (
	"bytes"
	"encoding/csv"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/raykavin/chartdeck/core"
)

// handleHealth handles health check requests
func (c *Chart) handleHealth(w http.ResponseWriter, _ *http.Request) {
	c.Lock()
	lastUpdate := c.lastUpdate
	c.Unlock()

	// unhealthy if no updates in more of 10 minutes
	if time.Since(lastUpdate) > 10*time.Minute {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, err := w.Write([]byte(lastUpdate.String()))
		if err != nil {
			c.log.Error("Failed to write health status: ", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleIndex handles the main page request
func (c *Chart) handleIndex(w http.ResponseWriter, _ *http.Request) {
	c.Lock()
	pair := c.pair
	timeframe := c.timeframe
	c.Unlock()

	w.Header().Set("Content-Type", "text/html")
	err := c.indexHTML.Execute(w, map[string]any{
		"pair":      pair,
		"timeframe": timeframe,
		"script":    template.JS(c.scriptContent),
	})

	if err != nil {
		c.log.Error("Template execution failed: ", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// handleCandleHistory handles CSV export of the plotted candle history
func (c *Chart) handleCandleHistory(w http.ResponseWriter, _ *http.Request) {
	c.Lock()
	candles := append([]core.Candle{}, c.candles...)
	pair := c.pair
	c.Unlock()

	if len(candles) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	// Set headers for CSV download
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment;filename=history_"+pair+".csv")

	// Create CSV in memory
	buffer := bytes.NewBuffer(nil)
	csvWriter := csv.NewWriter(buffer)

	// Write header
	if err := csvWriter.Write([]string{
		"time", "open", "high", "low", "close", "volume",
	}); err != nil {
		c.log.Error("Failed writing CSV header: ", err)
		http.Error(w, "Failed to generate CSV", http.StatusInternalServerError)
		return
	}

	// Write data rows
	for _, candle := range candles {
		if err := csvWriter.Write([]string{
			strconv.FormatInt(candle.Time.Unix(), 10),
			strconv.FormatFloat(candle.Open, 'f', -1, 64),
			strconv.FormatFloat(candle.High, 'f', -1, 64),
			strconv.FormatFloat(candle.Low, 'f', -1, 64),
			strconv.FormatFloat(candle.Close, 'f', -1, 64),
			strconv.FormatFloat(candle.Volume, 'f', -1, 64),
		}); err != nil {
			c.log.Error("Failed writing CSV data: ", err)
			http.Error(w, "Failed to generate CSV", http.StatusInternalServerError)
			return
		}
	}
	csvWriter.Flush()

	// Send the CSV
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buffer.Bytes()); err != nil {
		c.log.Error("Failed writing CSV response: ", err)
	}
}
