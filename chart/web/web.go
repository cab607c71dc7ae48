// Package web renders the chart in a browser
//
// Chart implements the rendering surface over a websocket: every pane,
// series and data mutation is mirrored into an operation message and
// broadcast to the connected clients, which replay them against
// lightweight-charts panes kept in scroll/zoom lockstep.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/raykavin/chartdeck/chart"
	"github.com/raykavin/chartdeck/core"
	"github.com/raykavin/chartdeck/logger"

	"github.com/evanw/esbuild/pkg/api"
)

// Static assets embedded in the binary
var (
	//go:embed assets
	staticFiles embed.FS
)

// Chart serves the browser UI and implements chart.Surface
type Chart struct {
	sync.Mutex
	port          int
	debug         bool
	pair          string
	timeframe     string
	candles       []core.Candle
	paneHeights   []float64
	series        map[string]*chartSeries
	seriesOrder   []string
	nextSeriesID  int
	scriptContent string
	indexHTML     *template.Template
	lastUpdate    time.Time
	log           logger.Logger
	wsManager     *WebSocketManager
}

// Option defines a function type for configuring a Chart instance
type Option func(*Chart)

// WithPort sets the HTTP server port
func WithPort(port int) Option {
	return func(chart *Chart) {
		chart.port = port
	}
}

// WithDebug enables debug mode (disables minification)
func WithDebug() Option {
	return func(chart *Chart) {
		chart.debug = true
	}
}

// WithTimeframe sets the timeframe shown in the page header
func WithTimeframe(timeframe string) Option {
	return func(chart *Chart) {
		chart.timeframe = timeframe
	}
}

// NewChart creates a new chart instance with the provided options
func NewChart(log logger.Logger, options ...Option) (*Chart, error) {
	chart := &Chart{
		port:        8080,
		log:         log,
		paneHeights: []float64{1},
		series:      make(map[string]*chartSeries),
	}

	for _, option := range options {
		option(chart)
	}

	// Parse chart HTML template
	var err error
	chart.indexHTML, err = template.ParseFS(staticFiles, "assets/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart template: %w", err)
	}

	// Read and transpile chart JavaScript
	chartJS, err := staticFiles.ReadFile("assets/js/main.js")
	if err != nil {
		return nil, fmt.Errorf("failed to read main.js: %w", err)
	}

	transpileChartJS := api.Transform(string(chartJS), api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            api.ES2015,
		MinifySyntax:      !chart.debug,
		MinifyIdentifiers: !chart.debug,
		MinifyWhitespace:  !chart.debug,
	})

	if len(transpileChartJS.Errors) > 0 {
		return nil, fmt.Errorf("chart script failed with: %v", transpileChartJS.Errors)
	}

	chart.scriptContent = string(transpileChartJS.Code)

	// Create WebSocket manager
	chart.wsManager = NewWebSocketManager(log, chart)

	return chart, nil
}

// GetPort returns the configured port
func (c *Chart) GetPort() int {
	return c.port
}

// GetWSManager returns the WebSocket manager
func (c *Chart) GetWSManager() *WebSocketManager {
	return c.wsManager
}

// Pair returns the pair currently plotted
func (c *Chart) Pair() string {
	c.Lock()
	defer c.Unlock()
	return c.pair
}

// OnRefresh broadcasts a redraw notification after a batch of
// indicator work, one message per batch
func (c *Chart) OnRefresh(event chart.RefreshEvent) {
	c.wsManager.Broadcast(WebSocketMessage{
		Type: "refresh",
		Payload: map[string]any{
			"pair":       event.Pair,
			"timeframe":  event.Timeframe,
			"indicators": event.Indicators,
			"at":         event.At,
		},
	})
}

// RegisterHandlers registers all necessary handlers on the HTTP server
func (c *Chart) RegisterHandlers(server HTTPServer) {
	// Register static file handler
	server.RegisterFileServer("/assets/", http.FS(staticFiles))

	// Register API handlers
	server.RegisterHandler("/health", c.handleHealth)
	server.RegisterHandler("/history", c.handleCandleHistory)
	server.RegisterHandler("/ws", c.wsManager.HandleWebSocket)
	server.RegisterHandler("/", c.handleIndex)
}
