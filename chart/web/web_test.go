package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raykavin/chartdeck/chart"
	"github.com/raykavin/chartdeck/core"
	"github.com/raykavin/chartdeck/logger"
	zlog "github.com/raykavin/chartdeck/logger/zerolog"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testLogger() logger.Logger {
	nop := zerolog.Nop()
	return zlog.NewAdapter(&nop)
}

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testCandle(i int, close float64) core.Candle {
	return core.Candle{
		Pair:     "BTCUSDT",
		Time:     testEpoch.Add(time.Duration(i) * time.Minute),
		Open:     close - 1,
		High:     close + 2,
		Low:      close - 2,
		Close:    close,
		Volume:   1000,
		Complete: true,
	}
}

func TestNewChart(t *testing.T) {
	c, err := NewChart(testLogger())
	require.NoError(t, err)
	require.Equal(t, 8080, c.GetPort())
	require.NotEmpty(t, c.scriptContent)

	c, err = NewChart(testLogger(), WithPort(9000), WithDebug(), WithTimeframe("1m"))
	require.NoError(t, err)
	require.Equal(t, 9000, c.GetPort())
}

func TestChart_Surface(t *testing.T) {
	c, err := NewChart(testLogger())
	require.NoError(t, err)

	var surface chart.Surface = c
	require.Equal(t, 1, surface.PaneCount())

	index, err := surface.CreatePane(chart.DefaultPaneHeightRatio)
	require.NoError(t, err)
	require.Equal(t, 1, index)
	require.Equal(t, 2, surface.PaneCount())

	_, err = surface.AddSeries(5, chart.SeriesStyle{Name: "rsi"})
	require.ErrorIs(t, err, core.ErrSurfaceUnavailable)

	handle, err := surface.AddSeries(1, chart.SeriesStyle{Name: "rsi", Color: "#7e57c2"})
	require.NoError(t, err)
	require.NotNil(t, handle)
}

func TestChart_Snapshot(t *testing.T) {
	c, err := NewChart(testLogger(), WithTimeframe("1m"))
	require.NoError(t, err)

	c.SetCandles([]core.Candle{testCandle(0, 100), testCandle(1, 101)})
	c.CreatePane(chart.DefaultPaneHeightRatio)

	handle, err := c.AddSeries(1, chart.SeriesStyle{Name: "rsi", Color: "#7e57c2", Style: core.StyleLine})
	require.NoError(t, err)
	handle.SetData([]core.ValuePoint{{Time: testEpoch, Value: 55}})
	handle.SetVisible(false)

	snapshot := c.snapshot()
	require.Equal(t, "BTCUSDT", snapshot["pair"])
	require.Equal(t, "1m", snapshot["timeframe"])
	require.Equal(t, []float64{1, chart.DefaultPaneHeightRatio}, snapshot["panes"])
	require.Len(t, snapshot["candles"], 2)

	series := snapshot["series"].([]map[string]any)
	require.Len(t, series, 1)
	require.Equal(t, "rsi", series[0]["name"])
	require.Equal(t, 1, series[0]["pane"])
	require.Equal(t, false, series[0]["visible"])
	require.Len(t, series[0]["points"], 1)

	handle.Remove()
	snapshot = c.snapshot()
	require.Empty(t, snapshot["series"])
}

func TestChart_RemovedHandleIsInert(t *testing.T) {
	c, err := NewChart(testLogger())
	require.NoError(t, err)

	handle, err := c.AddSeries(0, chart.SeriesStyle{Name: "sma"})
	require.NoError(t, err)

	handle.Remove()
	handle.SetData([]core.ValuePoint{{Time: testEpoch, Value: 1}})
	handle.SetVisible(true)
	handle.Remove()

	require.Empty(t, c.snapshot()["series"])
}

func TestChart_OnCandleReplacesSameTime(t *testing.T) {
	c, err := NewChart(testLogger())
	require.NoError(t, err)

	c.SetCandles([]core.Candle{testCandle(0, 100)})

	update := testCandle(0, 105)
	c.OnCandle(update)
	c.OnCandle(testCandle(1, 106))

	c.Lock()
	candles := append([]core.Candle{}, c.candles...)
	c.Unlock()

	require.Len(t, candles, 2)
	require.Equal(t, 105.0, candles[0].Close)
}

func TestChart_HandleHealth(t *testing.T) {
	c, err := NewChart(testLogger())
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	c.handleHealth(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	c.SetCandles([]core.Candle{testCandle(0, 100)})

	recorder = httptest.NewRecorder()
	c.handleHealth(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestChart_HandleIndex(t *testing.T) {
	c, err := NewChart(testLogger(), WithTimeframe("15m"))
	require.NoError(t, err)
	c.SetCandles([]core.Candle{testCandle(0, 100)})

	recorder := httptest.NewRecorder()
	c.handleIndex(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	require.Contains(t, body, "BTCUSDT")
	require.Contains(t, body, "15m")
	require.Contains(t, body, "<script>")
}

func TestChart_HandleCandleHistory(t *testing.T) {
	c, err := NewChart(testLogger())
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	c.handleCandleHistory(recorder, httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusNotFound, recorder.Code)

	c.SetCandles([]core.Candle{testCandle(0, 100), testCandle(1, 101)})

	recorder = httptest.NewRecorder()
	c.handleCandleHistory(recorder, httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "text/csv", recorder.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(recorder.Body.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "time,open,high,low,close,volume", lines[0])
}

func TestWebSocketManager_InitialData(t *testing.T) {
	c, err := NewChart(testLogger())
	require.NoError(t, err)
	c.SetCandles([]core.Candle{testCandle(0, 100)})

	server := httptest.NewServer(http.HandlerFunc(c.wsManager.HandleWebSocket))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "initialData", msg.Type)

	payload := msg.Payload.(map[string]any)
	require.Equal(t, "BTCUSDT", payload["pair"])

	// Operations performed after connect arrive as incremental messages.
	c.OnCandle(testCandle(1, 101))
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "newCandle", msg.Type)
}
