package chart

import (
	"testing"

	"github.com/raykavin/chartdeck/core"
	"github.com/raykavin/chartdeck/indicator"

	"github.com/stretchr/testify/require"
)

func newTestInstance(t *testing.T, kind core.IndicatorKind, config core.IndicatorConfig) *Instance {
	t.Helper()

	calc, err := indicator.New(kind, config.Parameters)
	require.NoError(t, err)

	config.Kind = kind
	if config.Name == "" {
		config.Name = calc.Name()
	}

	return NewInstance("test-id", config, calc, testLogger())
}

func findSeries(t *testing.T, surface *HeadlessSurface, name string) *HeadlessSeries {
	t.Helper()

	for _, series := range surface.LiveSeries() {
		if series.Style().Name == name {
			return series
		}
	}
	t.Fatalf("series %q not found", name)
	return nil
}

func TestInstance_Lifecycle(t *testing.T) {
	surface := NewHeadlessSurface()
	in := newTestInstance(t, core.KindMACD, core.IndicatorConfig{})

	require.Equal(t, -1, in.Pane())

	in.Initialize(surface)
	primary := in.CreateSeries(1)

	require.NotNil(t, primary)
	require.Equal(t, 1, in.Pane())
	require.Equal(t, 3, surface.SeriesCount())

	in.UpdateData(testDataframe(100, 7))

	last := in.LastValues()
	require.Contains(t, last, "macd")
	require.Contains(t, last, "signal")
	require.Contains(t, last, "histogram")
}

func TestInstance_SeriesNames(t *testing.T) {
	surface := NewHeadlessSurface()
	in := newTestInstance(t, core.KindMACD, core.IndicatorConfig{Name: "my macd", Color: "#ff0000"})

	in.Initialize(surface)
	in.CreateSeries(1)

	// The primary line carries the instance name and color, secondary
	// lines keep their own labels.
	primary := findSeries(t, surface, "my macd")
	require.Equal(t, "#ff0000", primary.Style().Color)

	findSeries(t, surface, "signal")
	findSeries(t, surface, "histogram")
}

func TestInstance_OutOfOrderCalls(t *testing.T) {
	surface := NewHeadlessSurface()
	in := newTestInstance(t, core.KindRSI, core.IndicatorConfig{})

	// Every call before its time is ignored without side effects.
	require.Nil(t, in.CreateSeries(1))
	in.UpdateData(testDataframe(50, 1))
	in.SetVisibility(false)
	require.Equal(t, 0, surface.SeriesCount())
	require.True(t, in.Visible())

	// The instance is still usable through the proper sequence.
	in.Initialize(surface)
	in.UpdateData(testDataframe(50, 1))
	require.NotNil(t, in.CreateSeries(1))
	require.Equal(t, 1, surface.SeriesCount())
}

func TestInstance_InitializeTwice(t *testing.T) {
	surface := NewHeadlessSurface()
	other := NewHeadlessSurface()
	in := newTestInstance(t, core.KindSMA, core.IndicatorConfig{})

	in.Initialize(surface)
	in.Initialize(other)
	in.CreateSeries(0)

	require.Equal(t, 1, surface.SeriesCount())
	require.Equal(t, 0, other.SeriesCount())
}

func TestInstance_DestroyIdempotent(t *testing.T) {
	surface := NewHeadlessSurface()
	in := newTestInstance(t, core.KindEMA, core.IndicatorConfig{})

	in.Initialize(surface)
	in.CreateSeries(0)
	in.UpdateData(testDataframe(50, 2))

	in.Destroy()
	require.True(t, in.Destroyed())
	require.Equal(t, 0, surface.SeriesCount())

	in.Destroy()
	in.UpdateData(testDataframe(50, 2))
	require.Nil(t, in.CreateSeries(0))
}

func TestInstance_SurfaceRefusesSeries(t *testing.T) {
	surface := NewHeadlessSurface()
	surface.RefuseSeries = true
	in := newTestInstance(t, core.KindRSI, core.IndicatorConfig{})

	in.Initialize(surface)
	require.Nil(t, in.CreateSeries(1))
	require.Equal(t, 0, surface.SeriesCount())

	// The instance stays alive and keeps accepting data.
	in.UpdateData(testDataframe(50, 3))
	require.NotEmpty(t, in.LastValues())
}

func TestInstance_HiddenStillReceivesData(t *testing.T) {
	surface := NewHeadlessSurface()
	in := newTestInstance(t, core.KindRSI, core.IndicatorConfig{Hidden: true})

	in.Initialize(surface)
	in.CreateSeries(1)

	series := findSeries(t, surface, "RSI(14)")
	require.False(t, series.IsVisible())

	in.UpdateData(testDataframe(50, 4))
	require.NotEmpty(t, series.Points())

	in.SetVisibility(true)
	require.True(t, series.IsVisible())
	require.NotEmpty(t, series.Points())
}

func TestInstance_JoinByTimestamp(t *testing.T) {
	surface := NewHeadlessSurface()
	in := newTestInstance(t, core.KindMACD, core.IndicatorConfig{})

	in.Initialize(surface)
	in.CreateSeries(1)

	df := testDataframe(100, 5)
	in.UpdateData(df)

	// macd starts earlier than signal and histogram; after the join every
	// series advances in lockstep on the shared timestamps.
	macd := findSeries(t, surface, "MACD(12, 26, 9)").Points()
	signal := findSeries(t, surface, "signal").Points()
	histogram := findSeries(t, surface, "histogram").Points()

	require.NotEmpty(t, macd)
	require.Len(t, signal, len(macd))
	require.Len(t, histogram, len(macd))
	for i := range macd {
		require.Equal(t, macd[i].Time, signal[i].Time)
		require.Equal(t, macd[i].Time, histogram[i].Time)
		require.InDelta(t, macd[i].Value-signal[i].Value, histogram[i].Value, 1e-9)
	}
}

func TestInstance_RecomputeReplacesData(t *testing.T) {
	surface := NewHeadlessSurface()
	in := newTestInstance(t, core.KindSMA, core.IndicatorConfig{})

	in.Initialize(surface)
	in.CreateSeries(0)

	in.UpdateData(testDataframe(60, 6))
	series := findSeries(t, surface, "SMA(20)")
	first := len(series.Points())

	in.UpdateData(testDataframe(80, 6))
	require.Greater(t, len(series.Points()), first)
}
