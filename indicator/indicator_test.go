package indicator

import (
	"testing"

	"github.com/raykavin/chartdeck/core"

	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsApplied(t *testing.T) {
	names := map[core.IndicatorKind]string{
		core.KindSMA:        "SMA(20)",
		core.KindEMA:        "EMA(20)",
		core.KindRSI:        "RSI(14)",
		core.KindMACD:       "MACD(12, 26, 9)",
		core.KindBollinger:  "BB(20, 2.0)",
		core.KindATR:        "ATR(14)",
		core.KindStochastic: "STOCH(14, 3)",
		core.KindIchimoku:   "ICHIMOKU(9, 26, 52)",
	}

	for kind, want := range names {
		calc, err := New(kind, nil)
		require.NoError(t, err)
		require.Equal(t, want, calc.Name())
		require.Equal(t, kind, calc.Kind())
	}
}

func TestNew_PartialOverride(t *testing.T) {
	calc, err := New(core.KindMACD, core.Parameters{core.ParamFast: 8})
	require.NoError(t, err)
	require.Equal(t, "MACD(8, 26, 9)", calc.Name())
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(core.IndicatorKind("vwap"), nil)
	require.ErrorIs(t, err, core.ErrUnknownIndicatorKind)
}

func TestNew_InvalidParameters(t *testing.T) {
	_, err := New(core.KindRSI, core.Parameters{core.ParamPeriod: 0})
	require.ErrorIs(t, err, core.ErrInvalidParameters)

	_, err = New(core.KindBollinger, core.Parameters{core.ParamStdDev: -2})
	require.ErrorIs(t, err, core.ErrInvalidParameters)
}

func TestNew_OverlayMatchesKindClassification(t *testing.T) {
	for _, kind := range core.IndicatorKinds() {
		calc, err := New(kind, nil)
		require.NoError(t, err)
		require.Equal(t, kind.Overlay(), calc.Overlay(), "kind %s", kind)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	df := randomWalkDataframe(120, 77)

	for _, kind := range core.IndicatorKinds() {
		calc, err := New(kind, nil)
		require.NoError(t, err)

		first := calc.Calculate(df)
		second := calc.Calculate(df)
		require.Equal(t, first, second, "kind %s", kind)
	}
}

func TestCalculate_PointTimesAreCandleTimes(t *testing.T) {
	df := randomWalkDataframe(120, 78)
	candleTimes := make(map[int64]bool, len(df.Time))
	for _, ts := range df.Time {
		candleTimes[ts.Unix()] = true
	}

	for _, kind := range core.IndicatorKinds() {
		calc, err := New(kind, nil)
		require.NoError(t, err)

		for _, line := range calc.Calculate(df) {
			for _, point := range line.Points {
				require.True(t, candleTimes[point.Time.Unix()],
					"kind %s line %s has a point off the candle grid", kind, line.Name)
			}
		}
	}
}

func TestCalculate_StrictlyAscendingTimes(t *testing.T) {
	df := randomWalkDataframe(150, 79)

	for _, kind := range core.IndicatorKinds() {
		calc, err := New(kind, nil)
		require.NoError(t, err)

		for _, line := range calc.Calculate(df) {
			for i := 1; i < len(line.Points); i++ {
				require.True(t, line.Points[i-1].Time.Before(line.Points[i].Time),
					"kind %s line %s times must ascend", kind, line.Name)
			}
		}
	}
}
