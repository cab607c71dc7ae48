package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndicatorKind_Classification(t *testing.T) {
	overlays := []IndicatorKind{KindSMA, KindEMA, KindBollinger, KindIchimoku}
	oscillators := []IndicatorKind{KindRSI, KindMACD, KindATR, KindStochastic}

	for _, kind := range overlays {
		require.True(t, kind.Overlay(), "expected %s to be an overlay", kind)
		require.False(t, kind.Oscillator())
	}
	for _, kind := range oscillators {
		require.True(t, kind.Oscillator(), "expected %s to be an oscillator", kind)
		require.False(t, kind.Overlay())
	}

	require.False(t, IndicatorKind("vwap").Valid())
	require.False(t, IndicatorKind("vwap").Oscillator())
}

func TestDefaultParameters(t *testing.T) {
	require.Equal(t, 14, DefaultParameters(KindRSI).IntOr(ParamPeriod, 0))
	require.Equal(t, 26, DefaultParameters(KindMACD).IntOr(ParamSlow, 0))
	require.Equal(t, 2.0, DefaultParameters(KindBollinger).FloatOr(ParamStdDev, 0))
	require.Empty(t, DefaultParameters(IndicatorKind("vwap")))
}

func TestParameters_Merge(t *testing.T) {
	base := DefaultParameters(KindMACD)
	merged := Parameters{ParamFast: 8}.Merge(base)

	require.Equal(t, 8, merged.IntOr(ParamFast, 0))
	require.Equal(t, 26, merged.IntOr(ParamSlow, 0))
	require.Equal(t, 12, base.IntOr(ParamFast, 0), "base must stay untouched")
}
