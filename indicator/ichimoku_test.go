package indicator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIchimoku_SmallFixture(t *testing.T) {
	calc, err := Ichimoku(2, 3, 4, 2)
	require.NoError(t, err)

	// high = close+1 and low = close-1, so window midpoints reduce to
	// (max(close)+min(close))/2 over the window
	df := dfFromCloses(10, 12, 11, 14, 13, 15, 12, 16)
	lines := calc.Calculate(df)

	tenkan := lineByName(lines, "tenkan")
	require.Len(t, tenkan.Points, 7)
	require.Equal(t, testTime(1), tenkan.Points[0].Time)
	require.InDelta(t, 11.0, tenkan.Points[0].Value, 1e-9)
	require.InDelta(t, 11.5, tenkan.Points[1].Value, 1e-9)

	kijun := lineByName(lines, "kijun")
	require.Len(t, kijun.Points, 6)
	require.Equal(t, testTime(2), kijun.Points[0].Time)
	require.InDelta(t, 11.0, kijun.Points[0].Value, 1e-9)

	// source candle 2 plots at candle 4; sources 6 and 7 fall off the end
	senkouA := lineByName(lines, "senkou_a")
	require.Len(t, senkouA.Points, 4)
	require.Equal(t, testTime(4), senkouA.Points[0].Time)
	require.InDelta(t, 11.25, senkouA.Points[0].Value, 1e-9)
	require.Equal(t, testTime(7), senkouA.Points[3].Time)

	// source candle 3 plots at candle 5
	senkouB := lineByName(lines, "senkou_b")
	require.Len(t, senkouB.Points, 3)
	require.Equal(t, testTime(5), senkouB.Points[0].Time)
	require.InDelta(t, 12.0, senkouB.Points[0].Value, 1e-9)

	// close of candle 2 plots at candle 0
	chikou := lineByName(lines, "chikou")
	require.Len(t, chikou.Points, 6)
	require.Equal(t, testTime(0), chikou.Points[0].Time)
	require.InDelta(t, 11.0, chikou.Points[0].Value, 1e-9)
	require.Equal(t, testTime(5), chikou.Points[5].Time)
	require.InDelta(t, 16.0, chikou.Points[5].Value, 1e-9)
}

func TestIchimoku_ShiftedPointsStayInRange(t *testing.T) {
	calc, err := Ichimoku(9, 26, 52, 26)
	require.NoError(t, err)

	df := randomWalkDataframe(200, 31)
	lines := calc.Calculate(df)

	first, last := df.Time[0], df.Time[len(df.Time)-1]
	for _, line := range lines {
		require.NotEmpty(t, line.Points, "line %s", line.Name)
		for _, point := range line.Points {
			require.False(t, point.Time.Before(first))
			require.False(t, point.Time.After(last))
		}
	}

	// the lagging line never reaches the last displacement candles
	chikou := lineByName(lines, "chikou")
	require.Equal(t, df.Time[200-1-26], chikou.Points[len(chikou.Points)-1].Time)

	// the leading spans start displacement candles after their sources
	senkouB := lineByName(lines, "senkou_b")
	require.Equal(t, df.Time[51+26], senkouB.Points[0].Time)
}

func TestIchimoku_InsufficientData(t *testing.T) {
	calc, err := Ichimoku(9, 26, 52, 26)
	require.NoError(t, err)

	lines := calc.Calculate(randomWalkDataframe(8, 12))
	for _, line := range lines {
		require.Empty(t, line.Points, "line %s", line.Name)
	}
}

func TestIchimoku_AllFiveLinesAlwaysPresent(t *testing.T) {
	calc, err := Ichimoku(9, 26, 52, 26)
	require.NoError(t, err)

	lines := calc.Calculate(dfFromCloses(10))
	require.Len(t, lines, 5)
	for _, line := range lines {
		require.Empty(t, line.Points)
	}
}
