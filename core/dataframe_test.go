package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func candleAt(sec int64, close float64) Candle {
	return Candle{
		Pair:  "BTCUSDT",
		Time:  time.Unix(sec, 0).UTC(),
		Open:  close - 1,
		High:  close + 1,
		Low:   close - 2,
		Close: close,
	}
}

func TestDataframe_UpdateAppends(t *testing.T) {
	df := NewDataframe("BTCUSDT")
	df.Update(candleAt(60, 10))
	df.Update(candleAt(120, 11))

	require.Equal(t, 2, df.Length())
	require.Equal(t, Series[float64]{10, 11}, df.Close)
	require.Equal(t, time.Unix(120, 0).UTC(), df.LastUpdate)
}

func TestDataframe_UpdateReplacesSameTimestamp(t *testing.T) {
	df := NewDataframe("BTCUSDT")
	df.Update(candleAt(60, 10))
	df.Update(candleAt(60, 12))

	require.Equal(t, 1, df.Length())
	require.Equal(t, 12.0, df.Close.Last(0))
}

func TestDataframe_IsLateCandle(t *testing.T) {
	df := DataframeFromCandles("BTCUSDT", []Candle{candleAt(60, 10), candleAt(120, 11)})

	require.True(t, df.IsLateCandle(candleAt(60, 10)))
	require.False(t, df.IsLateCandle(candleAt(120, 11)))
	require.False(t, df.IsLateCandle(candleAt(180, 12)))
}

func TestDataframe_Sample(t *testing.T) {
	df := DataframeFromCandles("BTCUSDT", []Candle{
		candleAt(60, 10), candleAt(120, 11), candleAt(180, 12),
	})

	sample := df.Sample(2)
	require.Equal(t, Series[float64]{11, 12}, sample.Close)
	require.Len(t, sample.Time, 2)

	full := df.Sample(10)
	require.Equal(t, 3, full.Length())
}
