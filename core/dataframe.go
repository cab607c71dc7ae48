package core

import (
	"time"
)

// Dataframe is a time series container for OHLCV data
type Dataframe struct {
	Pair string

	Close  Series[float64]
	Open   Series[float64]
	High   Series[float64]
	Low    Series[float64]
	Volume Series[float64]

	Time       []time.Time
	LastUpdate time.Time
}

// NewDataframe creates an empty dataframe bound to a trading pair
func NewDataframe(pair string) *Dataframe {
	return &Dataframe{Pair: pair}
}

// DataframeFromCandles builds a dataframe from a complete candle history
func DataframeFromCandles(pair string, candles []Candle) *Dataframe {
	df := NewDataframe(pair)
	for _, candle := range candles {
		df.Update(candle)
	}
	return df
}

// Update inserts a candle into the dataframe
// A candle with the same timestamp as the last row replaces it in place,
// otherwise the candle is appended as a new row
func (df *Dataframe) Update(candle Candle) {
	if last := len(df.Time) - 1; last >= 0 && candle.Time.Equal(df.Time[last]) {
		df.Close[last] = candle.Close
		df.Open[last] = candle.Open
		df.High[last] = candle.High
		df.Low[last] = candle.Low
		df.Volume[last] = candle.Volume
		df.LastUpdate = candle.UpdatedAt
		return
	}

	df.Close = append(df.Close, candle.Close)
	df.Open = append(df.Open, candle.Open)
	df.High = append(df.High, candle.High)
	df.Low = append(df.Low, candle.Low)
	df.Volume = append(df.Volume, candle.Volume)
	df.Time = append(df.Time, candle.Time)
	df.LastUpdate = candle.Time
}

// IsLateCandle checks if a candle is older than the latest row in the dataframe
func (df *Dataframe) IsLateCandle(candle Candle) bool {
	return len(df.Time) > 0 && candle.Time.Before(df.Time[len(df.Time)-1])
}

// Length returns the number of rows in the dataframe
func (df *Dataframe) Length() int {
	return len(df.Time)
}

// Sample returns a subset of the dataframe with the last 'positions' elements
// Used for windowing operations on a dataframe
func (df Dataframe) Sample(positions int) Dataframe {
	size := len(df.Time)
	start := size - positions

	// Return the entire dataframe if requested sample is larger than dataframe
	if start <= 0 {
		return df
	}

	return Dataframe{
		Pair:       df.Pair,
		Close:      df.Close.LastValues(positions),
		Open:       df.Open.LastValues(positions),
		High:       df.High.LastValues(positions),
		Low:        df.Low.LastValues(positions),
		Volume:     df.Volume.LastValues(positions),
		Time:       df.Time[start:],
		LastUpdate: df.LastUpdate,
	}
}
