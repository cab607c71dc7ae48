package indicator

import (
	"math/rand"
	"time"

	"github.com/raykavin/chartdeck/core"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// testTime returns the timestamp of the i-th minute candle of the fixtures
func testTime(i int) time.Time {
	return testEpoch.Add(time.Duration(i) * time.Minute)
}

// dfFromCloses builds a minute dataframe where high and low hug the close
func dfFromCloses(closes ...float64) *core.Dataframe {
	df := core.NewDataframe("BTCUSDT")
	for i, c := range closes {
		df.Update(core.Candle{
			Pair:     "BTCUSDT",
			Time:     testTime(i),
			Open:     c,
			High:     c + 1,
			Low:      c - 1,
			Close:    c,
			Complete: true,
		})
	}
	return df
}

// dfFromOHLC builds a minute dataframe from explicit high/low/close columns
func dfFromOHLC(highs, lows, closes []float64) *core.Dataframe {
	df := core.NewDataframe("BTCUSDT")
	for i := range closes {
		df.Update(core.Candle{
			Pair:     "BTCUSDT",
			Time:     testTime(i),
			Open:     closes[i],
			High:     highs[i],
			Low:      lows[i],
			Close:    closes[i],
			Complete: true,
		})
	}
	return df
}

// randomWalkDataframe builds a deterministic random walk around 100
func randomWalkDataframe(n int, seed int64) *core.Dataframe {
	rng := rand.New(rand.NewSource(seed))

	closes := make([]float64, n)
	price := 100.0
	for i := range closes {
		price += rng.Float64()*4 - 2
		closes[i] = price
	}
	return dfFromCloses(closes...)
}

// lineByName finds a calculator output line, nil when absent
func lineByName(lines []Line, name string) *Line {
	for i := range lines {
		if lines[i].Name == name {
			return &lines[i]
		}
	}
	return nil
}
