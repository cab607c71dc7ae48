package chart

import (
	"math/rand"
	"time"

	"github.com/raykavin/chartdeck/core"
	"github.com/raykavin/chartdeck/logger"
	zlog "github.com/raykavin/chartdeck/logger/zerolog"

	"github.com/rs/zerolog"
)

func testLogger() logger.Logger {
	nop := zerolog.Nop()
	return zlog.NewAdapter(&nop)
}

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testCandles(n int, seed int64) []core.Candle {
	rng := rand.New(rand.NewSource(seed))

	candles := make([]core.Candle, n)
	price := 100.0
	for i := range candles {
		open := price
		price += rng.Float64()*4 - 2
		candles[i] = core.Candle{
			Pair:     "BTCUSDT",
			Time:     testEpoch.Add(time.Duration(i) * time.Minute),
			Open:     open,
			High:     max(open, price) + 1,
			Low:      min(open, price) - 1,
			Close:    price,
			Volume:   1000,
			Complete: true,
		}
	}
	return candles
}

func testDataframe(n int, seed int64) *core.Dataframe {
	return core.DataframeFromCandles("BTCUSDT", testCandles(n, seed))
}
