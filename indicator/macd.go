package indicator

import (
	"fmt"

	"github.com/raykavin/chartdeck/core"
)

// MACD creates a new Moving Average Convergence Divergence calculator
// fast, slow: EMA periods of the macd line; signal: EMA period over it
func MACD(fast, slow, signal int) (Calculator, error) {
	for name, value := range map[string]int{"fast": fast, "slow": slow, "signal": signal} {
		if err := requirePositive(core.KindMACD, name, value); err != nil {
			return nil, err
		}
	}
	return &macd{fast: fast, slow: slow, signal: signal}, nil
}

type macd struct {
	fast   int
	slow   int
	signal int
}

// Kind returns the indicator family identifier
func (m macd) Kind() core.IndicatorKind { return core.KindMACD }

// Name returns the formatted name of the indicator
func (m macd) Name() string { return fmt.Sprintf("MACD(%d, %d, %d)", m.fast, m.slow, m.signal) }

// Overlay returns false, the oscillator renders on its own pane
func (m macd) Overlay() bool { return false }

// Warmup returns the number of candles needed before the signal line starts
func (m macd) Warmup() int { return max(m.fast, m.slow) + m.signal }

// Calculate computes the three output lines
// The macd line is the difference of the two EMAs where both exist, the
// signal line is an EMA over the macd line values, and the histogram is
// their difference at each shared timestamp
func (m macd) Calculate(df *core.Dataframe) []Line {
	macdLine := Line{Name: "macd", Style: core.StyleLine}
	signalLine := Line{Name: "signal", Style: core.StyleLine}
	histogramLine := Line{Name: "histogram", Style: core.StyleHistogram}

	n := len(df.Close)
	if n < m.Warmup() {
		return []Line{macdLine, signalLine, histogramLine}
	}

	emaFast := emaSeries(df.Close, m.fast)
	emaSlow := emaSeries(df.Close, m.slow)

	// First candle index where both EMAs exist
	start := max(m.fast, m.slow) - 1

	macdVals := make([]float64, n-start)
	for i := range macdVals {
		candle := start + i
		macdVals[i] = emaFast[candle-(m.fast-1)] - emaSlow[candle-(m.slow-1)]
	}

	signalVals := emaSeries(macdVals, m.signal)

	histogramVals := make([]float64, len(signalVals))
	for i, sig := range signalVals {
		histogramVals[i] = macdVals[m.signal-1+i] - sig
	}

	macdLine.Points = alignTail(df.Time, macdVals)
	signalLine.Points = alignTail(df.Time, signalVals)
	histogramLine.Points = alignTail(df.Time, histogramVals)

	return []Line{macdLine, signalLine, histogramLine}
}
