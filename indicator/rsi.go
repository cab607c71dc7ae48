package indicator

import (
	"fmt"

	"github.com/raykavin/chartdeck/core"
)

// RSI creates a new Relative Strength Index calculator
// period: the number of price changes in the smoothing window
func RSI(period int) (Calculator, error) {
	if err := requirePositive(core.KindRSI, "period", period); err != nil {
		return nil, err
	}
	return &rsi{period: period}, nil
}

type rsi struct {
	period int
}

// Kind returns the indicator family identifier
func (r rsi) Kind() core.IndicatorKind { return core.KindRSI }

// Name returns the formatted name of the indicator
func (r rsi) Name() string { return fmt.Sprintf("RSI(%d)", r.period) }

// Overlay returns false, the oscillator renders on its own pane
func (r rsi) Overlay() bool { return false }

// Warmup returns the number of candles needed before the first point
// One extra candle is required because the index works on price changes
func (r rsi) Warmup() int { return r.period + 1 }

// Calculate computes the index with Wilder smoothing
// The first averages are the simple means of the first period gains and
// losses; afterwards avg = ((period-1)*avg + current) / period. A window
// with no losses yields 100
func (r rsi) Calculate(df *core.Dataframe) []Line {
	line := Line{Name: "rsi", Style: core.StyleLine}

	n := len(df.Close)
	if n < r.period+1 {
		return []Line{line}
	}

	gains := make([]float64, n-1)
	losses := make([]float64, n-1)
	for i := 1; i < n; i++ {
		change := df.Close[i] - df.Close[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	var avgGain, avgLoss float64
	for i := 0; i < r.period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(r.period)
	avgLoss /= float64(r.period)

	points := make([]core.ValuePoint, 0, n-r.period)
	points = append(points, core.ValuePoint{
		Time:  df.Time[r.period],
		Value: rsiValue(avgGain, avgLoss),
	})

	p := float64(r.period)
	for i := r.period; i < n-1; i++ {
		avgGain = (avgGain*(p-1) + gains[i]) / p
		avgLoss = (avgLoss*(p-1) + losses[i]) / p
		points = append(points, core.ValuePoint{
			Time:  df.Time[i+1],
			Value: rsiValue(avgGain, avgLoss),
		})
	}

	line.Points = points
	return []Line{line}
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}
