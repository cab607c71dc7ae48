package indicator

import (
	"fmt"
	"math"

	"github.com/raykavin/chartdeck/core"
)

// ATR creates a new Average True Range calculator
// period: the Wilder smoothing window over true ranges
func ATR(period int) (Calculator, error) {
	if err := requirePositive(core.KindATR, "period", period); err != nil {
		return nil, err
	}
	return &atr{period: period}, nil
}

type atr struct {
	period int
}

// Kind returns the indicator family identifier
func (a atr) Kind() core.IndicatorKind { return core.KindATR }

// Name returns the formatted name of the indicator
func (a atr) Name() string { return fmt.Sprintf("ATR(%d)", a.period) }

// Overlay returns false, the oscillator renders on its own pane
func (a atr) Overlay() bool { return false }

// Warmup returns the number of candles needed before the first point
// One extra candle is required because true range uses the previous close
func (a atr) Warmup() int { return a.period + 1 }

// Calculate computes the smoothed true range
// true range = max(high-low, |high-prevClose|, |low-prevClose|); the first
// point is the simple mean of the first period ranges, afterwards Wilder
// smoothing applies: atr = ((period-1)*prev + tr) / period
func (a atr) Calculate(df *core.Dataframe) []Line {
	line := Line{Name: "atr", Style: core.StyleLine}

	n := len(df.Close)
	if n < a.period+1 {
		return []Line{line}
	}

	ranges := make([]float64, n-1)
	for i := 1; i < n; i++ {
		highLow := df.High[i] - df.Low[i]
		highClose := math.Abs(df.High[i] - df.Close[i-1])
		lowClose := math.Abs(df.Low[i] - df.Close[i-1])
		ranges[i-1] = math.Max(highLow, math.Max(highClose, lowClose))
	}

	var seed float64
	for i := 0; i < a.period; i++ {
		seed += ranges[i]
	}
	seed /= float64(a.period)

	points := make([]core.ValuePoint, 0, n-a.period)
	points = append(points, core.ValuePoint{Time: df.Time[a.period], Value: seed})

	value, p := seed, float64(a.period)
	for i := a.period; i < len(ranges); i++ {
		value = (value*(p-1) + ranges[i]) / p
		points = append(points, core.ValuePoint{Time: df.Time[i+1], Value: value})
	}

	line.Points = points
	return []Line{line}
}
