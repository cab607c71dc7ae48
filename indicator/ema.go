package indicator

import (
	"fmt"

	"github.com/raykavin/chartdeck/core"
)

// EMA creates a new Exponential Moving Average calculator
// period: the number of periods to use for calculations
func EMA(period int) (Calculator, error) {
	if err := requirePositive(core.KindEMA, "period", period); err != nil {
		return nil, err
	}
	return &ema{period: period}, nil
}

type ema struct {
	period int
}

// Kind returns the indicator family identifier
func (e ema) Kind() core.IndicatorKind { return core.KindEMA }

// Name returns the formatted name of the indicator
func (e ema) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }

// Overlay returns true if the indicator should be drawn on the price pane
func (e ema) Overlay() bool { return true }

// Warmup returns the number of candles needed before the first point
func (e ema) Warmup() int { return e.period }

// Calculate computes the exponential average over the full candle history
// The first point is the simple mean of the first period closes, every
// following point applies the 2/(period+1) smoothing recurrence
func (e ema) Calculate(df *core.Dataframe) []Line {
	values := emaSeries(df.Close, e.period)
	return []Line{
		{Name: "ema", Style: core.StyleLine, Points: alignTail(df.Time, values)},
	}
}
