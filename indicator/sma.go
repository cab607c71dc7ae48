package indicator

import (
	"fmt"

	"github.com/raykavin/chartdeck/core"
)

// SMA creates a new Simple Moving Average calculator
// period: the number of closing prices averaged per point
func SMA(period int) (Calculator, error) {
	if err := requirePositive(core.KindSMA, "period", period); err != nil {
		return nil, err
	}
	return &sma{period: period}, nil
}

type sma struct {
	period int
}

// Kind returns the indicator family identifier
func (s sma) Kind() core.IndicatorKind { return core.KindSMA }

// Name returns the formatted name of the indicator
func (s sma) Name() string { return fmt.Sprintf("SMA(%d)", s.period) }

// Overlay returns true if the indicator should be drawn on the price pane
func (s sma) Overlay() bool { return true }

// Warmup returns the number of candles needed before the first point
func (s sma) Warmup() int { return s.period }

// Calculate computes the moving average over the full candle history
// Each point is stamped with the time of its window's last candle
func (s sma) Calculate(df *core.Dataframe) []Line {
	values := smaSeries(df.Close, s.period)
	return []Line{
		{Name: "sma", Style: core.StyleLine, Points: alignTail(df.Time, values)},
	}
}
