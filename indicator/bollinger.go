package indicator

import (
	"fmt"

	"github.com/raykavin/chartdeck/core"

	"gonum.org/v1/gonum/stat"
)

// Bollinger creates a new Bollinger Bands calculator
// period: the moving average window; stdDev: the band width multiplier
func Bollinger(period int, stdDev float64) (Calculator, error) {
	if err := requirePositive(core.KindBollinger, "period", period); err != nil {
		return nil, err
	}
	if stdDev < 0 {
		return nil, fmt.Errorf("%w: bollinger stdDev must not be negative, got %v",
			core.ErrInvalidParameters, stdDev)
	}
	return &bollinger{period: period, stdDev: stdDev}, nil
}

type bollinger struct {
	period int
	stdDev float64
}

// Kind returns the indicator family identifier
func (b bollinger) Kind() core.IndicatorKind { return core.KindBollinger }

// Name returns the formatted name of the indicator
func (b bollinger) Name() string { return fmt.Sprintf("BB(%d, %.1f)", b.period, b.stdDev) }

// Overlay returns true if the indicator should be drawn on the price pane
func (b bollinger) Overlay() bool { return true }

// Warmup returns the number of candles needed before the first point
func (b bollinger) Warmup() int { return b.period }

// Calculate computes the middle, upper and lower bands
// The middle band is the window mean and the deviation is the population
// standard deviation of the same window, so upper >= middle >= lower holds
// for any non-negative multiplier
func (b bollinger) Calculate(df *core.Dataframe) []Line {
	middleLine := Line{Name: "middle", Style: core.StyleLine}
	upperLine := Line{Name: "upper", Style: core.StyleLine}
	lowerLine := Line{Name: "lower", Style: core.StyleLine}

	n := len(df.Close)
	if n < b.period {
		return []Line{middleLine, upperLine, lowerLine}
	}

	middle := smaSeries(df.Close, b.period)

	upper := make([]float64, len(middle))
	lower := make([]float64, len(middle))
	for i := range middle {
		window := df.Close[i : i+b.period]
		band := b.stdDev * stat.PopStdDev(window, nil)
		upper[i] = middle[i] + band
		lower[i] = middle[i] - band
	}

	middleLine.Points = alignTail(df.Time, middle)
	upperLine.Points = alignTail(df.Time, upper)
	lowerLine.Points = alignTail(df.Time, lower)

	return []Line{middleLine, upperLine, lowerLine}
}
