package indicator

import (
	"fmt"
	"time"

	"github.com/raykavin/chartdeck/core"
)

// alignTail zips values against the trailing timestamps of the dataframe
// A series of m values computed over n candles belongs to the last m candles
func alignTail(times []time.Time, values []float64) []core.ValuePoint {
	if len(values) == 0 || len(values) > len(times) {
		return nil
	}

	offset := len(times) - len(values)
	points := make([]core.ValuePoint, len(values))
	for i, v := range values {
		points[i] = core.ValuePoint{Time: times[offset+i], Value: v}
	}
	return points
}

// smaSeries computes a rolling mean with a sliding window sum
// Returns len(values)-period+1 values, the first one for the window ending
// at index period-1
func smaSeries(values []float64, period int) []float64 {
	if period < 1 || len(values) < period {
		return nil
	}

	var sum float64
	for _, v := range values[:period] {
		sum += v
	}

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, sum/float64(period))

	for i := period; i < len(values); i++ {
		sum += values[i] - values[i-period]
		out = append(out, sum/float64(period))
	}
	return out
}

// emaSeries computes an exponential moving average seeded with the simple
// mean of the first period values, using the smoothing factor 2/(period+1)
// Returns len(values)-period+1 values aligned like smaSeries
func emaSeries(values []float64, period int) []float64 {
	if period < 1 || len(values) < period {
		return nil
	}

	var sum float64
	for _, v := range values[:period] {
		sum += v
	}

	alpha := 2.0 / (float64(period) + 1.0)
	ema := sum / float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, ema)

	for i := period; i < len(values); i++ {
		ema = alpha*values[i] + (1-alpha)*ema
		out = append(out, ema)
	}
	return out
}

// windowMidpoints computes (highest high + lowest low) / 2 per window
// Returns len(high)-period+1 values aligned like smaSeries
func windowMidpoints(high, low []float64, period int) []float64 {
	if period < 1 || len(high) < period || len(high) != len(low) {
		return nil
	}

	out := make([]float64, 0, len(high)-period+1)
	for i := period - 1; i < len(high); i++ {
		hh, ll := high[i], low[i]
		for j := i - period + 1; j < i; j++ {
			if high[j] > hh {
				hh = high[j]
			}
			if low[j] < ll {
				ll = low[j]
			}
		}
		out = append(out, (hh+ll)/2)
	}
	return out
}

func requirePositive(kind core.IndicatorKind, name string, value int) error {
	if value < 1 {
		return fmt.Errorf("%w: %s %s must be at least 1, got %d",
			core.ErrInvalidParameters, kind, name, value)
	}
	return nil
}
