package indicator

import (
	"fmt"

	"github.com/raykavin/chartdeck/core"
)

// Stochastic creates a new Stochastic Oscillator calculator
// kPeriod: the lookback window of %K; dPeriod: the %D moving average window;
// smoothK: an optional moving average over raw %K, 1 disables it
func Stochastic(kPeriod, dPeriod, smoothK int) (Calculator, error) {
	for name, value := range map[string]int{"kPeriod": kPeriod, "dPeriod": dPeriod, "smoothK": smoothK} {
		if err := requirePositive(core.KindStochastic, name, value); err != nil {
			return nil, err
		}
	}
	return &stochastic{kPeriod: kPeriod, dPeriod: dPeriod, smoothK: smoothK}, nil
}

type stochastic struct {
	kPeriod int
	dPeriod int
	smoothK int
}

// Kind returns the indicator family identifier
func (s stochastic) Kind() core.IndicatorKind { return core.KindStochastic }

// Name returns the formatted name of the indicator
func (s stochastic) Name() string { return fmt.Sprintf("STOCH(%d, %d)", s.kPeriod, s.dPeriod) }

// Overlay returns false, the oscillator renders on its own pane
func (s stochastic) Overlay() bool { return false }

// Warmup returns the number of candles needed before the %D line starts
func (s stochastic) Warmup() int { return s.kPeriod + s.smoothK + s.dPeriod - 2 }

// Calculate computes the %K and %D lines
// raw %K = 100 * (close - lowestLow) / (highestHigh - lowestLow) over the
// kPeriod window; a window where highestHigh equals lowestLow yields 100.
// %K is optionally smoothed with SMA(smoothK) and %D is SMA(%K, dPeriod)
func (s stochastic) Calculate(df *core.Dataframe) []Line {
	kLine := Line{Name: "k", Style: core.StyleLine}
	dLine := Line{Name: "d", Style: core.StyleLine}

	n := len(df.Close)
	if n < s.kPeriod {
		return []Line{kLine, dLine}
	}

	raw := make([]float64, 0, n-s.kPeriod+1)
	for i := s.kPeriod - 1; i < n; i++ {
		hh, ll := df.High[i], df.Low[i]
		for j := i - s.kPeriod + 1; j < i; j++ {
			if df.High[j] > hh {
				hh = df.High[j]
			}
			if df.Low[j] < ll {
				ll = df.Low[j]
			}
		}

		if hh == ll {
			raw = append(raw, 100)
			continue
		}
		raw = append(raw, 100*(df.Close[i]-ll)/(hh-ll))
	}

	kVals := raw
	if s.smoothK > 1 {
		kVals = smaSeries(raw, s.smoothK)
	}
	dVals := smaSeries(kVals, s.dPeriod)

	kLine.Points = alignTail(df.Time, kVals)
	dLine.Points = alignTail(df.Time, dVals)

	return []Line{kLine, dLine}
}
