package indicator

import (
	"fmt"

	"github.com/raykavin/chartdeck/core"
)

// Ichimoku creates a new Ichimoku Cloud calculator
// conversion, base, span: midpoint windows; displacement: the forward shift
// of the cloud lines and the backward shift of the lagging line
func Ichimoku(conversion, base, span, displacement int) (Calculator, error) {
	for name, value := range map[string]int{"conversion": conversion, "base": base, "span": span} {
		if err := requirePositive(core.KindIchimoku, name, value); err != nil {
			return nil, err
		}
	}
	if displacement < 0 {
		return nil, fmt.Errorf("%w: ichimoku displacement must not be negative, got %d",
			core.ErrInvalidParameters, displacement)
	}
	return &ichimoku{
		conversion:   conversion,
		base:         base,
		span:         span,
		displacement: displacement,
	}, nil
}

type ichimoku struct {
	conversion   int
	base         int
	span         int
	displacement int
}

// Kind returns the indicator family identifier
func (ic ichimoku) Kind() core.IndicatorKind { return core.KindIchimoku }

// Name returns the formatted name of the indicator
func (ic ichimoku) Name() string {
	return fmt.Sprintf("ICHIMOKU(%d, %d, %d)", ic.conversion, ic.base, ic.span)
}

// Overlay returns true if the indicator should be drawn on the price pane
func (ic ichimoku) Overlay() bool { return true }

// Warmup returns the number of candles needed before all sources exist
func (ic ichimoku) Warmup() int { return max(ic.conversion, ic.base, ic.span) }

// Calculate computes the five output lines
// tenkan and kijun are window midpoints at their own candle; senkou_a and
// senkou_b shift forward by the displacement; chikou is the close shifted
// backward. Shifted points landing outside the candle range are dropped,
// never padded
func (ic ichimoku) Calculate(df *core.Dataframe) []Line {
	tenkanLine := Line{Name: "tenkan", Style: core.StyleLine}
	kijunLine := Line{Name: "kijun", Style: core.StyleLine}
	senkouALine := Line{Name: "senkou_a", Style: core.StyleLine}
	senkouBLine := Line{Name: "senkou_b", Style: core.StyleLine}
	chikouLine := Line{Name: "chikou", Style: core.StyleLine}

	n := len(df.Close)

	tenkan := windowMidpoints(df.High, df.Low, ic.conversion)
	kijun := windowMidpoints(df.High, df.Low, ic.base)
	spanMids := windowMidpoints(df.High, df.Low, ic.span)

	tenkanLine.Points = alignTail(df.Time, tenkan)
	kijunLine.Points = alignTail(df.Time, kijun)

	// Leading span A: average of tenkan and kijun where both exist,
	// plotted displacement candles ahead of its source candle
	if len(tenkan) > 0 && len(kijun) > 0 {
		start := max(ic.conversion, ic.base) - 1
		for i := start; i+ic.displacement < n; i++ {
			value := (tenkan[i-(ic.conversion-1)] + kijun[i-(ic.base-1)]) / 2
			senkouALine.Points = append(senkouALine.Points, core.ValuePoint{
				Time:  df.Time[i+ic.displacement],
				Value: value,
			})
		}
	}

	// Leading span B: span window midpoint, shifted like span A
	for i := ic.span - 1; i+ic.displacement < n; i++ {
		senkouBLine.Points = append(senkouBLine.Points, core.ValuePoint{
			Time:  df.Time[i+ic.displacement],
			Value: spanMids[i-(ic.span-1)],
		})
	}

	// Lagging span: the close plotted displacement candles back
	for i := ic.displacement; i < n; i++ {
		chikouLine.Points = append(chikouLine.Points, core.ValuePoint{
			Time:  df.Time[i-ic.displacement],
			Value: df.Close[i],
		})
	}

	return []Line{tenkanLine, kijunLine, senkouALine, senkouBLine, chikouLine}
}
