// Package indicator implements the technical indicator calculators used by
// the chart engine. Calculators are pure functions over a complete candle
// history: the same dataframe always produces the same lines, insufficient
// data produces empty lines, and no calculator ever errors or panics during
// calculation. Parameter validation happens once, at construction.
package indicator

import (
	"fmt"

	"github.com/raykavin/chartdeck/core"
)

// Line is one named output series of a calculator
type Line struct {
	Name   string
	Style  core.MetricStyle
	Points []core.ValuePoint
}

// Calculator computes indicator lines from a complete candle history
//
// Calculate always returns the kind's full line set in a fixed order, with
// empty points when the history is too short. The first line is the primary
// line of the indicator
type Calculator interface {
	Kind() core.IndicatorKind
	Name() string
	Overlay() bool
	Warmup() int
	Calculate(df *core.Dataframe) []Line
}

// New builds the calculator for a kind, overlaying the given parameters on
// the kind defaults. Unknown kinds and invalid parameters are rejected
func New(kind core.IndicatorKind, params core.Parameters) (Calculator, error) {
	params = params.Merge(core.DefaultParameters(kind))

	switch kind {
	case core.KindSMA:
		return SMA(params.IntOr(core.ParamPeriod, 0))
	case core.KindEMA:
		return EMA(params.IntOr(core.ParamPeriod, 0))
	case core.KindRSI:
		return RSI(params.IntOr(core.ParamPeriod, 0))
	case core.KindMACD:
		return MACD(
			params.IntOr(core.ParamFast, 0),
			params.IntOr(core.ParamSlow, 0),
			params.IntOr(core.ParamSignal, 0),
		)
	case core.KindBollinger:
		return Bollinger(
			params.IntOr(core.ParamPeriod, 0),
			params.FloatOr(core.ParamStdDev, 0),
		)
	case core.KindATR:
		return ATR(params.IntOr(core.ParamPeriod, 0))
	case core.KindStochastic:
		return Stochastic(
			params.IntOr(core.ParamKPeriod, 0),
			params.IntOr(core.ParamDPeriod, 0),
			params.IntOr(core.ParamSmoothK, 0),
		)
	case core.KindIchimoku:
		return Ichimoku(
			params.IntOr(core.ParamConversion, 0),
			params.IntOr(core.ParamBase, 0),
			params.IntOr(core.ParamSpan, 0),
			params.IntOr(core.ParamDisplacement, 0),
		)
	}

	return nil, fmt.Errorf("%w: %q", core.ErrUnknownIndicatorKind, kind)
}
