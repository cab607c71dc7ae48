package core

import (
	"math"
	"time"
)

type MetricStyle string

const (
	StyleBar       MetricStyle = "bar"
	StyleScatter   MetricStyle = "scatter"
	StyleLine      MetricStyle = "line"
	StyleHistogram MetricStyle = "histogram"
)

// ValuePoint is a single computed indicator value bound to a candle timestamp
type ValuePoint struct {
	Time  time.Time
	Value float64
}

// IndicatorKind identifies one of the supported indicator families
// The set is closed: construction goes through the indicator factory,
// which rejects unknown kinds
type IndicatorKind string

const (
	KindSMA        IndicatorKind = "sma"
	KindEMA        IndicatorKind = "ema"
	KindRSI        IndicatorKind = "rsi"
	KindMACD       IndicatorKind = "macd"
	KindBollinger  IndicatorKind = "bollinger"
	KindATR        IndicatorKind = "atr"
	KindStochastic IndicatorKind = "stochastic"
	KindIchimoku   IndicatorKind = "ichimoku"
)

// IndicatorKinds returns all supported kinds in display order
func IndicatorKinds() []IndicatorKind {
	return []IndicatorKind{
		KindSMA, KindEMA, KindRSI, KindMACD,
		KindBollinger, KindATR, KindStochastic, KindIchimoku,
	}
}

// Valid reports whether the kind belongs to the supported set
func (k IndicatorKind) Valid() bool {
	switch k {
	case KindSMA, KindEMA, KindRSI, KindMACD,
		KindBollinger, KindATR, KindStochastic, KindIchimoku:
		return true
	}
	return false
}

// Overlay reports whether the kind renders on the price pane
// The classification is fixed per kind and not configurable
func (k IndicatorKind) Overlay() bool {
	switch k {
	case KindSMA, KindEMA, KindBollinger, KindIchimoku:
		return true
	}
	return false
}

// Oscillator reports whether the kind renders on a dedicated pane
func (k IndicatorKind) Oscillator() bool {
	return k.Valid() && !k.Overlay()
}

func (k IndicatorKind) String() string { return string(k) }

// Parameter keys shared between configs and the indicator factory
const (
	ParamPeriod       = "period"
	ParamFast         = "fast"
	ParamSlow         = "slow"
	ParamSignal       = "signal"
	ParamStdDev       = "stdDev"
	ParamKPeriod      = "kPeriod"
	ParamDPeriod      = "dPeriod"
	ParamSmoothK      = "smoothK"
	ParamConversion   = "conversion"
	ParamBase         = "base"
	ParamSpan         = "span"
	ParamDisplacement = "displacement"
)

// Parameters holds the numeric settings of an indicator instance
type Parameters map[string]float64

// IntOr returns the parameter rounded to int, or def when absent
func (p Parameters) IntOr(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(math.Round(v))
	}
	return def
}

// FloatOr returns the parameter value, or def when absent
func (p Parameters) FloatOr(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Merge overlays p on top of base without mutating either
func (p Parameters) Merge(base Parameters) Parameters {
	out := make(Parameters, len(base)+len(p))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range p {
		out[k] = v
	}
	return out
}

// DefaultParameters returns the standard settings for a kind
// Unknown kinds yield an empty set
func DefaultParameters(kind IndicatorKind) Parameters {
	switch kind {
	case KindSMA, KindEMA:
		return Parameters{ParamPeriod: 20}
	case KindRSI, KindATR:
		return Parameters{ParamPeriod: 14}
	case KindMACD:
		return Parameters{ParamFast: 12, ParamSlow: 26, ParamSignal: 9}
	case KindBollinger:
		return Parameters{ParamPeriod: 20, ParamStdDev: 2}
	case KindStochastic:
		return Parameters{ParamKPeriod: 14, ParamDPeriod: 3, ParamSmoothK: 1}
	case KindIchimoku:
		return Parameters{
			ParamConversion:   9,
			ParamBase:         26,
			ParamSpan:         52,
			ParamDisplacement: 26,
		}
	}
	return Parameters{}
}

// IndicatorConfig is the requested configuration of one indicator instance
// Missing fields are resolved on registration: parameters against
// DefaultParameters, name and color against the indicator kind. The zero
// value of Hidden keeps new indicators visible
type IndicatorConfig struct {
	Kind       IndicatorKind
	Name       string
	Color      string
	Hidden     bool
	Parameters Parameters
}
