package chart

import (
	"github.com/raykavin/chartdeck/core"
	"github.com/raykavin/chartdeck/indicator"
	"github.com/raykavin/chartdeck/logger"
)

type instanceState int8

const (
	stateCreated instanceState = iota
	stateBound
	stateActive
	stateDestroyed
)

func (s instanceState) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateBound:
		return "bound"
	case stateActive:
		return "active"
	case stateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Default line colors per kind, indexed by the calculator's line order
var defaultLineColors = map[core.IndicatorKind][]string{
	core.KindSMA:        {"#ff9800"},
	core.KindEMA:        {"#2196f3"},
	core.KindRSI:        {"#7e57c2"},
	core.KindMACD:       {"#2962ff", "#ff6d00", "#26a69a"},
	core.KindBollinger:  {"#2962ff", "#f23645", "#089981"},
	core.KindATR:        {"#f44336"},
	core.KindStochastic: {"#2962ff", "#ff6d00"},
	core.KindIchimoku:   {"#2962ff", "#b71c1c", "#26a69a", "#ef5350", "#43a047"},
}

// Instance binds one indicator calculator to its rendering series
//
// The lifecycle is linear: created -> bound -> active -> destroyed, with
// visibility toggling freely while active. Calls that arrive out of order
// are logged and ignored; nothing in the lifecycle panics
type Instance struct {
	id      string
	config  core.IndicatorConfig
	calc    indicator.Calculator
	surface Surface
	state   instanceState
	visible bool
	pane    int
	handles map[string]SeriesHandle
	last    []indicator.Line
	log     logger.Logger
}

// NewInstance creates an inert instance from a resolved config
func NewInstance(id string, config core.IndicatorConfig, calc indicator.Calculator, log logger.Logger) *Instance {
	return &Instance{
		id:      id,
		config:  config,
		calc:    calc,
		state:   stateCreated,
		visible: !config.Hidden,
		pane:    -1,
		handles: make(map[string]SeriesHandle),
		log:     log.WithField("indicator", config.Name),
	}
}

// ID returns the registry identifier of the instance
func (in *Instance) ID() string { return in.id }

// Name returns the display name of the instance
func (in *Instance) Name() string { return in.config.Name }

// Kind returns the indicator family of the instance
func (in *Instance) Kind() core.IndicatorKind { return in.calc.Kind() }

// Overlay reports whether the instance renders on the price pane
func (in *Instance) Overlay() bool { return in.calc.Overlay() }

// Pane returns the assigned pane index, -1 before assignment
func (in *Instance) Pane() int { return in.pane }

// Visible reports the requested visibility of the instance
func (in *Instance) Visible() bool { return in.visible }

// Destroyed reports whether the instance reached its terminal state
func (in *Instance) Destroyed() bool { return in.state == stateDestroyed }

// Config returns the resolved configuration of the instance
func (in *Instance) Config() core.IndicatorConfig { return in.config }

// Initialize binds the instance to a surface exactly once
func (in *Instance) Initialize(surface Surface) {
	if in.state != stateCreated {
		in.log.Warnf("chart: initialize ignored in state %s", in.state)
		return
	}

	in.surface = surface
	in.state = stateBound
}

// CreateSeries creates one rendering series per calculator line on the
// given pane and returns the primary line's handle
//
// When the surface refuses a series the failure is logged and a nil handle
// returned; the instance keeps running with whatever series it obtained
func (in *Instance) CreateSeries(paneIndex int) SeriesHandle {
	if in.state != stateBound {
		in.log.Warnf("chart: createSeries ignored in state %s", in.state)
		return nil
	}

	in.pane = paneIndex
	in.state = stateActive

	var primary SeriesHandle
	for i, line := range in.calc.Calculate(core.NewDataframe("")) {
		style := SeriesStyle{
			Name:  in.seriesLabel(i, line.Name),
			Color: in.lineColor(i),
			Style: line.Style,
		}

		handle, err := in.surface.AddSeries(paneIndex, style)
		if err != nil {
			in.log.WithError(err).Errorf("chart: series %q unavailable", line.Name)
			continue
		}

		if !in.visible {
			handle.SetVisible(false)
		}

		in.handles[line.Name] = handle
		if i == 0 {
			primary = handle
		}
	}

	return primary
}

// UpdateData recomputes every line from the full candle history and pushes
// the joined result to the surface
//
// Lines of different lengths are inner-joined by timestamp first, so series
// of one indicator always advance in lockstep. Hidden series receive pushes
// like visible ones
func (in *Instance) UpdateData(df *core.Dataframe) {
	if in.state != stateActive {
		in.log.Warnf("chart: updateData ignored in state %s", in.state)
		return
	}

	lines := joinLines(in.calc.Calculate(df))
	in.last = lines

	for _, line := range lines {
		handle, ok := in.handles[line.Name]
		if !ok {
			continue
		}
		handle.SetData(line.Points)
	}
}

// SetVisibility shows or hides the instance's series without recreating them
func (in *Instance) SetVisibility(visible bool) {
	if in.state != stateActive {
		in.log.Warnf("chart: setVisibility ignored in state %s", in.state)
		return
	}

	in.visible = visible
	for _, handle := range in.handles {
		handle.SetVisible(visible)
	}
}

// Destroy removes every series owned by the instance and ends its lifecycle
// Destroying twice is a no-op
func (in *Instance) Destroy() {
	if in.state == stateDestroyed {
		in.log.Debug("chart: destroy ignored, already destroyed")
		return
	}

	for _, handle := range in.handles {
		handle.Remove()
	}
	in.handles = make(map[string]SeriesHandle)
	in.state = stateDestroyed
}

// Lines returns the joined output lines of the last recompute
// The returned slices are shared and must not be mutated
func (in *Instance) Lines() []indicator.Line {
	return in.last
}

// LastValues returns the most recent pushed value per line
func (in *Instance) LastValues() map[string]float64 {
	out := make(map[string]float64, len(in.last))
	for _, line := range in.last {
		if len(line.Points) == 0 {
			continue
		}
		out[line.Name] = line.Points[len(line.Points)-1].Value
	}
	return out
}

// setCalculator swaps the calculator after a parameter edit
// The series set stays in place; only values change on the next push
func (in *Instance) setCalculator(calc indicator.Calculator, config core.IndicatorConfig) {
	in.calc = calc
	in.config = config
}

// seriesLabel names a series after the instance for single-line indicators
// and after the line for multi-line ones
func (in *Instance) seriesLabel(index int, lineName string) string {
	if index == 0 {
		return in.config.Name
	}
	return lineName
}

// lineColor resolves the color of a line: the configured color for the
// primary line, the kind palette for the rest
func (in *Instance) lineColor(index int) string {
	palette := defaultLineColors[in.calc.Kind()]

	if index == 0 && in.config.Color != "" {
		return in.config.Color
	}
	if index < len(palette) {
		return palette[index]
	}
	return "#787b86"
}

// joinLines filters multi-line output down to timestamps present in every
// line; single-line output passes through untouched
func joinLines(lines []indicator.Line) []indicator.Line {
	if len(lines) < 2 {
		return lines
	}

	counts := make(map[int64]int)
	for _, line := range lines {
		for _, point := range line.Points {
			counts[point.Time.UnixNano()]++
		}
	}

	out := make([]indicator.Line, len(lines))
	for i, line := range lines {
		joined := line
		joined.Points = make([]core.ValuePoint, 0, len(line.Points))
		for _, point := range line.Points {
			if counts[point.Time.UnixNano()] == len(lines) {
				joined.Points = append(joined.Points, point)
			}
		}
		out[i] = joined
	}
	return out
}
