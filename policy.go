package chartdeck

import (
	"errors"
	"fmt"

	"github.com/raykavin/chartdeck/chart"
	"github.com/raykavin/chartdeck/core"
)

// ErrOscillatorActive is returned when the selection policy refuses a second
// oscillator indicator
var ErrOscillatorActive = errors.New("an oscillator indicator is already active")

// SelectionPolicy decides whether the control surface may offer one more
// indicator for addition, given the currently active set
//
// The policy is layered above the registry on purpose: the registry accepts
// any mix of indicators, only the session-level control boundary restricts
// what is offered.
type SelectionPolicy func(kind core.IndicatorKind, active []chart.InstanceStatus) error

// SingleOscillator allows at most one oscillator-class indicator at a time;
// overlay indicators are unrestricted. This is the default policy
func SingleOscillator() SelectionPolicy {
	return func(kind core.IndicatorKind, active []chart.InstanceStatus) error {
		if !kind.Oscillator() {
			return nil
		}
		for _, status := range active {
			if status.Kind.Oscillator() {
				return fmt.Errorf("%w: %s", ErrOscillatorActive, status.Name)
			}
		}
		return nil
	}
}

// UnrestrictedSelection allows any combination of indicators
func UnrestrictedSelection() SelectionPolicy {
	return func(core.IndicatorKind, []chart.InstanceStatus) error {
		return nil
	}
}
