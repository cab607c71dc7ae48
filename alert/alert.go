// Package alert evaluates threshold and crossing rules against indicator
// snapshots and fans matches out to notifiers.
package alert

import (
	"fmt"
	"time"

	"github.com/raykavin/chartdeck/core"
)

// Op is the comparison a rule applies to an indicator line.
type Op string

const (
	OpAbove      Op = "above"
	OpBelow      Op = "below"
	OpCrossAbove Op = "cross_above"
	OpCrossBelow Op = "cross_below"
)

// Rule describes one condition over a single line of an indicator kind.
//
// A rule with a zero Cooldown fires on every evaluation that matches;
// crossing rules additionally need a previous value, so they stay quiet on
// the first evaluation of an instance.
type Rule struct {
	Name      string             // unique rule identifier, e.g. "rsi-overbought"
	Indicator core.IndicatorKind // indicator kind the rule inspects
	Line      string             // output line name, e.g. "rsi"
	Op        Op
	Value     float64
	Cooldown  time.Duration
}

// Validate reports whether the rule is well formed.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("alert: rule has no name")
	}
	if r.Line == "" {
		return fmt.Errorf("alert: rule %q has no line", r.Name)
	}
	switch r.Op {
	case OpAbove, OpBelow, OpCrossAbove, OpCrossBelow:
		return nil
	default:
		return fmt.Errorf("alert: rule %q has unknown op %q", r.Name, r.Op)
	}
}

// Event records one rule firing.
type Event struct {
	Rule      string
	Indicator string // instance name, e.g. "RSI(14)"
	Line      string
	Value     float64
	At        time.Time
	Message   string
}

func (r Rule) message(pair, indicator string, value float64) string {
	var verb string
	switch r.Op {
	case OpAbove:
		verb = "above"
	case OpBelow:
		verb = "below"
	case OpCrossAbove:
		verb = "crossed above"
	case OpCrossBelow:
		verb = "crossed below"
	}
	return fmt.Sprintf("%s %s: %s %s %.2f (%.2f)", pair, indicator, r.Line, verb, r.Value, value)
}

// matches evaluates the rule against the current and previous line values.
func (r Rule) matches(value float64, prev float64, hasPrev bool) bool {
	switch r.Op {
	case OpAbove:
		return value > r.Value
	case OpBelow:
		return value < r.Value
	case OpCrossAbove:
		return hasPrev && prev <= r.Value && value > r.Value
	case OpCrossBelow:
		return hasPrev && prev >= r.Value && value < r.Value
	}
	return false
}

// ruleStatusKey scopes rule state to one instance, so two instances of the
// same kind track and cool down independently.
func ruleStatusKey(rule string, instanceID string) string {
	return rule + "/" + instanceID
}
