package alert

import (
	"fmt"
	"sync"
	"time"

	"github.com/raykavin/chartdeck/chart"
	"github.com/raykavin/chartdeck/core"
	"github.com/raykavin/chartdeck/logger"
)

// Watcher evaluates a fixed rule set against registry snapshots.
//
// Crossing detection and cooldowns are tracked per rule and instance in
// memory; a new watcher starts with a clean slate.
type Watcher struct {
	rules     []Rule
	notifiers []core.Notifier
	log       logger.Logger

	mu        sync.Mutex
	prev      map[string]float64
	lastFired map[string]time.Time
}

// NewWatcher creates a watcher for the given rules.
func NewWatcher(log logger.Logger, rules ...Rule) (*Watcher, error) {
	seen := make(map[string]struct{}, len(rules))
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seen[rule.Name]; ok {
			return nil, fmt.Errorf("alert: duplicate rule %q", rule.Name)
		}
		seen[rule.Name] = struct{}{}
	}

	return &Watcher{
		rules:     rules,
		log:       log,
		prev:      make(map[string]float64),
		lastFired: make(map[string]time.Time),
	}, nil
}

// AddNotifier registers a notifier that receives every fired event message.
func (w *Watcher) AddNotifier(notifier core.Notifier) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.notifiers = append(w.notifiers, notifier)
}

// Rules returns a copy of the configured rules.
func (w *Watcher) Rules() []Rule {
	out := make([]Rule, len(w.rules))
	copy(out, w.rules)
	return out
}

// Evaluate runs every rule against the snapshot and returns the fired
// events. Matches are notified before returning.
func (w *Watcher) Evaluate(pair string, at time.Time, statuses []chart.InstanceStatus) []Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	var events []Event
	for _, rule := range w.rules {
		for _, status := range statuses {
			if status.Kind != rule.Indicator {
				continue
			}

			value, ok := status.Last[rule.Line]
			if !ok {
				continue // line has no value yet (warmup)
			}

			key := ruleStatusKey(rule.Name, status.ID)
			prev, hasPrev := w.prev[key]
			w.prev[key] = value

			if !rule.matches(value, prev, hasPrev) {
				continue
			}

			if fired, ok := w.lastFired[key]; ok && rule.Cooldown > 0 && at.Sub(fired) < rule.Cooldown {
				w.log.Debugf("alert %s suppressed by cooldown (%s left)",
					rule.Name, rule.Cooldown-at.Sub(fired))
				continue
			}
			w.lastFired[key] = at

			event := Event{
				Rule:      rule.Name,
				Indicator: status.Name,
				Line:      rule.Line,
				Value:     value,
				At:        at,
				Message:   rule.message(pair, status.Name, value),
			}
			events = append(events, event)

			w.log.Infof("alert fired: %s", event.Message)
			for _, notifier := range w.notifiers {
				notifier.Notify(event.Message)
			}
		}
	}

	return events
}
