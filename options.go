package chartdeck

import (
	"github.com/raykavin/chartdeck/alert"
	"github.com/raykavin/chartdeck/chart"
	"github.com/raykavin/chartdeck/core"
	"github.com/raykavin/chartdeck/logger"
)

// Option is a functional option for configuring a Session instance
type Option func(*Session)

// WithSurface binds the rendering surface the session draws on
// Without it the session runs headless: indicators compute, nothing renders
func WithSurface(surface chart.Surface) Option {
	return func(session *Session) {
		session.surface = surface
	}
}

// WithLogLevel sets the log level of the session logger
func WithLogLevel(level logger.Level) Option {
	return func(session *Session) {
		session.log.SetLevel(level)
	}
}

// WithSelectionPolicy replaces the default single-oscillator policy
func WithSelectionPolicy(policy SelectionPolicy) Option {
	return func(session *Session) {
		session.policy = policy
	}
}

// WithAlertWatcher attaches an alert watcher evaluated on every closed candle
func WithAlertWatcher(watcher *alert.Watcher) Option {
	return func(session *Session) {
		session.watcher = watcher
	}
}

// WithNotifier registers a notifier for fired alerts, currently only
// telegram is provided in-tree
func WithNotifier(notifier core.Notifier) Option {
	return func(session *Session) {
		session.notifier = notifier
	}
}

// WithRefreshSubscription subscribes a consumer to the batch refresh feed
func WithRefreshSubscription(consumer chart.RefreshConsumer) Option {
	return func(session *Session) {
		session.refreshFeed.Subscribe(consumer)
	}
}
