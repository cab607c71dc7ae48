// Package chartdeck assembles the indicator engine into a chart session:
// one candle feed, one indicator registry and one rendering surface, driven
// together by a single update loop.
package chartdeck

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/raykavin/chartdeck/alert"
	"github.com/raykavin/chartdeck/chart"
	"github.com/raykavin/chartdeck/core"
	"github.com/raykavin/chartdeck/exchange"
	"github.com/raykavin/chartdeck/logger"
	"github.com/raykavin/chartdeck/notification"

	"github.com/schollz/progressbar/v3"
	str2duration "github.com/xhit/go-str2duration/v2"
)

// DefaultLog is the default logger instance
var DefaultLog logger.Logger

const defaultPreload = 200

// Session owns every moving part of one chart: the registry with its
// indicator instances, the bound surface, the candle feed subscription and
// the selection policy applied at this control boundary.
//
// The session is constructed when the chart mounts and closed when it
// unmounts; nothing inside it survives Close.
type Session struct {
	settings core.Settings
	feeder   core.Feeder
	log      logger.Logger

	registry    *chart.Registry
	surface     chart.Surface
	dataFeed    *exchange.DataFeedSubscription
	refreshFeed *chart.RefreshFeed
	policy      SelectionPolicy
	watcher     *alert.Watcher
	notifier    core.Notifier
	telegram    core.NotifierWithStart

	mu         sync.Mutex
	candles    []core.Candle
	lastCandle core.Candle

	replay bool
}

// NewSession creates a chart session around a candle feeder
//
// The surface, alert watcher and notifiers arrive through options; without
// a surface the session still computes every indicator, it just renders
// nothing (useful for tests and headless runs).
func NewSession(ctx context.Context, settings core.Settings, feeder core.Feeder,
	options ...Option) (*Session, error) {

	if err := validateSettings(settings); err != nil {
		return nil, err
	}
	if settings.Preload == 0 {
		settings.Preload = defaultPreload
	}

	session := &Session{
		settings:    settings,
		feeder:      feeder,
		log:         DefaultLog,
		registry:    chart.NewRegistry(DefaultLog),
		dataFeed:    exchange.NewDataFeed(feeder, DefaultLog),
		refreshFeed: chart.NewRefreshFeed(),
		policy:      SingleOscillator(),
	}

	for _, option := range options {
		option(session)
	}

	if session.surface != nil {
		session.registry.BindSurface(session.surface)
		if consumer, ok := session.surface.(interface{ OnRefresh(chart.RefreshEvent) }); ok {
			session.refreshFeed.Subscribe(consumer.OnRefresh)
		}
	}

	if err := initializeNotifications(session); err != nil {
		return nil, err
	}

	return session, nil
}

// validateSettings rejects sessions that could never receive a candle
func validateSettings(settings core.Settings) error {
	if settings.Pair == "" {
		return fmt.Errorf("chartdeck: %w: empty pair", core.ErrInvalidParameters)
	}
	if _, err := str2duration.ParseDuration(settings.Timeframe); err != nil {
		return fmt.Errorf("chartdeck: invalid timeframe %q: %w", settings.Timeframe, err)
	}
	return nil
}

// initializeNotifications wires the telegram bot when enabled and attaches
// every notifier to the alert watcher
func initializeNotifications(session *Session) error {
	if session.settings.Telegram.Enabled {
		telegram, err := notification.NewTelegram(session, &session.settings)
		if err != nil {
			return err
		}
		session.telegram = telegram
		if session.notifier == nil {
			session.notifier = telegram
		}
	}

	if session.watcher != nil && session.notifier != nil {
		session.watcher.AddNotifier(session.notifier)
	}
	return nil
}

// AddIndicator creates and registers one indicator after the selection
// policy approves it, returning the fresh instance id
//
// The policy lives here on purpose: the registry below accepts any mix of
// indicators, only this control boundary restricts the offer.
func (s *Session) AddIndicator(kind core.IndicatorKind, params core.Parameters, name string) (string, error) {
	if err := s.policy(kind, s.registry.Status()); err != nil {
		return "", err
	}

	instance, err := s.registry.Add(core.IndicatorConfig{
		Kind:       kind,
		Name:       name,
		Parameters: params,
	})
	if err != nil {
		return "", err
	}
	return instance.ID(), nil
}

// RemoveIndicator destroys one indicator; its pane stays realized
func (s *Session) RemoveIndicator(id string) error {
	return s.registry.Remove(id)
}

// SetIndicatorVisibility shows or hides one indicator
func (s *Session) SetIndicatorVisibility(id string, visible bool) error {
	return s.registry.SetVisibility(id, visible)
}

// UpdateIndicator edits an indicator's parameters in place; the indicator
// keeps its pane
func (s *Session) UpdateIndicator(id string, params core.Parameters) error {
	return s.registry.UpdateParameters(id, params)
}

// LoadIndicatorSet restores a whole indicator set in one batch
//
// Additions run sequentially through the selection policy; rejected or
// invalid entries are logged and skipped so one bad config does not sink
// the rest of the set. A single refresh event is published after the batch
// so downstream consumers redraw once.
func (s *Session) LoadIndicatorSet(configs []core.IndicatorConfig) []string {
	ids := make([]string, 0, len(configs))
	for _, config := range configs {
		id, err := s.AddIndicator(config.Kind, config.Parameters, config.Name)
		if err != nil {
			s.log.Warnf("chartdeck: skipping %s in batch load: %v", config.Kind, err)
			continue
		}
		if config.Hidden {
			if err := s.registry.SetVisibility(id, false); err != nil {
				s.log.Warnf("chartdeck: hide %s: %v", config.Kind, err)
			}
		}
		ids = append(ids, id)
	}

	s.refreshFeed.Publish(chart.RefreshEvent{
		Pair:       s.settings.Pair,
		Timeframe:  s.settings.Timeframe,
		Indicators: ids,
		At:         time.Now(),
	})

	return ids
}

// Registry exposes the indicator registry for read access
func (s *Session) Registry() *chart.Registry {
	return s.registry
}

// RefreshFeed exposes the batch refresh feed for external subscribers
func (s *Session) RefreshFeed() *chart.RefreshFeed {
	return s.refreshFeed
}

// Pair returns the pair this session charts
func (s *Session) Pair() string { return s.settings.Pair }

// Timeframe returns the candle timeframe of the session
func (s *Session) Timeframe() string { return s.settings.Timeframe }

// LastCandle returns the most recent candle seen by the session
func (s *Session) LastCandle() core.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCandle
}

// Indicators snapshots the registered indicators in insertion order
func (s *Session) Indicators() []chart.InstanceStatus {
	return s.registry.Status()
}

// onCandle folds one candle into the history and drives a full update step:
// registry recompute, surface price update and alert evaluation all happen
// synchronously before the next candle is taken
func (s *Session) onCandle(candle core.Candle) {
	s.mu.Lock()
	if n := len(s.candles); n > 0 && !candle.Time.After(s.candles[n-1].Time) {
		if candle.Time.Equal(s.candles[n-1].Time) {
			s.candles[n-1] = candle
		} else {
			s.log.Warnf("chartdeck: dropping out-of-order candle at %s", candle.Time)
			s.mu.Unlock()
			return
		}
	} else {
		s.candles = append(s.candles, candle)
	}
	s.lastCandle = candle
	history := make([]core.Candle, len(s.candles))
	copy(history, s.candles)
	s.mu.Unlock()

	s.registry.UpdateData(history)

	if s.surface != nil {
		s.surface.OnCandle(candle)
	}

	if s.watcher != nil && candle.Complete {
		s.watcher.Evaluate(s.settings.Pair, candle.Time, s.registry.Status())
	}
}

// preload fetches the warmup history so indicators have values before the
// first live candle arrives
func (s *Session) preload(ctx context.Context) error {
	if s.replay {
		return nil // replay feeds deliver their full history through the stream
	}

	candles, err := s.feeder.CandlesByLimit(ctx, s.settings.Pair, s.settings.Timeframe, s.settings.Preload)
	if err != nil {
		return fmt.Errorf("chartdeck: preload: %w", err)
	}

	s.mu.Lock()
	s.candles = candles
	if len(candles) > 0 {
		s.lastCandle = candles[len(candles)-1]
	}
	s.mu.Unlock()

	if s.surface != nil {
		s.surface.SetCandles(candles)
	}
	s.registry.UpdateData(candles)

	return nil
}

// Run preloads history, starts the notification and refresh plumbing and
// consumes the candle stream
//
// In live mode Run blocks until the context is cancelled. In replay mode it
// returns once the feed is exhausted.
func (s *Session) Run(ctx context.Context) error {
	s.refreshFeed.Start()
	s.dataFeed.Subscribe(s.settings.Pair, s.settings.Timeframe, s.onCandle, false)

	if err := s.preload(ctx); err != nil {
		return err
	}

	if s.telegram != nil {
		s.telegram.Start()
	}

	s.dataFeed.Start(ctx, s.replay)

	if s.replay {
		return nil
	}

	<-ctx.Done()
	return nil
}

// Replay drives the session through a finite feed (typically a CSV feed)
// with a progress bar, then prints the session summary
func (s *Session) Replay(ctx context.Context) error {
	s.replay = true

	horizon := time.Now().AddDate(100, 0, 0)
	total, err := s.feeder.CandlesByPeriod(ctx, s.settings.Pair, s.settings.Timeframe, time.Time{}, horizon)
	if err != nil {
		return fmt.Errorf("chartdeck: replay: %w", err)
	}

	progressBar := progressbar.Default(int64(len(total)), "replaying "+s.settings.Pair)
	s.dataFeed.Subscribe(s.settings.Pair, s.settings.Timeframe, func(core.Candle) {
		if err := progressBar.Add(1); err != nil {
			s.log.Warnf("update progressbar fail: %v", err)
		}
	}, false)

	if err := s.Run(ctx); err != nil {
		return err
	}

	_ = progressBar.Finish()
	fmt.Println()
	s.Summary(os.Stdout)
	return nil
}

// Close tears the session down: every indicator instance is destroyed and
// the refresh feed stops delivering
func (s *Session) Close() {
	s.registry.Close()
	s.refreshFeed.Stop()
}
