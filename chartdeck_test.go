package chartdeck

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/raykavin/chartdeck/alert"
	"github.com/raykavin/chartdeck/chart"
	"github.com/raykavin/chartdeck/core"
	"github.com/raykavin/chartdeck/exchange"

	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testCandles(n int) []core.Candle {
	candles := make([]core.Candle, n)
	price := 100.0
	for i := range candles {
		open := price
		price += float64(i%7) - 3
		candles[i] = core.Candle{
			Pair:     "BTCUSDT",
			Time:     testEpoch.Add(time.Duration(i) * time.Minute),
			Open:     open,
			High:     max(open, price) + 1,
			Low:      min(open, price) - 1,
			Close:    price,
			Volume:   1000,
			Complete: true,
		}
	}
	return candles
}

// stubFeeder serves history through the fetch methods and a separate
// candle slice through the subscription stream
type stubFeeder struct {
	history []core.Candle
	stream  []core.Candle
}

func (f stubFeeder) LastQuote(context.Context, string) (float64, error) {
	return f.history[len(f.history)-1].Close, nil
}

func (f stubFeeder) CandlesByPeriod(_ context.Context, _, _ string, start, end time.Time) ([]core.Candle, error) {
	out := make([]core.Candle, 0, len(f.history)+len(f.stream))
	for _, candle := range append(append([]core.Candle{}, f.history...), f.stream...) {
		if candle.Time.Before(start) || candle.Time.After(end) {
			continue
		}
		out = append(out, candle)
	}
	return out, nil
}

func (f stubFeeder) CandlesByLimit(_ context.Context, _, _ string, limit int) ([]core.Candle, error) {
	if len(f.history) > limit {
		return f.history[len(f.history)-limit:], nil
	}
	return f.history, nil
}

func (f stubFeeder) CandlesSubscription(context.Context, string, string) (chan core.Candle, chan error) {
	ccandle := make(chan core.Candle)
	cerr := make(chan error)
	go func() {
		defer close(ccandle)
		defer close(cerr)
		for _, candle := range f.stream {
			ccandle <- candle
		}
	}()
	return ccandle, cerr
}

// spyNotifier records every notification it receives
type spyNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *spyNotifier) Notify(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
}

func (n *spyNotifier) OnError(error) {}

func (n *spyNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func testSettings() core.Settings {
	return core.Settings{Pair: "BTCUSDT", Timeframe: "1m"}
}

func TestNewSession_Validation(t *testing.T) {
	ctx := context.Background()
	feeder := stubFeeder{history: testCandles(10)}

	_, err := NewSession(ctx, core.Settings{Timeframe: "1m"}, feeder)
	require.ErrorIs(t, err, core.ErrInvalidParameters)

	_, err = NewSession(ctx, core.Settings{Pair: "BTCUSDT", Timeframe: "nope"}, feeder)
	require.Error(t, err)

	session, err := NewSession(ctx, testSettings(), feeder)
	require.NoError(t, err)
	defer session.Close()

	require.Equal(t, "BTCUSDT", session.Pair())
	require.Equal(t, "1m", session.Timeframe())
}

func TestSession_SingleOscillatorPolicy(t *testing.T) {
	session, err := NewSession(context.Background(), testSettings(), stubFeeder{})
	require.NoError(t, err)
	defer session.Close()

	rsiID, err := session.AddIndicator(core.KindRSI, nil, "")
	require.NoError(t, err)

	_, err = session.AddIndicator(core.KindMACD, nil, "")
	require.ErrorIs(t, err, ErrOscillatorActive)

	// overlays are never restricted
	_, err = session.AddIndicator(core.KindSMA, nil, "")
	require.NoError(t, err)
	_, err = session.AddIndicator(core.KindBollinger, nil, "")
	require.NoError(t, err)

	// removing the oscillator frees the slot
	require.NoError(t, session.RemoveIndicator(rsiID))
	_, err = session.AddIndicator(core.KindMACD, nil, "")
	require.NoError(t, err)
}

func TestSession_UnrestrictedPolicy(t *testing.T) {
	session, err := NewSession(context.Background(), testSettings(), stubFeeder{},
		WithSelectionPolicy(UnrestrictedSelection()))
	require.NoError(t, err)
	defer session.Close()

	_, err = session.AddIndicator(core.KindRSI, nil, "")
	require.NoError(t, err)
	_, err = session.AddIndicator(core.KindMACD, nil, "")
	require.NoError(t, err)
	require.Equal(t, 2, session.Registry().Len())
}

func TestSession_PolicyNotEnforcedByRegistry(t *testing.T) {
	session, err := NewSession(context.Background(), testSettings(), stubFeeder{})
	require.NoError(t, err)
	defer session.Close()

	// going through the registry directly bypasses the selection policy:
	// the restriction belongs to the control boundary only
	_, err = session.Registry().Add(core.IndicatorConfig{Kind: core.KindRSI})
	require.NoError(t, err)
	_, err = session.Registry().Add(core.IndicatorConfig{Kind: core.KindMACD})
	require.NoError(t, err)
	require.Equal(t, 2, session.Registry().Len())
}

func TestSession_LoadIndicatorSet_SingleRefresh(t *testing.T) {
	events := make(chan chart.RefreshEvent, 8)

	session, err := NewSession(context.Background(), testSettings(), stubFeeder{},
		WithSurface(chart.NewHeadlessSurface()),
		WithRefreshSubscription(func(event chart.RefreshEvent) { events <- event }))
	require.NoError(t, err)
	defer session.Close()

	session.RefreshFeed().Start()

	// the stochastic entry violates the single-oscillator policy and must
	// be skipped without sinking the batch
	ids := session.LoadIndicatorSet([]core.IndicatorConfig{
		{Kind: core.KindEMA},
		{Kind: core.KindRSI},
		{Kind: core.KindStochastic},
	})
	require.Len(t, ids, 2)

	select {
	case event := <-events:
		require.Equal(t, "BTCUSDT", event.Pair)
		require.Equal(t, "1m", event.Timeframe)
		require.Equal(t, ids, event.Indicators)
	case <-time.After(time.Second):
		t.Fatal("no refresh event after batch load")
	}

	select {
	case <-events:
		t.Fatal("batch load must publish exactly one refresh event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSession_LoadIndicatorSet_HiddenConfig(t *testing.T) {
	session, err := NewSession(context.Background(), testSettings(), stubFeeder{},
		WithSurface(chart.NewHeadlessSurface()))
	require.NoError(t, err)
	defer session.Close()

	ids := session.LoadIndicatorSet([]core.IndicatorConfig{
		{Kind: core.KindEMA, Hidden: true},
	})
	require.Len(t, ids, 1)

	statuses := session.Indicators()
	require.Len(t, statuses, 1)
	require.False(t, statuses[0].Visible)
}

func TestSession_RunLive(t *testing.T) {
	candles := testCandles(60)
	surface := chart.NewHeadlessSurface()

	session, err := NewSession(context.Background(), core.Settings{
		Pair:      "BTCUSDT",
		Timeframe: "1m",
		Preload:   30,
	}, stubFeeder{history: candles[:30], stream: candles[30:]}, WithSurface(surface))
	require.NoError(t, err)
	defer session.Close()

	_, err = session.AddIndicator(core.KindEMA, core.Parameters{core.ParamPeriod: 9}, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- session.Run(ctx)
	}()

	// preload fills the first half, the live stream appends the rest
	require.Eventually(t, func() bool {
		return len(surface.Candles()) == 60
	}, 2*time.Second, 10*time.Millisecond)

	statuses := session.Indicators()
	require.Len(t, statuses, 1)
	require.NotEmpty(t, statuses[0].Last)
	require.Equal(t, candles[59].Close, session.LastCandle().Close)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop on context cancel")
	}
}

func TestSession_ReplayCSV(t *testing.T) {
	feed, err := exchange.NewCSVFeed("1m", exchange.PairFeed{
		Pair:      "BTCUSDT",
		File:      "exchange/testdata/btc-1m.csv",
		Timeframe: "1m",
	})
	require.NoError(t, err)

	surface := chart.NewHeadlessSurface()
	session, err := NewSession(context.Background(), testSettings(), feed,
		WithSurface(surface),
		WithSelectionPolicy(UnrestrictedSelection()))
	require.NoError(t, err)
	defer session.Close()

	_, err = session.AddIndicator(core.KindEMA, nil, "")
	require.NoError(t, err)
	rsiID, err := session.AddIndicator(core.KindRSI, core.Parameters{core.ParamPeriod: 14}, "")
	require.NoError(t, err)

	require.NoError(t, session.Replay(context.Background()))

	require.Len(t, surface.Candles(), 120)

	instance, ok := session.Registry().Get(rsiID)
	require.True(t, ok)
	last := instance.LastValues()
	require.Contains(t, last, "rsi")
	require.GreaterOrEqual(t, last["rsi"], 0.0)
	require.LessOrEqual(t, last["rsi"], 100.0)
}

func TestSession_AlertFansOutToNotifier(t *testing.T) {
	watcher, err := alert.NewWatcher(DefaultLog, alert.Rule{
		Name:      "rsi-any",
		Indicator: core.KindRSI,
		Line:      "rsi",
		Op:        alert.OpAbove,
		Value:     0,
	})
	require.NoError(t, err)

	spy := &spyNotifier{}
	session, err := NewSession(context.Background(), testSettings(),
		stubFeeder{stream: testCandles(40)},
		WithSurface(chart.NewHeadlessSurface()),
		WithAlertWatcher(watcher),
		WithNotifier(spy))
	require.NoError(t, err)
	defer session.Close()

	_, err = session.AddIndicator(core.KindRSI, nil, "")
	require.NoError(t, err)

	session.replay = true // consume the finite stub stream like a replay feed
	require.NoError(t, session.Run(context.Background()))

	require.NotEmpty(t, spy.Messages())
}

func TestSession_UpdateIndicatorKeepsPane(t *testing.T) {
	session, err := NewSession(context.Background(), testSettings(),
		stubFeeder{history: testCandles(40)},
		WithSurface(chart.NewHeadlessSurface()))
	require.NoError(t, err)
	defer session.Close()

	id, err := session.AddIndicator(core.KindRSI, nil, "")
	require.NoError(t, err)

	before := session.Indicators()[0].Pane
	require.NoError(t, session.UpdateIndicator(id, core.Parameters{core.ParamPeriod: 7}))
	require.Equal(t, before, session.Indicators()[0].Pane)
}
