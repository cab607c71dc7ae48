package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/raykavin/chartdeck/core"
	"github.com/raykavin/chartdeck/logger"

	"github.com/adshao/go-binance/v2"
)

// Spot streams and fetches spot market candles from Binance
type Spot struct {
	ctx        context.Context
	client     *binance.Client
	heikinAshi bool
	log        logger.Logger
}

// SpotOption is a function that configures a Spot client
type SpotOption func(*Spot)

// WithCredentials sets the API credentials for the Spot client
// Public market data works without them
func WithCredentials(key, secret string) SpotOption {
	return func(s *Spot) {
		s.client = binance.NewClient(key, secret)
	}
}

// WithHeikinAshiCandles enables Heikin Ashi candle conversion
func WithHeikinAshiCandles() SpotOption {
	return func(s *Spot) {
		s.heikinAshi = true
	}
}

// WithTestNet enables the Binance testnet
func WithTestNet() SpotOption {
	return func(_ *Spot) {
		binance.UseTestnet = true
	}
}

// NewSpot creates a new Binance spot market data client
func NewSpot(ctx context.Context, log logger.Logger, options ...SpotOption) (*Spot, error) {
	binance.WebsocketKeepalive = true

	spot := &Spot{
		ctx:    ctx,
		client: binance.NewClient("", ""),
		log:    log,
	}

	// Apply options
	for _, option := range options {
		option(spot)
	}

	// Test connection
	err := spot.client.NewPingService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance ping fail: %w", err)
	}

	log.Info("Using Binance Spot market data")
	return spot, nil
}

// LastQuote gets the latest price for a pair
func (s *Spot) LastQuote(ctx context.Context, pair string) (float64, error) {
	candles, err := s.CandlesByLimit(ctx, pair, "1m", 1)
	if err != nil || len(candles) < 1 {
		return 0, err
	}
	return candles[0].Close, nil
}

// CandlesSubscription subscribes to candle updates for a pair
// The stream reconnects with backoff until the context is cancelled
func (s *Spot) CandlesSubscription(ctx context.Context, pair, period string) (chan core.Candle, chan error) {
	candleChan := make(chan core.Candle)
	errChan := make(chan error)
	heikinAshi := core.NewHeikinAshi()
	retry := setupBackoffRetry()

	go func() {
		for {
			done, _, err := binance.WsKlineServe(pair, period, func(event *binance.WsKlineEvent) {
				retry.Reset()
				candle := convertWsKlineToCandle(pair, event.Kline)

				if candle.Complete && s.heikinAshi {
					candle = candle.ToHeikinAshi(heikinAshi)
				}

				candleChan <- candle

			}, func(err error) {
				errChan <- err
			})

			if err != nil {
				errChan <- err
				close(errChan)
				close(candleChan)
				return
			}

			select {
			case <-ctx.Done():
				close(errChan)
				close(candleChan)
				return
			case <-done:
				time.Sleep(retry.Duration())
			}
		}
	}()

	return candleChan, errChan
}

// CandlesByLimit gets a number of candles for a pair
func (s *Spot) CandlesByLimit(ctx context.Context, pair, period string, limit int) ([]core.Candle, error) {
	klineService := s.client.NewKlinesService()
	heikinAshi := core.NewHeikinAshi()

	data, err := klineService.Symbol(pair).
		Interval(period).
		Limit(limit + 1). // +1 to discard the last incomplete candle
		Do(ctx)

	if err != nil {
		return nil, err
	}

	candles := make([]core.Candle, 0, len(data)-1)
	for i, d := range data {
		// Skip the last candle as it's incomplete
		if i == len(data)-1 {
			break
		}

		candle := convertKlineToCandle(pair, *d)

		if s.heikinAshi {
			candle = candle.ToHeikinAshi(heikinAshi)
		}

		candles = append(candles, candle)
	}

	return candles, nil
}

// CandlesByPeriod gets candles for a pair within a time range
func (s *Spot) CandlesByPeriod(ctx context.Context, pair, period string,
	start, end time.Time) ([]core.Candle, error) {

	klineService := s.client.NewKlinesService()
	heikinAshi := core.NewHeikinAshi()

	data, err := klineService.Symbol(pair).
		Interval(period).
		StartTime(start.UnixNano() / int64(time.Millisecond)).
		EndTime(end.UnixNano() / int64(time.Millisecond)).
		Do(ctx)

	if err != nil {
		return nil, err
	}

	candles := make([]core.Candle, 0, len(data))
	for _, d := range data {
		candle := convertKlineToCandle(pair, *d)

		if s.heikinAshi {
			candle = candle.ToHeikinAshi(heikinAshi)
		}

		candles = append(candles, candle)
	}

	return candles, nil
}
