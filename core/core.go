package core

import (
	"context"
	"time"
)

// Feeder provides candle history and live candle streams for a pair
type Feeder interface {
	LastQuote(ctx context.Context, pair string) (float64, error)
	CandlesByPeriod(ctx context.Context, pair, period string, start, end time.Time) ([]Candle, error)
	CandlesByLimit(ctx context.Context, pair, period string, limit int) ([]Candle, error)
	CandlesSubscription(ctx context.Context, pair, timeframe string) (chan Candle, chan error)
}

type Notifier interface {
	Notify(string)
	OnError(err error)
}

type NotifierWithStart interface {
	Notifier
	Start()
}
