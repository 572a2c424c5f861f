package collector

import (
	"context"
	"time"

	"StockScreener/internal/model"
)

// Fetcher retrieves daily OHLCV bars for one symbol.
// The date range is inclusive on both ends; bars are returned ascending.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	Name() string
}

// ConstituentSource retrieves the table of selectable tickers.
type ConstituentSource interface {
	FetchConstituents(ctx context.Context) ([]model.Constituent, error)
}
