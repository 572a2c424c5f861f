package calculator

import (
	"errors"
	"math"

	"StockScreener/internal/model"
)

const (
	TradingDays52Week = 252
	TradingDays30Day  = 22
)

// CalculateRange scans the most recent `lookback` bars and returns the high and low.
func CalculateRange(bars []model.OHLCV, lookback int) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	if lookback <= 0 {
		return 0, 0, errors.New("lookback must be positive")
	}
	start := max(len(bars)-lookback, 0)
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars[start:] {
		high = math.Max(high, b.High)
		low = math.Min(low, b.Low)
	}
	return high, low, nil
}

// CalculatePosition returns where the price sits within [low, high] (0.0~1.0).
func CalculatePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	return math.Min(math.Max(pos, 0), 1), nil
}

// CalculatePriceRange builds the 52-week/30-day extremes of a series.
func CalculatePriceRange(bars []model.OHLCV) (model.PriceRange, error) {
	var pr model.PriceRange
	var err error
	if pr.High52w, pr.Low52w, err = CalculateRange(bars, TradingDays52Week); err != nil {
		return pr, err
	}
	if pr.High30d, pr.Low30d, err = CalculateRange(bars, TradingDays30Day); err != nil {
		return pr, err
	}
	pr.Position52w, err = CalculatePosition(bars[len(bars)-1].Close, pr.High52w, pr.Low52w)
	return pr, err
}
