package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/guregu/null/v5"

	"StockScreener/internal/model"
)

// Smoothing selects how average gain/loss are derived for RSI.
type Smoothing string

const (
	// SmoothingSimple averages the last `period` deltas (rolling mean).
	SmoothingSimple Smoothing = "simple"
	// SmoothingWilder seeds with a simple mean then applies Wilder's recursion.
	SmoothingWilder Smoothing = "wilder"
)

// ParseSmoothing converts a config string to a Smoothing.
func ParseSmoothing(s string) (Smoothing, error) {
	switch Smoothing(strings.ToLower(strings.TrimSpace(s))) {
	case "", SmoothingSimple:
		return SmoothingSimple, nil
	case SmoothingWilder:
		return SmoothingWilder, nil
	default:
		return "", fmt.Errorf("unknown rsi smoothing %q", s)
	}
}

// RSISeries computes RSI for every close. The first valid value is at index
// period; earlier positions are invalid.
func RSISeries(closes []float64, period int, smoothing Smoothing) ([]null.Float, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := make([]null.Float, len(closes))
	if len(closes) <= period {
		return out, nil
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	p := float64(period)
	var sumGain, sumLoss float64
	for i := 1; i <= period; i++ {
		sumGain += gains[i]
		sumLoss += losses[i]
	}
	avgGain, avgLoss := sumGain/p, sumLoss/p
	out[period] = null.FloatFrom(rsiFromAverages(avgGain, avgLoss))

	for i := period + 1; i < len(closes); i++ {
		switch smoothing {
		case SmoothingWilder:
			avgGain = (avgGain*(p-1) + gains[i]) / p
			avgLoss = (avgLoss*(p-1) + losses[i]) / p
		default:
			sumGain += gains[i] - gains[i-period]
			sumLoss += losses[i] - losses[i-period]
			avgGain, avgLoss = sumGain/p, sumLoss/p
		}
		out[i] = null.FloatFrom(rsiFromAverages(avgGain, avgLoss))
	}
	return out, nil
}

// CalculateRSI returns the Wilder RSI of the last bar.
func CalculateRSI(bars []model.OHLCV, period int) (float64, error) {
	if len(bars) <= period {
		return 0, fmt.Errorf("need %d bars for RSI(%d), have %d", period+1, period, len(bars))
	}
	closes := model.PriceSeries{Bars: bars}.Closes()
	out, err := RSISeries(closes, period, SmoothingWilder)
	if err != nil {
		return 0, err
	}
	return out[len(out)-1].Float64, nil
}

// rsiFromAverages maps average gain/loss to [0,100]. A window with no
// movement at all reads as neutral 50.
func rsiFromAverages(avgGain, avgLoss float64) float64 {
	const eps = 1e-12
	if avgLoss <= eps {
		if avgGain <= eps {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// ClassifyRSI buckets an RSI reading. Unavailable readings are Neutral.
func ClassifyRSI(rsi null.Float, buyThreshold, sellThreshold float64) model.RSIZone {
	if !rsi.Valid {
		return model.RSINeutral
	}
	switch {
	case rsi.Float64 < buyThreshold:
		return model.RSIOversold
	case rsi.Float64 > sellThreshold:
		return model.RSIOverbought
	default:
		return model.RSINeutral
	}
}
