package model

import "github.com/guregu/null/v5"

// RSIZone is the momentum classification of an RSI reading.
type RSIZone string

const (
	RSIOversold   RSIZone = "Oversold"
	RSINeutral    RSIZone = "Neutral"
	RSIOverbought RSIZone = "Overbought"
)

// IndicatorRow is a bar extended with its derived indicators.
// Invalid null.Float values mean "not yet available" (not enough history).
type IndicatorRow struct {
	Symbol string `json:"symbol"`
	OHLCV

	MAShort    null.Float `json:"ma_short"`
	MALong     null.Float `json:"ma_long"`
	RSI        null.Float `json:"rsi"`
	RSIZone    RSIZone    `json:"rsi_zone"`
	PlusDI     null.Float `json:"plus_di"`
	MinusDI    null.Float `json:"minus_di"`
	ADX        null.Float `json:"adx"`
	BuySignal  bool       `json:"buy_signal"`
	SellSignal bool       `json:"sell_signal"`
}

// HasSignal reports whether the row carries a buy or sell signal.
func (r IndicatorRow) HasSignal() bool {
	return r.BuySignal || r.SellSignal
}

// SignalKind returns "BUY", "SELL" or "" for the row.
func (r IndicatorRow) SignalKind() string {
	switch {
	case r.BuySignal:
		return SignalBuy
	case r.SellSignal:
		return SignalSell
	default:
		return ""
	}
}

const (
	SignalBuy  = "BUY"
	SignalSell = "SELL"
)

// PriceRange holds the high/low extremes of the series.
type PriceRange struct {
	High52w     float64 `json:"high_52w"`
	Low52w      float64 `json:"low_52w"`
	High30d     float64 `json:"high_30d"`
	Low30d      float64 `json:"low_30d"`
	Position52w float64 `json:"position_52w"` // 0.0 ~ 1.0
}
