package strategy

import (
	"fmt"
	"log"
	"sort"

	"github.com/guregu/null/v5"

	"StockScreener/internal/calculator"
	"StockScreener/internal/model"
)

// Engine derives indicator rows and signals from a single ticker's series.
type Engine struct {
	cfg       Config
	smoothing calculator.Smoothing
}

// NewEngine creates an Engine after validating cfg.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("strategy config: %w", err)
	}
	sm, _ := calculator.ParseSmoothing(cfg.RSISmoothing)
	return &Engine{cfg: cfg, smoothing: sm}, nil
}

// Config returns the parameters the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Evaluate computes every derived field for one ticker's ascending series.
// Short series never fail; they leave fields unavailable.
func (e *Engine) Evaluate(series model.PriceSeries) []model.IndicatorRow {
	bars := series.Bars
	rows := make([]model.IndicatorRow, len(bars))
	if len(bars) == 0 {
		return rows
	}
	closes := series.Closes()

	// Windows and periods were validated in NewEngine.
	maShort, _ := calculator.SMASeries(closes, e.cfg.MAShortWindow)
	maLong, _ := calculator.SMASeries(closes, e.cfg.MALongWindow)
	rsi, _ := calculator.RSISeries(closes, e.cfg.RSIPeriod, e.smoothing)
	dm, _ := calculator.DirectionalMovement(bars, e.cfg.ADXPeriod)

	for i, b := range bars {
		row := model.IndicatorRow{
			Symbol:  series.Symbol,
			OHLCV:   b,
			MAShort: maShort[i],
			MALong:  maLong[i],
			RSI:     rsi[i],
			RSIZone: calculator.ClassifyRSI(rsi[i], e.cfg.RSIBuyThreshold, e.cfg.RSISellThreshold),
			PlusDI:  dm.PlusDI[i],
			MinusDI: dm.MinusDI[i],
			ADX:     dm.ADX[i],
		}
		row.BuySignal, row.SellSignal = e.Signals(row)
		rows[i] = row
	}
	return rows
}

// EvaluateBatch partitions a mixed multi-ticker batch by symbol and evaluates
// each partition on its own, so rolling windows never cross a ticker boundary.
func (e *Engine) EvaluateBatch(bars []model.TickerBar) map[string][]model.IndicatorRow {
	partitions := make(map[string][]model.OHLCV)
	for _, b := range bars {
		partitions[b.Symbol] = append(partitions[b.Symbol], b.OHLCV)
	}
	out := make(map[string][]model.IndicatorRow, len(partitions))
	for symbol, part := range partitions {
		sort.SliceStable(part, func(i, j int) bool { return part[i].Time.Before(part[j].Time) })
		out[symbol] = e.Evaluate(model.PriceSeries{Symbol: symbol, Bars: part})
	}
	if len(partitions) > 1 {
		log.Printf("[INFO] strategy: evaluated batch of %d bars across %d tickers", len(bars), len(partitions))
	}
	return out
}

// Signals applies the conjunctive rules to one row:
//
//	buy:  MAShort > MALong && RSI < buy threshold  && ADX > trend threshold
//	sell: MAShort < MALong && RSI > sell threshold && ADX > trend threshold
//
// Both are false unless every operand is available.
func (e *Engine) Signals(row model.IndicatorRow) (buy, sell bool) {
	if !allValid(row.MAShort, row.MALong, row.RSI, row.ADX) {
		return false, false
	}
	trending := row.ADX.Float64 > e.cfg.ADXTrendThreshold
	buy = row.MAShort.Float64 > row.MALong.Float64 && row.RSI.Float64 < e.cfg.RSIBuyThreshold && trending
	sell = row.MAShort.Float64 < row.MALong.Float64 && row.RSI.Float64 > e.cfg.RSISellThreshold && trending
	return buy, sell
}

func allValid(values ...null.Float) bool {
	for _, v := range values {
		if !v.Valid {
			return false
		}
	}
	return true
}
