package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/guregu/null/v5"

	"StockScreener/internal/model"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func barsFromCloses(closes []float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   day0.AddDate(0, 0, i),
			Open:   c * 0.995,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func wave(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 0.3*float64(i) + 8*math.Sin(float64(i)/6)
	}
	return closes
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func TestEvaluate_RowsAlignWithBars(t *testing.T) {
	e := newTestEngine(t)
	bars := barsFromCloses(wave(120))
	rows := e.Evaluate(model.PriceSeries{Symbol: "AAPL", Bars: bars})
	if len(rows) != len(bars) {
		t.Fatalf("expected %d rows, got %d", len(bars), len(rows))
	}
	for i, r := range rows {
		if r.Symbol != "AAPL" || !r.Time.Equal(bars[i].Time) {
			t.Fatalf("row %d not aligned with bar", i)
		}
		if i < 19 && r.MAShort.Valid {
			t.Errorf("row %d: MA20 should be unavailable", i)
		}
		if i < 49 && r.MALong.Valid {
			t.Errorf("row %d: MA50 should be unavailable", i)
		}
		if i >= 49 && !(r.MAShort.Valid && r.MALong.Valid && r.RSI.Valid && r.ADX.Valid) {
			t.Errorf("row %d: expected all indicators populated", i)
		}
	}
}

func TestEvaluate_NoSignalDuringWarmup(t *testing.T) {
	e := newTestEngine(t)
	rows := e.Evaluate(model.PriceSeries{Symbol: "X", Bars: barsFromCloses(wave(120))})
	for i := 0; i < 49; i++ {
		if rows[i].HasSignal() {
			t.Errorf("row %d: signal emitted before MA50 is available", i)
		}
	}
}

func TestEvaluate_BuyAndSellNeverBoth(t *testing.T) {
	e := newTestEngine(t)
	rows := e.Evaluate(model.PriceSeries{Symbol: "X", Bars: barsFromCloses(wave(400))})
	for i, r := range rows {
		if r.BuySignal && r.SellSignal {
			t.Fatalf("row %d has both buy and sell", i)
		}
	}
}

func TestEvaluate_ShortSeriesDoesNotFail(t *testing.T) {
	e := newTestEngine(t)
	for _, n := range []int{0, 1, 10, 49} {
		rows := e.Evaluate(model.PriceSeries{Symbol: "X", Bars: barsFromCloses(wave(n))})
		if len(rows) != n {
			t.Fatalf("n=%d: expected %d rows, got %d", n, n, len(rows))
		}
		for i, r := range rows {
			if r.MALong.Valid || r.HasSignal() {
				t.Errorf("n=%d row %d: expected unpopulated MA50 and no signal", n, i)
			}
		}
	}
}

func TestSignals_Rules(t *testing.T) {
	e := newTestEngine(t)
	f := null.FloatFrom
	tests := []struct {
		name      string
		row       model.IndicatorRow
		buy, sell bool
	}{
		{"buy", model.IndicatorRow{MAShort: f(105), MALong: f(100), RSI: f(25), ADX: f(30)}, true, false},
		{"sell", model.IndicatorRow{MAShort: f(95), MALong: f(100), RSI: f(75), ADX: f(30)}, false, true},
		{"weak trend", model.IndicatorRow{MAShort: f(105), MALong: f(100), RSI: f(25), ADX: f(25)}, false, false},
		{"rsi neutral", model.IndicatorRow{MAShort: f(105), MALong: f(100), RSI: f(50), ADX: f(40)}, false, false},
		{"ma equal", model.IndicatorRow{MAShort: f(100), MALong: f(100), RSI: f(20), ADX: f(40)}, false, false},
		{"ma unavailable", model.IndicatorRow{MAShort: f(105), RSI: f(25), ADX: f(30)}, false, false},
		{"adx unavailable", model.IndicatorRow{MAShort: f(95), MALong: f(100), RSI: f(75)}, false, false},
		{"zero values are real", model.IndicatorRow{MAShort: f(0), MALong: f(1), RSI: f(90), ADX: f(50)}, false, true},
	}
	for _, tt := range tests {
		buy, sell := e.Signals(tt.row)
		if buy != tt.buy || sell != tt.sell {
			t.Errorf("%s: expected buy=%v sell=%v, got buy=%v sell=%v", tt.name, tt.buy, tt.sell, buy, sell)
		}
	}
}

func TestSignals_CustomThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RSIBuyThreshold = 40
	cfg.ADXTrendThreshold = 10
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatal(err)
	}
	row := model.IndicatorRow{MAShort: null.FloatFrom(2), MALong: null.FloatFrom(1), RSI: null.FloatFrom(35), ADX: null.FloatFrom(15)}
	if buy, _ := e.Signals(row); !buy {
		t.Error("expected buy with relaxed thresholds")
	}
}

func TestEvaluateBatch_PartitionsByTicker(t *testing.T) {
	e := newTestEngine(t)
	a := barsFromCloses(wave(80))
	b := barsFromCloses(make([]float64, 30))
	for i := range b {
		b[i].Close, b[i].High, b[i].Low = 10, 10.5, 9.5
	}

	var batch []model.TickerBar
	for _, bar := range a {
		batch = append(batch, model.TickerBar{Symbol: "AAA", OHLCV: bar})
	}
	// Reverse order for BBB to check per-partition sorting.
	for i := len(b) - 1; i >= 0; i-- {
		batch = append(batch, model.TickerBar{Symbol: "BBB", OHLCV: b[i]})
	}

	out := e.EvaluateBatch(batch)
	if len(out) != 2 {
		t.Fatalf("expected 2 partitions, got %d", len(out))
	}

	solo := e.Evaluate(model.PriceSeries{Symbol: "AAA", Bars: a})
	for i := range solo {
		if out["AAA"][i].MAShort != solo[i].MAShort || out["AAA"][i].ADX != solo[i].ADX {
			t.Fatalf("AAA row %d differs from standalone evaluation", i)
		}
	}

	bbb := out["BBB"]
	if len(bbb) != 30 {
		t.Fatalf("expected 30 BBB rows, got %d", len(bbb))
	}
	for i := 1; i < len(bbb); i++ {
		if !bbb[i].Time.After(bbb[i-1].Time) {
			t.Fatalf("BBB rows not ascending at %d", i)
		}
	}
	// The first BBB MA20 must only see BBB closes.
	if ma := bbb[19].MAShort; !ma.Valid || math.Abs(ma.Float64-10) > 1e-9 {
		t.Errorf("BBB MA20 leaked across tickers: %+v", ma)
	}
	if bbb[18].MAShort.Valid {
		t.Error("BBB MA20 should reset at the ticker boundary")
	}
}

func TestNewEngine_RejectsBadConfig(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.MAShortWindow = 60 },
		func(c *Config) { c.RSIPeriod = 0 },
		func(c *Config) { c.RSISmoothing = "ema" },
		func(c *Config) { c.RSIBuyThreshold = 80 },
		func(c *Config) { c.TradingDaysPerYear = 0 },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		if _, err := NewEngine(cfg); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestRequiredHistory(t *testing.T) {
	if got := DefaultConfig().RequiredHistory(); got != 50 {
		t.Errorf("expected 50, got %d", got)
	}
	cfg := DefaultConfig()
	cfg.ADXPeriod = 30
	if got := cfg.RequiredHistory(); got != 60 {
		t.Errorf("expected 60, got %d", got)
	}
}
