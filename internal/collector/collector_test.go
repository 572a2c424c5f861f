package collector

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"StockScreener/internal/model"
	"StockScreener/internal/strategy"
)

var testNow = time.Date(2024, 6, 28, 15, 0, 0, 0, time.UTC)

func newTestCollector(t *testing.T, f Fetcher) *Collector {
	t.Helper()
	engine, err := strategy.NewEngine(strategy.DefaultConfig())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	c := NewCollector(f, StaticConstituents{
		{Symbol: "AAPL", Security: "Apple Inc.", Sector: "Information Technology"},
	}, engine, nil)
	c.Now = func() time.Time { return testNow }
	return c
}

func TestAnalyze_FullYear(t *testing.T) {
	c := newTestCollector(t, &MockFetcher{Price: 190})
	a, err := c.Analyze(context.Background(), c.DefaultRequest("aapl"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Symbol != "AAPL" || a.Security != "Apple Inc." || a.Sector != "Information Technology" {
		t.Errorf("constituent not joined: %+v", a)
	}
	if a.RunID == "" {
		t.Error("expected a run id")
	}
	if a.Source != "mock" {
		t.Errorf("source = %q", a.Source)
	}
	if len(a.Rows) < 250 {
		t.Fatalf("expected about a year of rows, got %d", len(a.Rows))
	}
	if len(a.Warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", a.Warnings)
	}
	if !a.Metrics.SharpeRatio.Valid {
		t.Error("expected a valid sharpe ratio")
	}
	if a.Metrics.MaxDrawdownPct > 0 {
		t.Errorf("drawdown must be <= 0, got %f", a.Metrics.MaxDrawdownPct)
	}
	if a.Assessment.Sharpe == "" || a.Assessment.Drawdown == "" {
		t.Errorf("missing assessment: %+v", a.Assessment)
	}
	if a.Params.MAShortWindow != 20 || a.Params.MALongWindow != 50 || a.Params.RSISmoothing != "simple" || a.Params.ADXPeriod != 14 {
		t.Errorf("params not recorded: %+v", a.Params)
	}
	last, _ := a.Latest()
	if !last.MAShort.Valid || !last.MALong.Valid || !last.RSI.Valid || !last.ADX.Valid {
		t.Errorf("latest row should be fully populated: %+v", last)
	}
}

func TestAnalyze_InsufficientHistoryWarns(t *testing.T) {
	c := newTestCollector(t, &MockFetcher{Price: 50})
	req := Request{Symbol: "XYZ", Start: testNow.AddDate(0, 0, -30), End: testNow}
	a, err := c.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Warnings) == 0 || a.Warnings[0].Code != model.WarnInsufficientHistory {
		t.Fatalf("expected insufficient history warning, got %+v", a.Warnings)
	}
	for _, r := range a.Rows {
		if r.MALong.Valid || r.HasSignal() {
			t.Fatalf("short series must not produce MA50 or signals: %+v", r)
		}
	}
	if a.Security != "" {
		t.Errorf("unknown symbol should not be joined, got %q", a.Security)
	}
}

func TestAnalyze_FlatSeriesIsDegenerate(t *testing.T) {
	var bars []model.OHLCV
	for d := testNow.AddDate(0, 0, -120); !d.After(testNow); d = d.AddDate(0, 0, 1) {
		bars = append(bars, model.OHLCV{Time: dayOf(d), Open: 10, High: 10, Low: 10, Close: 10, Volume: 1})
	}
	c := newTestCollector(t, &MockFetcher{DailyData: map[string][]model.OHLCV{"FLAT": bars}})
	a, err := c.Analyze(context.Background(), Request{Symbol: "FLAT", Start: testNow.AddDate(0, 0, -120), End: testNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Metrics.SharpeRatio.Valid {
		t.Error("flat series sharpe must be invalid")
	}
	if a.Metrics.MaxDrawdownPct != 0 || a.Metrics.TotalReturnPct != 0 {
		t.Errorf("flat series metrics = %+v", a.Metrics)
	}
	found := false
	for _, w := range a.Warnings {
		if w.Code == model.WarnDegenerateStatistic {
			found = true
			if !strings.Contains(w.Message, "no variance") {
				t.Errorf("unexpected degenerate message %q", w.Message)
			}
		}
	}
	if !found {
		t.Errorf("expected degenerate statistic warning, got %+v", a.Warnings)
	}
}

func TestAnalyze_SingleBarReportsTooFewReturns(t *testing.T) {
	bars := []model.OHLCV{{Time: dayOf(testNow), Open: 10, High: 11, Low: 9, Close: 10, Volume: 1}}
	c := newTestCollector(t, &MockFetcher{DailyData: map[string][]model.OHLCV{"ONE": bars}})
	a, err := c.Analyze(context.Background(), Request{Symbol: "ONE", Start: testNow.AddDate(0, 0, -5), End: testNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, w := range a.Warnings {
		if w.Code == model.WarnDegenerateStatistic {
			if !strings.Contains(w.Message, "fewer than two") {
				t.Errorf("unexpected degenerate message %q", w.Message)
			}
			return
		}
	}
	t.Errorf("expected degenerate statistic warning, got %+v", a.Warnings)
}

func seriesWithCloses(closes ...float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		d := testNow.AddDate(0, 0, i-len(closes)+1)
		bars[i] = model.OHLCV{Time: dayOf(d), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return bars
}

func TestFetch_RejectsInvalidCloses(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
	}{
		{"zero close", []float64{10, 11, 0, 12, 13}},
		{"negative close", []float64{10, -1, 12}},
		{"nan close", []float64{10, math.NaN(), 12}},
		{"infinite close", []float64{10, 11, math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &MockFetcher{DailyData: map[string][]model.OHLCV{"BAD": seriesWithCloses(tt.closes...)}}
			c := newTestCollector(t, f)
			a, err := c.Analyze(context.Background(), Request{Symbol: "BAD", Start: testNow.AddDate(0, 0, -10), End: testNow})
			if !errors.Is(err, model.ErrFetchFailure) {
				t.Fatalf("err = %v, want %v", err, model.ErrFetchFailure)
			}
			if !strings.Contains(err.Error(), "invalid close") {
				t.Errorf("error should name the bad close: %v", err)
			}
			if a != nil {
				t.Error("expected nil analysis on error")
			}
		})
	}
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *MockFetcher
		req     Request
		want    error
	}{
		{
			name:    "bad symbol",
			fetcher: &MockFetcher{Price: 10},
			req:     Request{Symbol: "a b", Start: testNow.AddDate(0, -1, 0), End: testNow},
			want:    model.ErrInvalidRequest,
		},
		{
			name:    "reversed range",
			fetcher: &MockFetcher{Price: 10},
			req:     Request{Symbol: "AAPL", Start: testNow, End: testNow.AddDate(0, -1, 0)},
			want:    model.ErrInvalidRequest,
		},
		{
			name:    "missing dates",
			fetcher: &MockFetcher{Price: 10},
			req:     Request{Symbol: "AAPL"},
			want:    model.ErrInvalidRequest,
		},
		{
			name:    "source down",
			fetcher: &MockFetcher{Err: errors.New("connection refused")},
			req:     Request{Symbol: "AAPL", Start: testNow.AddDate(0, -1, 0), End: testNow},
			want:    model.ErrFetchFailure,
		},
		{
			name:    "no rows",
			fetcher: &MockFetcher{DailyData: map[string][]model.OHLCV{"AAPL": nil}},
			req:     Request{Symbol: "AAPL", Start: testNow.AddDate(0, -1, 0), End: testNow},
			want:    model.ErrEmptySeries,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCollector(t, tt.fetcher)
			a, err := c.Analyze(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if a != nil {
				t.Error("expected nil analysis on error")
			}
		})
	}
}

func TestAnalyze_InvalidRequestDoesNotFetch(t *testing.T) {
	f := &MockFetcher{Price: 10}
	c := newTestCollector(t, f)
	c.Analyze(context.Background(), Request{Symbol: "", Start: testNow, End: testNow})
	if f.Calls != 0 {
		t.Errorf("fetcher called %d times for invalid request", f.Calls)
	}
}

func TestTickers(t *testing.T) {
	c := newTestCollector(t, &MockFetcher{})
	list, err := c.Tickers(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("Tickers() = %v, %v", list, err)
	}

	c.Constituents = nil
	if _, err := c.Tickers(context.Background()); !errors.Is(err, model.ErrFetchFailure) {
		t.Errorf("expected fetch failure without a source, got %v", err)
	}
}
