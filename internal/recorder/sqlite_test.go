package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v5"

	"StockScreener/internal/model"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func testAnalysis(runID string, days ...int) *model.Analysis {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	a := &model.Analysis{
		RunID:       runID,
		Symbol:      "AAPL",
		Source:      "mock",
		Start:       base,
		End:         base.AddDate(0, 1, 0),
		GeneratedAt: base.AddDate(0, 1, 0),
		Metrics:     model.MetricsSummary{MaxDrawdownPct: -5, TotalReturnPct: 3},
		Warnings:    []model.Warning{{Code: model.WarnDegenerateStatistic}},
	}
	for i := 0; i < 10; i++ {
		row := model.IndicatorRow{
			Symbol: "AAPL",
			OHLCV:  model.OHLCV{Time: base.AddDate(0, 0, i), Close: 100 + float64(i)},
			RSI:    null.FloatFrom(25),
			ADX:    null.FloatFrom(30),
		}
		for _, d := range days {
			if d == i {
				row.BuySignal = true
			}
		}
		a.Rows = append(a.Rows, row)
	}
	return a
}

func TestSQLiteRecorder_RecordAndQuerySignals(t *testing.T) {
	r := newTestRecorder(t)

	if err := r.RecordAnalysis(testAnalysis("run-1", 2, 7)); err != nil {
		t.Fatalf("record: %v", err)
	}
	// The same bars seen by a later run are not duplicated.
	if err := r.RecordAnalysis(testAnalysis("run-2", 7, 9)); err != nil {
		t.Fatalf("record second run: %v", err)
	}

	events, err := r.RecentSignals(10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 distinct signal events, got %d", len(events))
	}
	if events[0].Date.Day() != 10 || events[0].RunID != "run-2" {
		t.Errorf("newest first expected, got %+v", events[0])
	}
	if events[1].RunID != "run-1" {
		t.Errorf("duplicate bar should keep the first run id, got %q", events[1].RunID)
	}
	if events[0].Kind != model.SignalBuy || events[0].Close != 109 || events[0].RSI != 25 {
		t.Errorf("unexpected event: %+v", events[0])
	}

	limited, err := r.RecentSignals(1)
	if err != nil || len(limited) != 1 {
		t.Errorf("limit not applied: %d, %v", len(limited), err)
	}
}

func TestSQLiteRecorder_NullSharpe(t *testing.T) {
	r := newTestRecorder(t)
	if err := r.RecordAnalysis(testAnalysis("run-null")); err != nil {
		t.Fatalf("record: %v", err)
	}
	var sharpe null.Float
	var warnings string
	row := r.db.QueryRow(`SELECT sharpe_ratio, warnings FROM analysis_runs WHERE run_id = ?`, "run-null")
	if err := row.Scan(&sharpe, &warnings); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if sharpe.Valid {
		t.Errorf("expected NULL sharpe, got %v", sharpe.Float64)
	}
	if warnings != model.WarnDegenerateStatistic {
		t.Errorf("warnings = %q", warnings)
	}
}

func TestSQLiteRecorder_DuplicateRunIDFails(t *testing.T) {
	r := newTestRecorder(t)
	if err := r.RecordAnalysis(testAnalysis("same")); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordAnalysis(testAnalysis("same")); err == nil {
		t.Error("expected unique constraint error for duplicate run id")
	}
}

func TestSQLiteRecorder_RecordScreen(t *testing.T) {
	r := newTestRecorder(t)
	err := r.RecordScreen(&ScreenEvent{Trigger: "CRON", Symbols: 8, Failed: 1, Alerts: 2, Duration: 1500 * time.Millisecond})
	if err != nil {
		t.Fatalf("record screen: %v", err)
	}
	var ms int64
	if err := r.db.QueryRow(`SELECT duration_ms FROM screen_runs`).Scan(&ms); err != nil {
		t.Fatal(err)
	}
	if ms != 1500 {
		t.Errorf("duration_ms = %d", ms)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	if err := r.RecordAnalysis(testAnalysis("x", 1)); err != nil {
		t.Error(err)
	}
	if events, err := r.RecentSignals(5); err != nil || events != nil {
		t.Errorf("noop should return nothing: %v %v", events, err)
	}
}
