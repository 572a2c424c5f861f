package calculator

import (
	"errors"
	"math"
	"strings"
	"testing"

	"StockScreener/internal/model"
)

// pullbackSeries rises 1% a day to a peak, then falls to exactly 80% of it,
// then recovers partially.
func pullbackSeries() (closes []float64, peak, trough int) {
	p := 100.0
	closes = append(closes, 100, 102, 101, 105, 103, 108, 110, 107, 109, 112)
	p = 112
	for i := 0; i < 40; i++ {
		p *= 1.01
		closes = append(closes, p)
	}
	peak = len(closes) - 1
	top := p
	for i := 1; i <= 10; i++ {
		closes = append(closes, top*(1-0.02*float64(i)))
	}
	trough = len(closes) - 1
	for i := 0; i < 10; i++ {
		p = closes[len(closes)-1] * 1.005
		closes = append(closes, p)
	}
	return closes, peak, trough
}

func TestCalculateMetrics_Pullback(t *testing.T) {
	closes, _, _ := pullbackSeries()
	m, err := CalculateMetrics(closes, 0.04, 252)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(m.MaxDrawdownPct-(-20)) > 1e-6 {
		t.Errorf("expected max drawdown -20%%, got %.4f", m.MaxDrawdownPct)
	}
	if m.TotalReturnPct <= 0 {
		t.Errorf("expected positive total return, got %.4f", m.TotalReturnPct)
	}
	if !m.SharpeRatio.Valid {
		t.Error("expected a valid Sharpe ratio")
	}
	if m.Observations != len(closes)-1 {
		t.Errorf("expected %d observations, got %d", len(closes)-1, m.Observations)
	}
}

func TestCalculateMetrics_TotalReturnMatchesCumulative(t *testing.T) {
	closes, _, _ := pullbackSeries()
	m, _ := CalculateMetrics(closes, 0.04, 252)
	last := m.CumulativeReturns[len(m.CumulativeReturns)-1]
	if math.Abs(m.TotalReturnPct-100*last) > 1e-9 {
		t.Errorf("total return %.6f != 100*cumulative %.6f", m.TotalReturnPct, 100*last)
	}
	direct := (closes[len(closes)-1]/closes[0] - 1) * 100
	if math.Abs(m.TotalReturnPct-direct) > 1e-6 {
		t.Errorf("total return %.6f != first-to-last %.6f", m.TotalReturnPct, direct)
	}
}

func TestCalculateMetrics_FlatSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 42
	}
	m, err := CalculateMetrics(closes, 0.04, 252)
	if !errors.Is(err, model.ErrDegenerateStatistic) {
		t.Fatalf("expected ErrDegenerateStatistic, got %v", err)
	}
	if m.SharpeRatio.Valid {
		t.Errorf("expected undefined Sharpe, got %.4f", m.SharpeRatio.Float64)
	}
	if m.MaxDrawdownPct != 0 {
		t.Errorf("expected zero drawdown, got %.4f", m.MaxDrawdownPct)
	}
	if m.TotalReturnPct != 0 {
		t.Errorf("expected zero total return, got %.4f", m.TotalReturnPct)
	}
	for i, r := range DailyReturns(closes) {
		if r != 0 {
			t.Fatalf("expected zero return at %d, got %v", i, r)
		}
	}
}

func TestCalculateMetrics_NonDecreasingHasNoDrawdown(t *testing.T) {
	closes := []float64{10, 10, 11, 12, 12, 13, 15, 15, 18}
	m, _ := CalculateMetrics(closes, 0.04, 252)
	if m.MaxDrawdownPct != 0 {
		t.Errorf("expected zero drawdown, got %.4f", m.MaxDrawdownPct)
	}
}

func TestCalculateMetrics_DrawdownNeverPositive(t *testing.T) {
	closes := zigzag(120)
	m, _ := CalculateMetrics(closes, 0.04, 252)
	if m.MaxDrawdownPct > 0 {
		t.Errorf("drawdown must be <= 0, got %.4f", m.MaxDrawdownPct)
	}
}

func TestCalculateMetrics_EdgeLengths(t *testing.T) {
	if _, err := CalculateMetrics(nil, 0.04, 252); !errors.Is(err, model.ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
	m, err := CalculateMetrics([]float64{100}, 0.04, 252)
	if !errors.Is(err, model.ErrDegenerateStatistic) {
		t.Errorf("single point: expected ErrDegenerateStatistic, got %v", err)
	}
	if m.TotalReturnPct != 0 || m.MaxDrawdownPct != 0 {
		t.Errorf("single point: expected zero metrics, got %+v", m)
	}
}

func TestSharpeRatio_ScaleInvariant(t *testing.T) {
	returns := []float64{0.01, -0.004, 0.007, 0.002, -0.011, 0.006, 0.003}
	base := SharpeRatio(returns, 0, 252)
	for _, k := range []float64{0.5, 2, 10} {
		scaled := make([]float64, len(returns))
		for i, r := range returns {
			scaled[i] = r * k
		}
		got := SharpeRatio(scaled, 0, 252)
		if math.Abs(got.Float64-base.Float64) > 1e-9 {
			t.Errorf("scale %.1f: expected %.6f, got %.6f", k, base.Float64, got.Float64)
		}
	}
}

func TestSharpeRatio_KnownValue(t *testing.T) {
	returns := []float64{0.01, 0.03}
	// rf = 0: mean = 0.02, sample std = 0.0141421..., sharpe = 1.41421*sqrt(252)
	got := SharpeRatio(returns, 0, 252)
	want := 0.02 / math.Sqrt(0.0002) * math.Sqrt(252)
	if math.Abs(got.Float64-want) > 1e-9 {
		t.Errorf("expected %.6f, got %.6f", want, got.Float64)
	}
}

func TestDegenerateReason(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		want    string
	}{
		{"empty", nil, "fewer than two"},
		{"single", []float64{0.01}, "fewer than two"},
		{"nan", []float64{0.01, math.NaN(), 0.02}, "non-finite"},
		{"inf", []float64{-1, math.Inf(1)}, "non-finite"},
		{"flat", []float64{0, 0, 0}, "no variance"},
	}
	for _, tt := range tests {
		if got := DegenerateReason(tt.returns); !strings.Contains(got, tt.want) {
			t.Errorf("%s: expected reason containing %q, got %q", tt.name, tt.want, got)
		}
	}

	_, err := CalculateMetrics([]float64{100}, 0.04, 252)
	if err == nil || !strings.Contains(err.Error(), "fewer than two") {
		t.Errorf("single close: expected too-few-returns cause, got %v", err)
	}
}
