package calculator

import (
	"fmt"
	"math"

	"github.com/guregu/null/v5"
	"gonum.org/v1/gonum/stat"

	"StockScreener/internal/model"
)

// DailyReturns returns the simple percentage change of consecutive closes.
// The first close has no prior value and is dropped.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns[i-1] = closes[i]/closes[i-1] - 1
	}
	return returns
}

// SharpeRatio annualises mean(excess)/stddev(excess). It is invalid when the
// excess return series has fewer than two points or zero variance.
func SharpeRatio(returns []float64, riskFreeAnnual float64, tradingDays int) null.Float {
	if len(returns) < 2 || tradingDays <= 0 {
		return null.Float{}
	}
	dailyRF := riskFreeAnnual / float64(tradingDays)
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - dailyRF
	}
	mean, std := stat.MeanStdDev(excess, nil)
	if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) || math.IsNaN(mean) {
		return null.Float{}
	}
	// Constant excess returns leave only rounding noise in the deviation.
	if std < 1e-12*math.Max(1, math.Abs(mean)) {
		return null.Float{}
	}
	return null.FloatFrom(mean / std * math.Sqrt(float64(tradingDays)))
}

// DegenerateReason explains why SharpeRatio is undefined for returns.
func DegenerateReason(returns []float64) string {
	if len(returns) < 2 {
		return "fewer than two daily returns"
	}
	for _, r := range returns {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return "returns contain non-finite values"
		}
	}
	return "returns have no variance"
}

// CumulativeReturns returns cumprod(1+r) - 1.
func CumulativeReturns(returns []float64) []float64 {
	out := make([]float64, len(returns))
	growth := 1.0
	for i, r := range returns {
		growth *= 1 + r
		out[i] = growth - 1
	}
	return out
}

// MaxDrawdown returns the minimum of (growth - runningMax)/runningMax, where
// growth is cumprod(1+r). The result is <= 0.
func MaxDrawdown(returns []float64) float64 {
	growth := 1.0
	peak := math.Inf(-1)
	worst := 0.0
	for _, r := range returns {
		growth *= 1 + r
		peak = math.Max(peak, growth)
		if dd := (growth - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

// CalculateMetrics derives Sharpe ratio, max drawdown and total return from a
// close series. An undefined Sharpe yields ErrDegenerateStatistic wrapped with
// its cause; the rest of the summary is still populated.
func CalculateMetrics(closes []float64, riskFreeAnnual float64, tradingDays int) (model.MetricsSummary, error) {
	if len(closes) == 0 {
		return model.MetricsSummary{}, model.ErrEmptySeries
	}
	returns := DailyReturns(closes)
	cumulative := CumulativeReturns(returns)

	summary := model.MetricsSummary{
		SharpeRatio:       SharpeRatio(returns, riskFreeAnnual, tradingDays),
		MaxDrawdownPct:    MaxDrawdown(returns) * 100,
		CumulativeReturns: cumulative,
		Observations:      len(returns),
	}
	if len(cumulative) > 0 {
		summary.TotalReturnPct = cumulative[len(cumulative)-1] * 100
	}
	if !summary.SharpeRatio.Valid {
		return summary, fmt.Errorf("%w: sharpe ratio undefined: %s", model.ErrDegenerateStatistic, DegenerateReason(returns))
	}
	return summary, nil
}
