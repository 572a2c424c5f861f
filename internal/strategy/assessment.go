package strategy

import "StockScreener/internal/model"

// sharpeBands maps a Sharpe ratio to a verdict, checked top-down.
var sharpeBands = []struct {
	MinSharpe float64
	Verdict   string
}{
	{3, "Over this period the investment has generated excellent returns for the amount of risk taken"},
	{2, "Indicates a strong risk adjusted return for this time frame"},
	{1, "A decent risk-adjusted performance over this timescale"},
}

// DefaultSharpeVerdict applies below the lowest band.
const DefaultSharpeVerdict = "Returns are not compensating for the risk taken for this period"

// UndefinedSharpeVerdict applies when returns have no variance.
const UndefinedSharpeVerdict = "Sharpe ratio cannot be computed: returns show no variance over this period"

// drawdownBands maps a (negative) max drawdown percent to a verdict, checked top-down.
var drawdownBands = []struct {
	MinDrawdown float64
	Exclusive   bool
	Verdict     string
}{
	{-10, true, "Low drawdown, stock rarely suffers big losses"},
	{-25, false, "Moderate drawdown, normal for most equities"},
	{-50, false, "High max drawdown - higher risk"},
}

// DefaultDrawdownVerdict applies below the lowest band.
const DefaultDrawdownVerdict = "Very high max drawdown - a 50% loss requires a 100% gain to break even!"

// Assess turns a MetricsSummary into human readable verdicts.
func Assess(m model.MetricsSummary) model.Assessment {
	return model.Assessment{
		Sharpe:   sharpeVerdict(m),
		Drawdown: drawdownVerdict(m.MaxDrawdownPct),
	}
}

func sharpeVerdict(m model.MetricsSummary) string {
	if !m.SharpeRatio.Valid {
		return UndefinedSharpeVerdict
	}
	for _, b := range sharpeBands {
		if m.SharpeRatio.Float64 >= b.MinSharpe {
			return b.Verdict
		}
	}
	return DefaultSharpeVerdict
}

func drawdownVerdict(dd float64) string {
	for _, b := range drawdownBands {
		if dd > b.MinDrawdown || (!b.Exclusive && dd == b.MinDrawdown) {
			return b.Verdict
		}
	}
	return DefaultDrawdownVerdict
}
