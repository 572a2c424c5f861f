package model

import "github.com/guregu/null/v5"

// MetricsSummary holds the risk/return statistics of one close series.
type MetricsSummary struct {
	SharpeRatio       null.Float `json:"sharpe_ratio"`
	MaxDrawdownPct    float64    `json:"max_drawdown_pct"`
	TotalReturnPct    float64    `json:"total_return_pct"`
	CumulativeReturns []float64  `json:"cumulative_returns"`
	Observations      int        `json:"observations"`
}

// Assessment is the human readable verdict on a MetricsSummary.
type Assessment struct {
	Sharpe   string `json:"sharpe"`
	Drawdown string `json:"drawdown"`
}
