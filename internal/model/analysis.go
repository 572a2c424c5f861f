package model

import "time"

const (
	WarnInsufficientHistory = "INSUFFICIENT_HISTORY"
	WarnDegenerateStatistic = "DEGENERATE_STATISTIC"
)

// Warning is a recoverable condition attached to an Analysis.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AnalysisParams records the indicator and metrics settings an Analysis was computed with.
type AnalysisParams struct {
	MAShortWindow      int     `json:"ma_short_window"`
	MALongWindow       int     `json:"ma_long_window"`
	RSIPeriod          int     `json:"rsi_period"`
	RSISmoothing       string  `json:"rsi_smoothing"`
	ADXPeriod          int     `json:"adx_period"`
	RSIBuyThreshold    float64 `json:"rsi_buy_threshold"`
	RSISellThreshold   float64 `json:"rsi_sell_threshold"`
	ADXTrendThreshold  float64 `json:"adx_trend_threshold"`
	RiskFreeRateAnnual float64 `json:"risk_free_rate_annual"`
	TradingDaysPerYear int     `json:"trading_days_per_year"`
	LookbackYears      int     `json:"lookback_years"`
}

// Analysis is the output of one pipeline run for one ticker.
type Analysis struct {
	RunID       string         `json:"run_id"`
	Symbol      string         `json:"symbol"`
	Security    string         `json:"security,omitempty"`
	Sector      string         `json:"sector,omitempty"`
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	Source      string         `json:"source"`
	Rows        []IndicatorRow `json:"rows"`
	Metrics     MetricsSummary `json:"metrics"`
	Assessment  Assessment     `json:"assessment"`
	Range       PriceRange     `json:"range"`
	Params      AnalysisParams `json:"params"`
	Warnings    []Warning      `json:"warnings,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Latest returns the most recent row, if any.
func (a *Analysis) Latest() (IndicatorRow, bool) {
	if len(a.Rows) == 0 {
		return IndicatorRow{}, false
	}
	return a.Rows[len(a.Rows)-1], true
}

// SignalRows returns only the rows carrying a buy or sell signal.
func (a *Analysis) SignalRows() []IndicatorRow {
	var out []IndicatorRow
	for _, r := range a.Rows {
		if r.HasSignal() {
			out = append(out, r)
		}
	}
	return out
}

// SignalEvent is a recorded buy/sell signal.
type SignalEvent struct {
	RunID  string    `json:"run_id"`
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Kind   string    `json:"kind"`
	Close  float64   `json:"close"`
	RSI    float64   `json:"rsi"`
	ADX    float64   `json:"adx"`
}
