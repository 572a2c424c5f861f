package strategy

import (
	"fmt"

	"StockScreener/internal/calculator"
	"StockScreener/internal/model"
)

// Config holds every tunable constant of the indicator and metrics pipeline.
type Config struct {
	MAShortWindow      int     `yaml:"ma_short_window" json:"ma_short_window"`
	MALongWindow       int     `yaml:"ma_long_window" json:"ma_long_window"`
	RSIPeriod          int     `yaml:"rsi_period" json:"rsi_period"`
	RSISmoothing       string  `yaml:"rsi_smoothing" json:"rsi_smoothing"`
	ADXPeriod          int     `yaml:"adx_period" json:"adx_period"`
	RSIBuyThreshold    float64 `yaml:"rsi_buy_threshold" json:"rsi_buy_threshold"`
	RSISellThreshold   float64 `yaml:"rsi_sell_threshold" json:"rsi_sell_threshold"`
	ADXTrendThreshold  float64 `yaml:"adx_trend_threshold" json:"adx_trend_threshold"`
	RiskFreeRateAnnual float64 `yaml:"risk_free_rate_annual" json:"risk_free_rate_annual"`
	TradingDaysPerYear int     `yaml:"trading_days_per_year" json:"trading_days_per_year"`
	LookbackYears      int     `yaml:"lookback_years" json:"lookback_years"`
}

// DefaultConfig returns the classic MA20/MA50, RSI14, ADX14 setup.
func DefaultConfig() Config {
	return Config{
		MAShortWindow:      20,
		MALongWindow:       50,
		RSIPeriod:          14,
		RSISmoothing:       string(calculator.SmoothingSimple),
		ADXPeriod:          14,
		RSIBuyThreshold:    30,
		RSISellThreshold:   70,
		ADXTrendThreshold:  25,
		RiskFreeRateAnnual: 0.04,
		TradingDaysPerYear: 252,
		LookbackYears:      1,
	}
}

// Validate checks windows, periods and thresholds for consistency.
func (c Config) Validate() error {
	if c.MAShortWindow <= 0 || c.MALongWindow <= 0 {
		return fmt.Errorf("moving average windows must be positive")
	}
	if c.MAShortWindow >= c.MALongWindow {
		return fmt.Errorf("ma_short_window (%d) must be < ma_long_window (%d)", c.MAShortWindow, c.MALongWindow)
	}
	if c.RSIPeriod <= 0 || c.ADXPeriod <= 0 {
		return fmt.Errorf("rsi_period and adx_period must be positive")
	}
	if _, err := calculator.ParseSmoothing(c.RSISmoothing); err != nil {
		return err
	}
	if c.RSIBuyThreshold < 0 || c.RSISellThreshold > 100 || c.RSIBuyThreshold >= c.RSISellThreshold {
		return fmt.Errorf("rsi thresholds must satisfy 0 <= buy (%.1f) < sell (%.1f) <= 100", c.RSIBuyThreshold, c.RSISellThreshold)
	}
	if c.ADXTrendThreshold < 0 || c.ADXTrendThreshold > 100 {
		return fmt.Errorf("adx_trend_threshold must be within [0,100]")
	}
	if c.TradingDaysPerYear <= 0 {
		return fmt.Errorf("trading_days_per_year must be positive")
	}
	if c.LookbackYears <= 0 {
		return fmt.Errorf("lookback_years must be positive")
	}
	return nil
}

// RequiredHistory is the number of bars needed before every indicator is populated.
func (c Config) RequiredHistory() int {
	return max(c.MALongWindow, c.MAShortWindow, c.RSIPeriod+1, 2*c.ADXPeriod)
}

// Params snapshots the config for attaching to an Analysis.
func (c Config) Params() model.AnalysisParams {
	return model.AnalysisParams{
		MAShortWindow:      c.MAShortWindow,
		MALongWindow:       c.MALongWindow,
		RSIPeriod:          c.RSIPeriod,
		RSISmoothing:       c.RSISmoothing,
		ADXPeriod:          c.ADXPeriod,
		RSIBuyThreshold:    c.RSIBuyThreshold,
		RSISellThreshold:   c.RSISellThreshold,
		ADXTrendThreshold:  c.ADXTrendThreshold,
		RiskFreeRateAnnual: c.RiskFreeRateAnnual,
		TradingDaysPerYear: c.TradingDaysPerYear,
		LookbackYears:      c.LookbackYears,
	}
}
