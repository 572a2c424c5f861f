package model

import "time"

// OHLCV represents a single daily candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries holds the daily bars of one ticker, ascending by date.
type PriceSeries struct {
	Symbol    string
	Bars      []OHLCV
	Source    string
	FetchedAt time.Time
}

// Closes returns the close prices of the series in order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// TickerBar is a bar tagged with its ticker, as found in multi-ticker batches.
type TickerBar struct {
	Symbol string
	OHLCV
}

// Constituent is one row of the index constituents table.
type Constituent struct {
	Symbol       string `json:"symbol"`
	Security     string `json:"security"`
	Sector       string `json:"sector"`
	SubIndustry  string `json:"sub_industry,omitempty"`
	Headquarters string `json:"headquarters,omitempty"`
	DateAdded    string `json:"date_added,omitempty"`
	CIK          string `json:"cik,omitempty"`
	Founded      string `json:"founded,omitempty"`
}
