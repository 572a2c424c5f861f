package recorder

import (
	"time"

	"StockScreener/internal/model"
)

// ScreenEvent summarises one watchlist screen.
type ScreenEvent struct {
	Trigger  string // "CRON", "COMMAND"
	Symbols  int
	Failed   int
	Alerts   int
	Duration time.Duration
}

// Recorder persists historical data for analysis.
type Recorder interface {
	// RecordAnalysis stores the run summary and every signal row it carries.
	RecordAnalysis(a *model.Analysis) error
	RecordScreen(evt *ScreenEvent) error
	// RecentSignals returns the newest signal events first.
	RecentSignals(limit int) ([]model.SignalEvent, error)
	Close() error
}
