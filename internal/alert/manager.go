// Package alert remembers which signals were already pushed so a bar is
// alerted at most once.
package alert

import (
	"log"
	"sync"
	"time"

	"StockScreener/internal/model"
)

// Manager tracks the last alerted signal per symbol with concurrency safety.
// An empty filePath keeps state in memory only.
type Manager struct {
	mu       sync.Mutex
	state    *model.AlertState
	pending  map[string]model.AlertRecord
	filePath string
	now      func() time.Time
}

// NewManager creates a Manager, loading state from disk if present.
func NewManager(filePath string) (*Manager, error) {
	state := &model.AlertState{Last: map[string]model.AlertRecord{}}
	if filePath != "" {
		var err error
		if state, err = LoadState(filePath); err != nil {
			return nil, err
		}
	}
	return &Manager{
		state:    state,
		pending:  map[string]model.AlertRecord{},
		filePath: filePath,
		now:      time.Now,
	}, nil
}

// ShouldNotify reports whether a signal of kind on date has not been alerted yet.
// Signals on dates older than the last alert are stale and never re-sent.
func (m *Manager) ShouldNotify(symbol string, date time.Time, kind string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return isNew(m.state.Last, symbol, date, kind)
}

// Reserve claims the alert for (symbol, date, kind) before it is sent.
// It fails when the signal was already delivered or another caller holds it.
// A successful Reserve must be followed by MarkNotified or Release.
func (m *Manager) Reserve(symbol string, date time.Time, kind string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !isNew(m.state.Last, symbol, date, kind) || !isNew(m.pending, symbol, date, kind) {
		return false
	}
	m.pending[symbol] = model.AlertRecord{Date: date, Kind: kind}
	return true
}

// Release drops a reservation whose alert could not be delivered.
func (m *Manager) Release(symbol string, date time.Time, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked(symbol, date, kind)
}

func (m *Manager) releaseLocked(symbol string, date time.Time, kind string) {
	if p, ok := m.pending[symbol]; ok && p.Date.Equal(date) && p.Kind == kind {
		delete(m.pending, symbol)
	}
}

func isNew(records map[string]model.AlertRecord, symbol string, date time.Time, kind string) bool {
	last, ok := records[symbol]
	if !ok {
		return true
	}
	if date.Before(last.Date) {
		return false
	}
	return !date.Equal(last.Date) || last.Kind != kind
}

// MarkNotified records that row's signal was delivered.
func (m *Manager) MarkNotified(row model.IndicatorRow) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseLocked(row.Symbol, row.Time, row.SignalKind())
	m.state.Last[row.Symbol] = model.AlertRecord{
		Date:       row.Time,
		Kind:       row.SignalKind(),
		Close:      row.Close,
		NotifiedAt: m.now(),
	}
	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save alert state: %v", err)
	}
}

// Last returns the last alert for symbol.
func (m *Manager) Last(symbol string) (model.AlertRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.state.Last[symbol]
	return rec, ok
}

// Prune forgets alerts older than maxAge and returns how many were removed.
func (m *Manager) Prune(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0
	for sym, rec := range m.state.Last {
		if rec.Date.Before(cutoff) {
			delete(m.state.Last, sym)
			removed++
		}
	}
	if removed > 0 {
		if err := m.save(); err != nil {
			log.Printf("[ERROR] failed to save alert state after prune: %v", err)
		}
	}
	return removed
}

func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	return SaveState(m.filePath, m.state)
}
