package collector

import (
	"context"
	"math"
	"sync"
	"time"

	"StockScreener/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	DailyData map[string][]model.OHLCV
	Err       error
	Calls     int

	mu sync.Mutex
}

func (m *MockFetcher) Name() string { return "mock" }

// FetchDailyBars returns DailyData[symbol] filtered to the range, or a
// generated weekday series when no data was configured for the symbol.
func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if data, ok := m.DailyData[symbol]; ok {
		var out []model.OHLCV
		for _, b := range data {
			if inRange(b.Time, start, end) {
				out = append(out, b)
			}
		}
		return out, nil
	}
	return GenerateMockBars(m.Price, start, end), nil
}

// GenerateMockBars builds a gently oscillating weekday series over [start, end].
func GenerateMockBars(basePrice float64, start, end time.Time) []model.OHLCV {
	var bars []model.OHLCV
	i := 0
	for d := dayOf(start); !d.After(dayOf(end)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + 0.001*float64(i) + 0.05*math.Sin(float64(i)/7))
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}

// StaticConstituents is a ConstituentSource backed by a fixed slice.
type StaticConstituents []model.Constituent

func (s StaticConstituents) FetchConstituents(context.Context) ([]model.Constituent, error) {
	return s, nil
}
