package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"StockScreener/internal/calculator"
	"StockScreener/internal/metrics"
	"StockScreener/internal/model"
	"StockScreener/internal/strategy"
)

var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

// Request selects one ticker and an inclusive date range.
type Request struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

// Collector orchestrates data fetching, indicator computation and metrics.
type Collector struct {
	Fetcher      Fetcher
	Constituents ConstituentSource
	Engine       *strategy.Engine
	Metrics      *metrics.Metrics
	Now          func() time.Time
}

// NewCollector creates a new Collector. constituents and m may be nil.
func NewCollector(fetcher Fetcher, constituents ConstituentSource, engine *strategy.Engine, m *metrics.Metrics) *Collector {
	return &Collector{
		Fetcher:      fetcher,
		Constituents: constituents,
		Engine:       engine,
		Metrics:      m,
		Now:          time.Now,
	}
}

// DefaultRequest covers the configured lookback ending today.
func (c *Collector) DefaultRequest(symbol string) Request {
	end := dayOf(c.Now())
	return Request{
		Symbol: symbol,
		Start:  end.AddDate(-c.Engine.Config().LookbackYears, 0, 0),
		End:    end,
	}
}

func normalizeRequest(req Request) (Request, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if !symbolPattern.MatchString(req.Symbol) {
		return req, fmt.Errorf("%w: bad symbol %q", model.ErrInvalidRequest, req.Symbol)
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return req, fmt.Errorf("%w: start and end dates are required", model.ErrInvalidRequest)
	}
	req.Start, req.End = dayOf(req.Start), dayOf(req.End)
	if req.Start.After(req.End) {
		return req, fmt.Errorf("%w: start %s is after end %s", model.ErrInvalidRequest,
			req.Start.Format(time.DateOnly), req.End.Format(time.DateOnly))
	}
	return req, nil
}

// Fetch loads the price series for req.
func (c *Collector) Fetch(ctx context.Context, req Request) (model.PriceSeries, error) {
	req, err := normalizeRequest(req)
	if err != nil {
		return model.PriceSeries{}, err
	}
	begin := time.Now()
	bars, err := c.Fetcher.FetchDailyBars(ctx, req.Symbol, req.Start, req.End)
	c.Metrics.ObserveFetch(c.Fetcher.Name(), time.Since(begin), err)
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("%w: %s %s: %w", model.ErrFetchFailure, c.Fetcher.Name(), req.Symbol, err)
	}
	if len(bars) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: %s between %s and %s", model.ErrEmptySeries, req.Symbol,
			req.Start.Format(time.DateOnly), req.End.Format(time.DateOnly))
	}
	if err := checkBars(bars); err != nil {
		return model.PriceSeries{}, fmt.Errorf("%w: %s %s: %w", model.ErrFetchFailure, c.Fetcher.Name(), req.Symbol, err)
	}
	return model.PriceSeries{
		Symbol:    req.Symbol,
		Bars:      bars,
		Source:    c.Fetcher.Name(),
		FetchedAt: c.Now(),
	}, nil
}

// checkBars rejects prices that would poison the return series.
func checkBars(bars []model.OHLCV) error {
	for _, b := range bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) || b.Close <= 0 {
			return fmt.Errorf("invalid close %v on %s", b.Close, b.Time.Format(time.DateOnly))
		}
	}
	return nil
}

// Analyze runs the whole pipeline for one ticker.
// Insufficient history and an undefined Sharpe ratio are reported as warnings.
func (c *Collector) Analyze(ctx context.Context, req Request) (*model.Analysis, error) {
	req, err := normalizeRequest(req)
	if err != nil {
		c.Metrics.ObserveAnalysis("invalid_request")
		return nil, err
	}
	series, err := c.Fetch(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmptySeries):
			c.Metrics.ObserveAnalysis("empty_series")
		default:
			c.Metrics.ObserveAnalysis("fetch_failure")
		}
		return nil, err
	}

	cfg := c.Engine.Config()
	a := &model.Analysis{
		RunID:       uuid.NewString(),
		Symbol:      series.Symbol,
		Start:       req.Start,
		End:         req.End,
		Source:      series.Source,
		Rows:        c.Engine.Evaluate(series),
		Params:      cfg.Params(),
		GeneratedAt: c.Now(),
	}

	if need := cfg.RequiredHistory(); len(series.Bars) < need {
		addWarning(a, c.Metrics, model.WarnInsufficientHistory,
			fmt.Sprintf("%v: %d bars, indicators need %d", model.ErrInsufficientHistory, len(series.Bars), need))
	}

	summary, err := calculator.CalculateMetrics(series.Closes(), cfg.RiskFreeRateAnnual, cfg.TradingDaysPerYear)
	switch {
	case errors.Is(err, model.ErrDegenerateStatistic):
		addWarning(a, c.Metrics, model.WarnDegenerateStatistic, err.Error())
	case err != nil:
		c.Metrics.ObserveAnalysis("error")
		return nil, fmt.Errorf("metrics for %s: %w", series.Symbol, err)
	}
	a.Metrics = summary
	a.Assessment = strategy.Assess(summary)

	if pr, err := calculator.CalculatePriceRange(series.Bars); err != nil {
		log.Printf("[WARN] price range for %s: %v", series.Symbol, err)
	} else {
		a.Range = pr
	}

	c.joinConstituent(ctx, a)
	c.Metrics.ObserveAnalysis("ok")
	return a, nil
}

// Tickers returns the selectable constituent table.
func (c *Collector) Tickers(ctx context.Context) ([]model.Constituent, error) {
	if c.Constituents == nil {
		return nil, fmt.Errorf("%w: no constituent source configured", model.ErrFetchFailure)
	}
	list, err := c.Constituents.FetchConstituents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: constituents: %w", model.ErrFetchFailure, err)
	}
	return list, nil
}

func (c *Collector) joinConstituent(ctx context.Context, a *model.Analysis) {
	if c.Constituents == nil {
		return
	}
	list, err := c.Constituents.FetchConstituents(ctx)
	if err != nil {
		log.Printf("[WARN] constituents unavailable, %s left without sector: %v", a.Symbol, err)
		return
	}
	for _, k := range list {
		if k.Symbol == a.Symbol {
			a.Security = k.Security
			a.Sector = k.Sector
			return
		}
	}
}

func addWarning(a *model.Analysis, m *metrics.Metrics, code, msg string) {
	a.Warnings = append(a.Warnings, model.Warning{Code: code, Message: msg})
	m.ObserveWarning(code)
	log.Printf("[WARN] %s: %s", a.Symbol, msg)
}
