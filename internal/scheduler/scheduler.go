package scheduler

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"StockScreener/internal/alert"
	"StockScreener/internal/collector"
	"StockScreener/internal/metrics"
	"StockScreener/internal/model"
	"StockScreener/internal/notifier"
	"StockScreener/internal/recorder"
)

// alertRetention bounds how long de-dup entries are kept.
const alertRetention = 90 * 24 * time.Hour

// ConstituentRefresher reloads the ticker table, bypassing any cache.
type ConstituentRefresher interface {
	Refresh(ctx context.Context) ([]model.Constituent, error)
}

// Scheduler manages all cron tasks and chat commands.
type Scheduler struct {
	Cron         *cron.Cron
	Collector    *collector.Collector
	Alerts       *alert.Manager
	Notifier     notifier.Notifier
	Recorder     recorder.Recorder
	Metrics      *metrics.Metrics
	Constituents ConstituentRefresher
	Watchlist    []string
	Concurrency  int
	Ctx          context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, am *alert.Manager, n notifier.Notifier, rec recorder.Recorder, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Collector:   col,
		Alerts:      am,
		Notifier:    n,
		Recorder:    rec,
		Metrics:     m,
		Concurrency: 4,
		Ctx:         ctx,
	}
}

// RegisterAll registers the watchlist screen and the constituent refresh.
// An empty refreshCron disables the refresh.
func (s *Scheduler) RegisterAll(screenCron, refreshCron string) error {
	if _, err := s.Cron.AddFunc(screenCron, s.screenTask); err != nil {
		return fmt.Errorf("register screen task: %w", err)
	}
	if refreshCron != "" {
		if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
			return fmt.Errorf("register refresh task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunScreenNow executes the watchlist screen immediately (for RUN_ON_START).
func (s *Scheduler) RunScreenNow() {
	s.screenTask()
}

func (s *Scheduler) screenTask() {
	log.Printf("[INFO] running watchlist screen (%d symbols)", len(s.Watchlist))
	s.Screen(s.Ctx, "CRON")
}

// Screen analyses every watchlist symbol concurrently, alerts on fresh
// latest-bar signals and records the results. One symbol's failure never
// stops the others. Lines are returned in watchlist order.
func (s *Scheduler) Screen(ctx context.Context, trigger string) []notifier.WatchlistLine {
	begin := time.Now()
	lines := make([]notifier.WatchlistLine, len(s.Watchlist))
	var failed, alerts atomic.Int32

	var g errgroup.Group
	g.SetLimit(max(s.Concurrency, 1))
	for i, sym := range s.Watchlist {
		i, sym := i, sym
		g.Go(func() error {
			lines[i].Symbol = sym
			a, err := s.Collector.Analyze(ctx, s.Collector.DefaultRequest(sym))
			if err != nil {
				log.Printf("[ERROR] screen %s: %v", sym, err)
				lines[i].Err = err
				failed.Add(1)
				return nil
			}
			lines[i].Analysis = a
			if err := s.Recorder.RecordAnalysis(a); err != nil {
				log.Printf("[ERROR] record analysis %s: %v", sym, err)
			}
			if s.alertLatest(ctx, a) {
				alerts.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	elapsed := time.Since(begin)
	s.Metrics.ObserveScreen(elapsed)
	if err := s.Recorder.RecordScreen(&recorder.ScreenEvent{
		Trigger:  trigger,
		Symbols:  len(s.Watchlist),
		Failed:   int(failed.Load()),
		Alerts:   int(alerts.Load()),
		Duration: elapsed,
	}); err != nil {
		log.Printf("[ERROR] record screen: %v", err)
	}
	log.Printf("[INFO] watchlist screen done in %v: %d symbols, %d failed, %d alerts",
		elapsed.Round(time.Millisecond), len(s.Watchlist), failed.Load(), alerts.Load())
	return lines
}

// alertLatest notifies when the most recent bar carries a signal that was not
// alerted before. It reports whether a notification was delivered.
func (s *Scheduler) alertLatest(ctx context.Context, a *model.Analysis) bool {
	last, ok := a.Latest()
	if !ok || !last.HasSignal() {
		return false
	}
	kind := last.SignalKind()
	if !s.Alerts.Reserve(a.Symbol, last.Time, kind) {
		return false
	}
	if err := s.Notifier.Notify(ctx, notifier.FormatSignalAlert(a, last)); err != nil {
		log.Printf("[ERROR] send %s alert for %s: %v", kind, a.Symbol, err)
		s.Alerts.Release(a.Symbol, last.Time, kind)
		return false
	}
	s.Alerts.MarkNotified(last)
	s.Metrics.ObserveSignal(kind)
	return true
}

func (s *Scheduler) refreshTask() {
	if n := s.Alerts.Prune(alertRetention); n > 0 {
		log.Printf("[INFO] pruned %d stale alert entries", n)
	}
	if s.Constituents == nil {
		return
	}
	list, err := s.Constituents.Refresh(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] refresh constituents: %v", err)
		return
	}
	log.Printf("[INFO] constituents refreshed: %d tickers", len(list))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Group chats address commands as /cmd@botname.
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch cmd {
	case "/screen":
		if len(fields) < 2 {
			return "Usage: /screen SYMBOL"
		}
		a, err := s.Collector.Analyze(ctx, s.Collector.DefaultRequest(fields[1]))
		if err != nil {
			return "❌ " + html.EscapeString(err.Error())
		}
		if err := s.Recorder.RecordAnalysis(a); err != nil {
			log.Printf("[ERROR] record analysis %s: %v", a.Symbol, err)
		}
		return notifier.FormatAnalysis(a)
	case "/watchlist":
		return notifier.FormatWatchlist(s.Screen(ctx, "COMMAND"))
	case "/signals":
		events, err := s.Recorder.RecentSignals(10)
		if err != nil {
			return "❌ " + html.EscapeString(err.Error())
		}
		return notifier.FormatRecentSignals(events)
	default:
		return notifier.FormatHelp()
	}
}
