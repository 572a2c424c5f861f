package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"StockScreener/internal/alert"
	"StockScreener/internal/cache"
	"StockScreener/internal/collector"
	"StockScreener/internal/config"
	"StockScreener/internal/metrics"
	"StockScreener/internal/notifier"
	"StockScreener/internal/recorder"
	"StockScreener/internal/scheduler"
	"StockScreener/internal/server"
	"StockScreener/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] StockScreener starting...")

	if err := config.LoadDotEnv(); err != nil {
		log.Printf("[WARN] %v", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.AlphaVantageAPIKey != "" {
		fetcher = collector.NewAlphaVantageFetcher(cfg.DataSource.AlphaVantageAPIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Constituent cache
	var store cache.Store
	if cfg.Cache.RedisAddr != "" {
		rs, err := cache.NewRedisStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			log.Printf("[WARN] redis unavailable, using in-memory cache: %v", err)
			store = cache.NewMemoryStore()
		} else {
			store = rs
		}
	} else {
		store = cache.NewMemoryStore()
	}
	defer store.Close()
	log.Printf("[INFO] constituent cache: %s", store.Name())

	constituents := collector.NewCachedSource(
		collector.NewWikipediaSource(cfg.DataSource.ConstituentsURL, cfg.Proxy), store, cfg.Cache.TTL, m)

	// Init collector
	engine, err := strategy.NewEngine(cfg.Analysis)
	if err != nil {
		log.Fatalf("[FATAL] init indicator engine: %v", err)
	}
	col := collector.NewCollector(fetcher, constituents, engine, m)

	// Init alert state
	am, err := alert.NewManager(cfg.Alert.StateFile)
	if err != nil {
		log.Fatalf("[FATAL] init alert manager: %v", err)
	}

	// Init notifier
	var (
		tn *notifier.TelegramNotifier
		nt notifier.Notifier = notifier.LogNotifier{}
	)
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		nt = tn
	} else {
		log.Println("[WARN] telegram not configured, alerts go to the log")
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, am, nt, rec, m)
	sched.Watchlist = cfg.Screen.Watchlist
	sched.Concurrency = cfg.Screen.Concurrency
	sched.Constituents = constituents
	if err := sched.RegisterAll(cfg.Schedule.ScreenCron, cfg.Schedule.RefreshCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// HTTP API
	srv := (&server.Server{
		Collector:    col,
		Recorder:     rec,
		Gatherer:     reg,
		AllowOrigins: cfg.HTTP.AllowOrigins,
	}).NewHTTPServer(cfg.HTTP.Addr)
	go func() {
		log.Printf("[INFO] http api listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] http server: %v", err)
			cancel()
		}
	}()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, screening watchlist now")
		go sched.RunScreenNow()
	}

	log.Println("[INFO] StockScreener is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Println("[INFO] shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	cancel()
	log.Println("[INFO] StockScreener stopped")
}
