package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"StockScreener/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" && !strings.HasPrefix(dbPath, ":memory:") {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the HTTP API read while the screen writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           TEXT NOT NULL UNIQUE,
			timestamp        INTEGER NOT NULL,
			symbol           TEXT NOT NULL,
			source           TEXT,
			start_date       TEXT,
			end_date         TEXT,
			bars             INTEGER,
			last_close       REAL,
			sharpe_ratio     REAL,
			max_drawdown_pct REAL,
			total_return_pct REAL,
			sharpe_verdict   TEXT,
			drawdown_verdict TEXT,
			warnings         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON analysis_runs(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS signal_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL,
			symbol    TEXT NOT NULL,
			bar_date  TEXT NOT NULL,
			kind      TEXT NOT NULL,
			close     REAL,
			rsi       REAL,
			adx       REAL,
			UNIQUE(symbol, bar_date, kind)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_date ON signal_events(bar_date)`,

		`CREATE TABLE IF NOT EXISTS screen_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			trigger     TEXT,
			symbols     INTEGER,
			failed      INTEGER,
			alerts      INTEGER,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_screen_ts ON screen_runs(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(a *model.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes := make([]string, len(a.Warnings))
	for i, w := range a.Warnings {
		codes[i] = w.Code
	}
	var lastClose float64
	if last, ok := a.Latest(); ok {
		lastClose = last.Close
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	// null.Float implements driver.Valuer, so an undefined Sharpe is stored as NULL.
	_, err = tx.Exec(`INSERT INTO analysis_runs
		(run_id, timestamp, symbol, source, start_date, end_date, bars, last_close,
		 sharpe_ratio, max_drawdown_pct, total_return_pct,
		 sharpe_verdict, drawdown_verdict, warnings)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.RunID, a.GeneratedAt.Unix(), a.Symbol, a.Source,
		a.Start.Format(dateLayout), a.End.Format(dateLayout), len(a.Rows), lastClose,
		a.Metrics.SharpeRatio, a.Metrics.MaxDrawdownPct, a.Metrics.TotalReturnPct,
		a.Assessment.Sharpe, a.Assessment.Drawdown, strings.Join(codes, ","),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, row := range a.SignalRows() {
		_, err := tx.Exec(`INSERT OR IGNORE INTO signal_events
			(run_id, symbol, bar_date, kind, close, rsi, adx)
			VALUES (?,?,?,?,?,?,?)`,
			a.RunID, row.Symbol, row.Time.Format(dateLayout), row.SignalKind(),
			row.Close, row.RSI.Float64, row.ADX.Float64,
		)
		if err != nil {
			return fmt.Errorf("insert signal: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordScreen(evt *ScreenEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO screen_runs
		(timestamp, trigger, symbols, failed, alerts, duration_ms)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Trigger, evt.Symbols, evt.Failed, evt.Alerts,
		evt.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) RecentSignals(limit int) ([]model.SignalEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, symbol, bar_date, kind, close, rsi, adx
		FROM signal_events ORDER BY bar_date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []model.SignalEvent
	for rows.Next() {
		var (
			evt  model.SignalEvent
			date string
		)
		if err := rows.Scan(&evt.RunID, &evt.Symbol, &date, &evt.Kind, &evt.Close, &evt.RSI, &evt.ADX); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		if evt.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("signal date %q: %w", date, err)
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
