package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/guregu/null/v5"

	"StockScreener/internal/calculator"
	"StockScreener/internal/model"
)

func fmtFloat(v null.Float, format string) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf(format, v.Float64)
}

func title(a *model.Analysis) string {
	if a.Security == "" {
		return html.EscapeString(a.Symbol)
	}
	return fmt.Sprintf("%s (%s)", html.EscapeString(a.Symbol), html.EscapeString(a.Security))
}

// FormatAnalysis formats a full analysis into a Telegram message.
func FormatAnalysis(a *model.Analysis) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s → %s\n", title(a),
		a.Start.Format("2006-01-02"), a.End.Format("2006-01-02")))
	if a.Sector != "" {
		b.WriteString(fmt.Sprintf("<i>%s</i>\n", html.EscapeString(a.Sector)))
	}
	b.WriteString("\n")

	if last, ok := a.Latest(); ok {
		b.WriteString(fmt.Sprintf("Close %s: %.2f\n", last.Time.Format("2006-01-02"), last.Close))
		b.WriteString(fmt.Sprintf("MA20: %s | MA50: %s\n", fmtFloat(last.MAShort, "%.2f"), fmtFloat(last.MALong, "%.2f")))
		b.WriteString(fmt.Sprintf("RSI: %s (%s)\n", fmtFloat(last.RSI, "%.1f"), last.RSIZone))
		b.WriteString(fmt.Sprintf("+DI: %s | -DI: %s | ADX: %s\n",
			fmtFloat(last.PlusDI, "%.1f"), fmtFloat(last.MinusDI, "%.1f"), fmtFloat(last.ADX, "%.1f")))
		if kind := last.SignalKind(); kind != "" {
			b.WriteString(fmt.Sprintf("Signal today: <b>%s</b>\n", kind))
		}
	}
	if a.Range.High52w > 0 {
		b.WriteString(fmt.Sprintf("52w range: %.2f – %.2f (position %.0f%%)\n",
			a.Range.Low52w, a.Range.High52w, a.Range.Position52w*100))
	}

	b.WriteString("\n📈 <b>Performance</b>\n")
	b.WriteString(fmt.Sprintf("Sharpe: %s, %s\n", fmtFloat(a.Metrics.SharpeRatio, "%.2f"), html.EscapeString(a.Assessment.Sharpe)))
	b.WriteString(fmt.Sprintf("Max drawdown: %.2f%%, %s\n", a.Metrics.MaxDrawdownPct, html.EscapeString(a.Assessment.Drawdown)))
	b.WriteString(fmt.Sprintf("Total return: %+.2f%%\n", a.Metrics.TotalReturnPct))

	if n := len(a.SignalRows()); n > 0 {
		b.WriteString(fmt.Sprintf("Signals in range: %d\n", n))
	}
	for _, w := range a.Warnings {
		b.WriteString(fmt.Sprintf("\n⚠️ %s", html.EscapeString(w.Message)))
	}
	return b.String()
}

// FormatSignalAlert formats a latest-bar signal.
func FormatSignalAlert(a *model.Analysis, row model.IndicatorRow) string {
	icon := "🟢"
	if row.SellSignal {
		icon = "🔴"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> | %s\n\n", icon, row.SignalKind(), title(a), row.Time.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Close: %.2f\n", row.Close))
	b.WriteString(fmt.Sprintf("MA20 %s vs MA50 %s\n", fmtFloat(row.MAShort, "%.2f"), fmtFloat(row.MALong, "%.2f")))
	b.WriteString(fmt.Sprintf("RSI: %s | ADX: %s\n", fmtFloat(row.RSI, "%.1f"), fmtFloat(row.ADX, "%.1f")))
	confirmation(&b, a, row)
	b.WriteString(fmt.Sprintf("1y Sharpe: %s | drawdown %.1f%%", fmtFloat(a.Metrics.SharpeRatio, "%.2f"), a.Metrics.MaxDrawdownPct))
	return b.String()
}

// confirmation adds volume and Wilder RSI context for the alerted bar.
// Lines needing more history than the analysis holds are left out.
func confirmation(b *strings.Builder, a *model.Analysis, row model.IndicatorRow) {
	var bars []model.OHLCV
	for _, r := range a.Rows {
		if r.Time.After(row.Time) {
			break
		}
		bars = append(bars, r.OHLCV)
	}
	volumes := make([]float64, len(bars))
	for i, bar := range bars {
		volumes[i] = bar.Volume
	}
	if window := a.Params.MAShortWindow; window > 0 {
		if avg, err := calculator.CalculateSMA(volumes, window); err == nil && avg > 0 {
			b.WriteString(fmt.Sprintf("Volume: %.0f (%.1fx %dd avg)\n", row.Volume, row.Volume/avg, window))
		}
	}
	if period := a.Params.RSIPeriod; period > 0 && a.Params.RSISmoothing != string(calculator.SmoothingWilder) {
		if rsi, err := calculator.CalculateRSI(bars, period); err == nil {
			b.WriteString(fmt.Sprintf("Wilder RSI: %.1f\n", rsi))
		}
	}
}

// WatchlistLine is one symbol's outcome in a screen.
type WatchlistLine struct {
	Symbol   string
	Analysis *model.Analysis
	Err      error
}

// FormatWatchlist formats a screen over the watchlist, one line per symbol.
func FormatWatchlist(lines []WatchlistLine) string {
	var b strings.Builder
	b.WriteString("🔎 <b>Watchlist screen</b>\n\n")
	if len(lines) == 0 {
		b.WriteString("Watchlist is empty.")
		return b.String()
	}
	for _, l := range lines {
		sym := html.EscapeString(l.Symbol)
		if l.Err != nil {
			b.WriteString(fmt.Sprintf("❌ %s: %s\n", sym, html.EscapeString(l.Err.Error())))
			continue
		}
		last, ok := l.Analysis.Latest()
		if !ok {
			b.WriteString(fmt.Sprintf("❔ %s: no data\n", sym))
			continue
		}
		mark := "⚪"
		switch {
		case last.BuySignal:
			mark = "🟢"
		case last.SellSignal:
			mark = "🔴"
		}
		b.WriteString(fmt.Sprintf("%s %s %.2f | RSI %s | ADX %s | Sharpe %s\n", mark, sym, last.Close,
			fmtFloat(last.RSI, "%.0f"), fmtFloat(last.ADX, "%.0f"), fmtFloat(l.Analysis.Metrics.SharpeRatio, "%.2f")))
	}
	return b.String()
}

// FormatRecentSignals lists recorded signal events.
func FormatRecentSignals(events []model.SignalEvent) string {
	var b strings.Builder
	b.WriteString("🗂 <b>Recent signals</b>\n\n")
	if len(events) == 0 {
		b.WriteString("No signals recorded yet.")
		return b.String()
	}
	for _, e := range events {
		b.WriteString(fmt.Sprintf("%s %-4s %s @ %.2f (RSI %.1f, ADX %.1f)\n",
			e.Date.Format("2006-01-02"), e.Kind, html.EscapeString(e.Symbol), e.Close, e.RSI, e.ADX))
	}
	return b.String()
}

// FormatHelp lists the supported chat commands.
func FormatHelp() string {
	return "<b>Commands</b>\n" +
		"/screen SYMBOL: analyse one ticker over the last year\n" +
		"/watchlist: screen every watchlist symbol now\n" +
		"/signals: recently recorded buy/sell signals\n" +
		"/help: this message"
}
