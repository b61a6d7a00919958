package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"MarketScanner/internal/model"
	"MarketScanner/internal/report"
)

// maxMessageLen keeps replies under Telegram's 4096 character limit.
const maxMessageLen = 4000

// FormatScanReport formats a finished scan into a Telegram message listing
// the top results.
func FormatScanReport(rep *model.Report, top int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Stock screener</b> | %s\n", rep.FinishedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Scanned %d/%d, matched %d, skipped %d\n",
		rep.Scanned, rep.Universe, rep.Matched, len(rep.Skips)))
	if rep.Cancelled {
		b.WriteString("⚠️ Scan was cancelled, results are partial\n")
	}

	if len(rep.Results) == 0 {
		b.WriteString("\nNo symbol met any condition.")
		return b.String()
	}

	results := rep.Results
	if top > 0 && len(results) > top {
		results = results[:top]
	}
	b.WriteString(fmt.Sprintf("\n🏆 <b>Top %d</b>\n", len(results)))
	for i, r := range results {
		line := fmt.Sprintf("%d. <b>%s</b> %s | %.0f pts | %s\n",
			i+1, html.EscapeString(r.Symbol), report.Price(r.Price), r.Score, html.EscapeString(r.Rating))
		if b.Len()+len(line) > maxMessageLen {
			b.WriteString("…\n")
			break
		}
		b.WriteString(line)
	}

	if dist := report.Distribution(rep); len(dist) > 0 {
		b.WriteString("\n📈 <b>Conditions met</b>\n")
		for _, d := range dist {
			b.WriteString(fmt.Sprintf("  %s: %d\n", html.EscapeString(d.Label), d.Count))
		}
	}
	if dist := report.ExchangeDistribution(rep); len(dist) > 0 {
		b.WriteString("\n🏛 <b>By exchange</b>\n")
		for _, d := range dist {
			b.WriteString(fmt.Sprintf("  %s: %d\n", html.EscapeString(d.Label), d.Count))
		}
	}
	return truncate(b.String())
}

// FormatResult details one symbol, including its trade plan.
func FormatResult(r *model.ScanResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>%s</b>", html.EscapeString(r.Symbol)))
	if r.Exchange != "" {
		b.WriteString(" (" + html.EscapeString(r.Exchange) + ")")
	}
	b.WriteString(" " + report.Price(r.Price))
	if chg, ok := r.ChangePct.Get(); ok {
		b.WriteString(fmt.Sprintf(" (%+.2f%%)", chg))
	}
	b.WriteString(fmt.Sprintf("\nScore %.0f | %s\n", r.Score, html.EscapeString(r.Rating)))
	for _, n := range r.Notes {
		b.WriteString("  • " + html.EscapeString(n) + "\n")
	}
	if p := r.Plan; p != nil {
		b.WriteString("\n💡 <b>Trade plan</b>\n")
		b.WriteString(fmt.Sprintf("Buy zone: %s - %s\n", report.Price(p.BuyZoneLow), report.Price(p.BuyZoneHigh)))
		b.WriteString(fmt.Sprintf("Stop loss: %s\n", report.Price(p.StopLoss)))
		ts := make([]string, len(p.Targets))
		for i, t := range p.Targets {
			ts[i] = report.Price(t)
		}
		b.WriteString("Targets: " + strings.Join(ts, " / ") + "\n")
		if p.GoodPullback {
			b.WriteString("✅ Price is in a good pullback\n")
		}
	}
	return truncate(b.String())
}

// FormatSkips groups skipped symbols by reason.
func FormatSkips(rep *model.Report) string {
	if len(rep.Skips) == 0 {
		return "No symbols were skipped."
	}
	by := make(map[model.SkipReason][]string)
	for _, s := range rep.Skips {
		by[s.Reason] = append(by[s.Reason], s.Symbol)
	}
	reasons := make([]string, 0, len(by))
	for r := range by {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("⏭ <b>Skipped %d symbols</b>\n", len(rep.Skips)))
	for _, r := range reasons {
		syms := by[model.SkipReason(r)]
		b.WriteString(fmt.Sprintf("\n<b>%s</b> (%d)\n%s\n", r, len(syms), html.EscapeString(strings.Join(syms, ", "))))
	}
	return truncate(b.String())
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "🤖 <b>Commands</b>\n" +
		"/scan - run a scan now\n" +
		"/top [N] - best results of the last scan\n" +
		"/top SYMBOL - details and trade plan for a symbol\n" +
		"/skips - symbols skipped in the last scan\n" +
		"/help - this message"
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	cut := maxMessageLen
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n…"
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
