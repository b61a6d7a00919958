package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"MarketScanner/internal/model"
)

// LabelCount is one row of the condition distribution.
type LabelCount struct {
	Label string
	Count int
}

// Distribution returns how many results met each condition, most frequent
// first.
func Distribution(rep *model.Report) []LabelCount {
	return sortedCounts(rep.Distribution)
}

// ExchangeDistribution counts matched results per exchange.
func ExchangeDistribution(rep *model.Report) []LabelCount {
	return sortedCounts(rep.Exchanges)
}

func sortedCounts(counts map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, LabelCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// WriteTable prints the top results and the distribution as aligned text.
// top <= 0 prints every result.
func WriteTable(w io.Writer, rep *model.Report, top int) error {
	results := rep.Results
	if top > 0 && len(results) > top {
		results = results[:top]
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tEXCH\tPRICE\tCHG%\tVOLUME\tRSI\tSCORE\tRATING\tCONDITIONS")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.0f\t%s\t%s\n",
			r.Symbol,
			r.Exchange,
			Price(r.Price),
			optional(r.ChangePct, 2),
			humanize.Comma(int64(r.Volume)),
			optional(r.RSI, 1),
			r.Score,
			r.Rating,
			strings.Join(r.Matched, ", "),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nScanned %d of %d symbols, %d matched, %d skipped",
		rep.Scanned, rep.Universe, rep.Matched, len(rep.Skips))
	if rep.Cancelled {
		fmt.Fprint(w, " (cancelled)")
	}
	fmt.Fprintln(w)

	writeCounts(w, "Conditions met:", Distribution(rep), rep.Matched)
	writeCounts(w, "By exchange:", ExchangeDistribution(rep), rep.Matched)
	return nil
}

func writeCounts(w io.Writer, title string, counts []LabelCount, matched int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintln(w, "\n"+title)
	for _, d := range counts {
		pct := 0.0
		if matched > 0 {
			pct = float64(d.Count) / float64(matched) * 100
		}
		fmt.Fprintf(w, "  %-16s %4d (%.1f%%)\n", d.Label, d.Count, pct)
	}
}
