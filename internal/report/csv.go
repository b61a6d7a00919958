package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"MarketScanner/internal/model"
)

// utf8BOM lets spreadsheet tools detect the encoding of Vietnamese text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Header is the CSV column order.
var Header = []string{
	"Symbol", "Exchange", "Price", "Change %", "Volume", "Volume Ratio",
	"MA20", "MA50", "MA200", "RSI", "Score", "Rating",
	"Days Since Cross", "Buy Zone", "Stop Loss", "Targets", "Good Pullback",
	"Conditions Met", "Notes",
}

// Filename is the export name for a scan finished on day.
func Filename(day time.Time) string {
	return fmt.Sprintf("stock_screener_results_%s.csv", day.Format("2006-01-02"))
}

// WriteCSV writes a BOM, the header row and one row per result.
func WriteCSV(w io.Writer, results []model.ScanResult) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the report's results into dir and returns the file path.
func SaveCSV(dir string, rep *model.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	day := rep.FinishedAt
	if day.IsZero() {
		day = time.Now()
	}
	path := filepath.Join(dir, Filename(day))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}
	if err := WriteCSV(f, rep.Results); err != nil {
		f.Close()
		return "", fmt.Errorf("write csv: %w", err)
	}
	return path, f.Close()
}

func row(r model.ScanResult) []string {
	days, zone, stop, targets, pullback := "", "", "", "", ""
	if r.Cross != nil {
		days = strconv.Itoa(r.Cross.DaysSince)
	}
	if p := r.Plan; p != nil {
		zone = Price(p.BuyZoneLow) + " - " + Price(p.BuyZoneHigh)
		stop = Price(p.StopLoss)
		ts := make([]string, len(p.Targets))
		for i, t := range p.Targets {
			ts[i] = Price(t)
		}
		targets = strings.Join(ts, " / ")
		pullback = strconv.FormatBool(p.GoodPullback)
	}
	return []string{
		r.Symbol,
		r.Exchange,
		Price(r.Price),
		optional(r.ChangePct, 2),
		strconv.FormatFloat(r.Volume, 'f', 0, 64),
		optional(r.VolumeRatio, 2),
		optionalPrice(r.MA20),
		optionalPrice(r.MA50),
		optionalPrice(r.MA200),
		optional(r.RSI, 1),
		strconv.FormatFloat(r.Score, 'f', -1, 64),
		r.Rating,
		days, zone, stop, targets, pullback,
		strings.Join(r.Matched, ", "),
		strings.Join(r.Notes, "; "),
	}
}

// Price renders a price with two fixed decimals.
func Price(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func optionalPrice(v model.Value) string {
	if x, ok := v.Get(); ok {
		return Price(x)
	}
	return ""
}

func optional(v model.Value, places int) string {
	if x, ok := v.Get(); ok {
		return strconv.FormatFloat(x, 'f', places, 64)
	}
	return ""
}
