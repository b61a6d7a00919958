package universe

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Fallback is scanned when no source is configured or the listing fails.
var Fallback = []string{
	"VIC", "VNM", "VHM", "HPG", "SSI", "MWG",
	"FPT", "VCB", "TCB", "ACB", "MBB", "CTG",
	"VND", "HVN", "PLX", "GAS", "POW", "SAB",
}

// Config lists where symbols come from.
type Config struct {
	Symbols    []string `yaml:"symbols" envconfig:"SCREENER_UNIVERSE_SYMBOLS"`
	File       string   `yaml:"file" envconfig:"SCREENER_UNIVERSE_FILE"`
	Listing    string   `yaml:"listing" envconfig:"SCREENER_UNIVERSE_LISTING"` // "" or "vndirect"
	ListingURL string   `yaml:"listing_url" envconfig:"SCREENER_UNIVERSE_LISTING_URL"`
	MaxSymbols int      `yaml:"max_symbols" envconfig:"SCREENER_UNIVERSE_MAX_SYMBOLS"`
}

// Lister fetches the exchange listing.
type Lister interface {
	ListSymbols(ctx context.Context) ([]string, error)
}

// Normalize trims and upper-cases symbols, dropping empties and duplicates
// while keeping first-seen order.
func Normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ReadFile loads symbols from a text or CSV file: the first column of each
// line, skipping blank lines, # comments and a symbol/ticker header.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()
	return readSymbols(f)
}

func readSymbols(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read universe file: %w", err)
		}
		if len(rec) == 0 {
			continue
		}
		first := strings.TrimPrefix(strings.TrimSpace(rec[0]), "\ufeff")
		if len(out) == 0 && (strings.EqualFold(first, "symbol") || strings.EqualFold(first, "ticker")) {
			continue
		}
		out = append(out, first)
	}
	return out, nil
}

// Resolve combines the configured sources into the scan universe. A failed
// listing falls back to the sample list rather than aborting.
func Resolve(ctx context.Context, cfg Config, lister Lister) ([]string, error) {
	raw := append([]string(nil), cfg.Symbols...)

	if cfg.File != "" {
		syms, err := ReadFile(cfg.File)
		if err != nil {
			return nil, err
		}
		raw = append(raw, syms...)
	}

	if cfg.Listing != "" {
		if lister == nil {
			return nil, fmt.Errorf("universe listing %q has no lister", cfg.Listing)
		}
		syms, err := lister.ListSymbols(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("listing", cfg.Listing).Msg("listing failed, using fallback symbols")
			raw = append(raw, Fallback...)
		case len(syms) == 0:
			log.Warn().Str("listing", cfg.Listing).Msg("listing returned nothing, using fallback symbols")
			raw = append(raw, Fallback...)
		default:
			raw = append(raw, syms...)
		}
	}

	if cfg.File == "" && cfg.Listing == "" && len(cfg.Symbols) == 0 {
		raw = append(raw, Fallback...)
	}

	out := Normalize(raw)
	if cfg.MaxSymbols > 0 && len(out) > cfg.MaxSymbols {
		log.Info().Int("total", len(out)).Int("limit", cfg.MaxSymbols).Msg("universe truncated")
		out = out[:cfg.MaxSymbols]
	}
	if len(out) == 0 {
		return nil, errors.New("universe is empty")
	}
	return out, nil
}
