package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"MarketScanner/internal/model"
)

// DefaultVNDirectURL is the public finfo API root.
const DefaultVNDirectURL = "https://api-finfo.vndirect.com.vn"

// VNDirectFetcher implements Fetcher using the VNDirect finfo REST API.
// Prices are published in thousands of VND.
type VNDirectFetcher struct {
	BaseURL    string
	Client     *http.Client
	PriceScale float64
}

// NewVNDirectFetcher creates a new fetcher with optional proxy support.
func NewVNDirectFetcher(baseURL, proxyURL string, timeout time.Duration) *VNDirectFetcher {
	if baseURL == "" {
		baseURL = DefaultVNDirectURL
	}
	return &VNDirectFetcher{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Client:     newHTTPClient(proxyURL, timeout),
		PriceScale: 1000,
	}
}

func (f *VNDirectFetcher) Name() string { return "vndirect" }

// vndBar is one row of /v4/stock_prices.
type vndBar struct {
	Code     string   `json:"code"`
	Date     string   `json:"date"`
	Open     *float64 `json:"open"`
	High     *float64 `json:"high"`
	Low      *float64 `json:"low"`
	Close    *float64 `json:"close"`
	NmVolume *float64 `json:"nmVolume"`
}

type vndResponse struct {
	Data          []vndBar `json:"data"`
	TotalElements int      `json:"totalElements"`
}

func (f *VNDirectFetcher) FetchBars(ctx context.Context, symbol string, start, end time.Time, res model.Resolution) ([]model.Bar, error) {
	bars, err := f.fetchDaily(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if res == model.ResolutionWeekly {
		return aggregateDailyToWeekly(bars), nil
	}
	return bars, nil
}

func (f *VNDirectFetcher) fetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	q := fmt.Sprintf("code:%s~date:gte:%s~date:lte:%s",
		symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	// one row per calendar day is an upper bound on trading sessions
	size := int(end.Sub(start).Hours()/24) + 1
	endpoint := fmt.Sprintf("%s/v4/stock_prices?sort=date&q=%s&size=%d&page=1",
		f.BaseURL, url.QueryEscape(q), size)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	setBrowserHeaders(req)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vndirect fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vndirect read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vndirect: status %d, body: %s", resp.StatusCode, truncate(body, 200))
	}

	var out vndResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("vndirect decode: %w", err)
	}

	bars := make([]model.Bar, 0, len(out.Data))
	for _, row := range out.Data {
		if row.Open == nil || row.High == nil || row.Low == nil || row.Close == nil {
			continue
		}
		if *row.Open == 0 && *row.High == 0 && *row.Low == 0 && *row.Close == 0 {
			continue // suspended sessions
		}
		t, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		vol := 0.0
		if row.NmVolume != nil {
			vol = *row.NmVolume
		}
		bars = append(bars, model.Bar{
			Time:   t,
			Open:   *row.Open * f.PriceScale,
			High:   *row.High * f.PriceScale,
			Low:    *row.Low * f.PriceScale,
			Close:  *row.Close * f.PriceScale,
			Volume: vol,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("vndirect %s: %w", symbol, ErrNoData)
	}

	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
