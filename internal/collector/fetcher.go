package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"MarketScanner/internal/model"
)

// ErrNoData is returned when a provider has no bars for the request.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching market data. Bars come back in
// ascending time order.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string, start, end time.Time, res model.Resolution) ([]model.Bar, error)
	Name() string
}

func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// setBrowserHeaders makes requests look like they come from a browser; both
// providers reject bare Go clients from time to time.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")
}
