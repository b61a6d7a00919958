package universe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultListingURL returns listed stocks on the three Vietnamese exchanges.
const DefaultListingURL = "https://api-finfo.vndirect.com.vn/v4/stocks"

const listingQuery = "type:stock~status:listed~floor:HOSE,HNX,UPCOM"

// VNDirectLister reads the VNDirect stock listing. It remembers the floor
// each listed symbol trades on.
type VNDirectLister struct {
	URL    string
	Client *http.Client

	mu     sync.RWMutex
	floors map[string]string
}

func NewVNDirectLister(listingURL string, timeout time.Duration) *VNDirectLister {
	if listingURL == "" {
		listingURL = DefaultListingURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &VNDirectLister{URL: listingURL, Client: &http.Client{Timeout: timeout}}
}

func (l *VNDirectLister) ListSymbols(ctx context.Context) ([]string, error) {
	u := fmt.Sprintf("%s?q=%s&size=9999", l.URL, url.QueryEscape(listingQuery))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")

	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vndirect listing: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vndirect listing: status %d", resp.StatusCode)
	}

	var out struct {
		Data []struct {
			Code   string `json:"code"`
			Type   string `json:"type"`
			Status string `json:"status"`
			Floor  string `json:"floor"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("vndirect listing decode: %w", err)
	}

	syms := make([]string, 0, len(out.Data))
	floors := make(map[string]string, len(out.Data))
	for _, d := range out.Data {
		if d.Type != "" && !strings.EqualFold(d.Type, "stock") {
			continue
		}
		syms = append(syms, d.Code)
		if d.Floor != "" {
			floors[strings.ToUpper(strings.TrimSpace(d.Code))] = strings.ToUpper(d.Floor)
		}
	}

	l.mu.Lock()
	l.floors = floors
	l.mu.Unlock()
	return syms, nil
}

// Exchange returns the floor of symbol from the last listing, or "".
func (l *VNDirectLister) Exchange(symbol string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.floors[strings.ToUpper(symbol)]
}
