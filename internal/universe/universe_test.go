package universe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	syms []string
	err  error
}

func (s stubLister) ListSymbols(context.Context) ([]string, error) { return s.syms, s.err }

func TestNormalize(t *testing.T) {
	got := Normalize([]string{" vnm", "FPT", "", "  ", "Vnm", "hpg "})
	assert.Equal(t, []string{"VNM", "FPT", "HPG"}, got)
}

func TestReadSymbols(t *testing.T) {
	in := "\ufeffSymbol,Name\n# banks\nVCB,Vietcombank\n\nacb, Á Châu\nfpt\n"
	got, err := readSymbols(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"VCB", "acb", "fpt"}, got)
}

func TestResolve_StaticAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.txt")
	require.NoError(t, os.WriteFile(path, []byte("ssi\nVNM\n"), 0o644))

	got, err := Resolve(context.Background(), Config{Symbols: []string{"vnm", "hpg"}, File: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"VNM", "HPG", "SSI"}, got)
}

func TestResolve_DefaultsToFallback(t *testing.T) {
	got, err := Resolve(context.Background(), Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, Fallback, got)
}

func TestResolve_ListingFailureFallsBack(t *testing.T) {
	cfg := Config{Listing: "vndirect", MaxSymbols: 3}
	got, err := Resolve(context.Background(), cfg, stubLister{err: errors.New("timeout")})
	require.NoError(t, err)
	assert.Equal(t, []string{"VIC", "VNM", "VHM"}, got)
}

func TestResolve_Listing(t *testing.T) {
	got, err := Resolve(context.Background(), Config{Listing: "vndirect"}, stubLister{syms: []string{"aaa", "BBB"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB"}, got)
}

func TestResolve_MissingFile(t *testing.T) {
	_, err := Resolve(context.Background(), Config{File: "/nonexistent/symbols.txt"}, nil)
	assert.Error(t, err)
}

func TestVNDirectLister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, listingQuery, r.URL.Query().Get("q"))
		w.Write([]byte(`{"data":[{"code":"VNM","type":"STOCK","status":"listed","floor":"HOSE"},{"code":"E1VFVN30","type":"ETF","floor":"HOSE"},{"code":"SHB","type":"STOCK","floor":"hnx"},{"code":"FPT","type":"STOCK"}]}`))
	}))
	defer srv.Close()

	l := NewVNDirectLister(srv.URL, time.Second)
	assert.Empty(t, l.Exchange("VNM"), "nothing known before a listing")

	got, err := l.ListSymbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"VNM", "SHB", "FPT"}, got)

	assert.Equal(t, "HOSE", l.Exchange("VNM"))
	assert.Equal(t, "HNX", l.Exchange("shb"))
	assert.Empty(t, l.Exchange("FPT"))
	assert.Empty(t, l.Exchange("E1VFVN30"))
}
