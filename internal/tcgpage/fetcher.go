package tcgpage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/corpix/uarand"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/net/html/charset"

	domerrors "github.com/garyellow/triangulator-go/internal/errors"
)

// maxPageBytes bounds a fetched page.
const maxPageBytes = 8 << 20

// Fetcher downloads TCG pages.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a fetcher. A nil client selects one with the given timeout.
func NewFetcher(httpClient *http.Client, timeout time.Duration) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Fetcher{httpClient: httpClient}
}

// Fetch downloads url and parses its course rows.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domerrors.ErrInvalidInput, err)
	}

	// Random User-Agent
	req.Header.Set("User-Agent", uarand.GetRandom())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, domerrors.NewUpstreamError(url, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domerrors.NewUpstreamError(url, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var reader io.Reader = io.LimitReader(resp.Body, maxPageBytes)
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, domerrors.NewUpstreamError(url, resp.StatusCode, fmt.Errorf("failed to decompress gzip: %w", err))
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	}

	// Legacy pages are not always UTF-8.
	decoded, err := charset.NewReader(reader, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, domerrors.NewUpstreamError(url, resp.StatusCode, fmt.Errorf("failed to decode charset: %w", err))
	}

	return Parse(decoded)
}
