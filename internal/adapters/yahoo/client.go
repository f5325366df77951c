// Package yahoo reads quotes from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stockfeed/internal/domain"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultUserAgent = "Mozilla/5.0 (compatible; stockfeed/1.0)"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=yahoo_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL    string
	httpClient HTTPClient
	userAgent  string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent overrides the User-Agent header; Yahoo rejects Go's default one.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func NewClient(options ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		userAgent:  DefaultUserAgent,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta chartMeta `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	ChartPreviousClose float64 `json:"chartPreviousClose"`
	RegularMarketTime  int64   `json:"regularMarketTime"`
}

// Quote returns the latest regular-market quote for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (domain.SymbolQuote, error) {
	meta, err := c.chartMeta(ctx, symbol)
	if err != nil {
		return domain.SymbolQuote{}, err
	}

	asOf := time.Now().UTC()
	if meta.RegularMarketTime > 0 {
		asOf = time.Unix(meta.RegularMarketTime, 0).UTC()
	}
	return domain.SymbolQuote{
		Symbol:        symbol,
		Price:         meta.RegularMarketPrice,
		PreviousClose: meta.ChartPreviousClose,
		Currency:      strings.ToUpper(meta.Currency),
		AsOf:          asOf,
	}, nil
}

// Price returns only the regular-market price, e.g. for a currency ticker like USDINR=X.
func (c *Client) Price(ctx context.Context, ticker string) (float64, error) {
	meta, err := c.chartMeta(ctx, ticker)
	if err != nil {
		return 0, err
	}
	return meta.RegularMarketPrice, nil
}

func (c *Client) chartMeta(ctx context.Context, symbol string) (chartMeta, error) {
	query := url.Values{}
	query.Set("range", "2d")
	query.Set("interval", "1d")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return chartMeta{}, fmt.Errorf("creating request for %q: %w", symbol, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return chartMeta{}, fmt.Errorf("performing request for %q: %w: %w", symbol, domain.ErrProviderUnavailable, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return chartMeta{}, fmt.Errorf("symbol %q not found: %w", symbol, domain.ErrProviderInvalidResponse)
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return chartMeta{}, fmt.Errorf("unexpected status code %d for %q: %w", res.StatusCode, symbol, domain.ErrProviderUnavailable)
	}

	var body chartResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return chartMeta{}, fmt.Errorf("decoding response for %q: %w: %w", symbol, domain.ErrProviderInvalidResponse, err)
	}
	if body.Chart.Error != nil {
		return chartMeta{}, fmt.Errorf("chart error for %q: %s: %w", symbol, body.Chart.Error.Description, domain.ErrProviderInvalidResponse)
	}
	if len(body.Chart.Result) == 0 {
		return chartMeta{}, fmt.Errorf("empty chart for %q: %w", symbol, domain.ErrProviderInvalidResponse)
	}

	meta := body.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return chartMeta{}, fmt.Errorf("non-positive price %v for %q: %w", meta.RegularMarketPrice, symbol, domain.ErrProviderInvalidResponse)
	}
	return meta, nil
}
