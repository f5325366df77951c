package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"stockfeed/internal/domain"
)

const DefaultExchangeRateBaseURL = "https://api.exchangerate-api.com/v4/latest"

// ExchangeRateClient reads exchangerate-api.com. The open v4 endpoint answers with
// "rates"; the keyed v6 one with "result" and "conversion_rates". Both are accepted.
type ExchangeRateClient struct {
	http    *http.Client
	baseURL string
}

type apiResponse struct {
	Result          string             `json:"result"`
	Base            string             `json:"base"`
	BaseCode        string             `json:"base_code"`
	Rates           map[string]float64 `json:"rates"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func (c *ExchangeRateClient) GetExchangeRates(ctx context.Context, base string) (map[string]float64, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + base

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for currency %q: %w", base, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request for currency %q: %w: %w", base, domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code %d for currency %q: %w", resp.StatusCode, base, domain.ErrProviderUnavailable)
	}

	var body apiResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response for currency %q: %w: %w", base, domain.ErrProviderInvalidResponse, err)
	}

	if body.Result != "" && body.Result != "success" {
		return nil, fmt.Errorf("api returned non-success result for currency %q: %s: %w", base, body.Result, domain.ErrProviderInvalidResponse)
	}

	if len(body.Rates) > 0 {
		return body.Rates, nil
	}
	return body.ConversionRates, nil
}

// GetRate returns how many pair.Quote units one pair.Base buys.
func (c *ExchangeRateClient) GetRate(ctx context.Context, pair domain.RatePair) (float64, error) {
	rates, err := c.GetExchangeRates(ctx, pair.Base)
	if err != nil {
		return 0, err
	}
	v, ok := rates[pair.Quote]
	if !ok {
		return 0, fmt.Errorf("no %s rate for base %q: %w", pair.Quote, pair.Base, domain.ErrProviderInvalidResponse)
	}
	return v, nil
}

func NewExchangeRateClient(httpClient *http.Client, baseURL string) *ExchangeRateClient {
	if baseURL == "" {
		baseURL = DefaultExchangeRateBaseURL
	}
	return &ExchangeRateClient{http: httpClient, baseURL: baseURL}
}
