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

const DefaultFrankfurterBaseURL = "https://api.frankfurter.app"

// FrankfurterClient reads ECB reference rates from frankfurter.app.
type FrankfurterClient struct {
	http    *http.Client
	baseURL string
}

type frankfurterResponse struct {
	Amount float64            `json:"amount"`
	Base   string             `json:"base"`
	Date   string             `json:"date"`
	Rates  map[string]float64 `json:"rates"`
}

func (c *FrankfurterClient) GetRate(ctx context.Context, pair domain.RatePair) (float64, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return 0, fmt.Errorf("failed to parse base URL: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/latest"
	q := u.Query()
	q.Set("from", pair.Base)
	q.Set("to", pair.Quote)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request for %s: %w", pair, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request for %s: %w: %w", pair, domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("unexpected status code %d for %s: %w", resp.StatusCode, pair, domain.ErrProviderUnavailable)
	}

	var body frankfurterResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode response for %s: %w: %w", pair, domain.ErrProviderInvalidResponse, err)
	}

	v, ok := body.Rates[pair.Quote]
	if !ok {
		return 0, fmt.Errorf("no rate in response for %s: %w", pair, domain.ErrProviderInvalidResponse)
	}
	if body.Amount > 0 && body.Amount != 1 {
		v /= body.Amount
	}
	return v, nil
}

func NewFrankfurterClient(httpClient *http.Client, baseURL string) *FrankfurterClient {
	if baseURL == "" {
		baseURL = DefaultFrankfurterBaseURL
	}
	return &FrankfurterClient{http: httpClient, baseURL: baseURL}
}
