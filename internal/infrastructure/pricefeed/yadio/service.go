package yadio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/satdesk/satdesk-daemon/internal/core/application"
	"github.com/satdesk/satdesk-daemon/pkg/circuitbreaker"
)

var (
	// ErrPriceUnavailable ...
	ErrPriceUnavailable = errors.New("price feed unavailable")
	// ErrUnknownCurrency ...
	ErrUnknownCurrency = errors.New("unknown fiat currency")
)

type service struct {
	apiURL string
	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

// NewService returns an application.PriceSource backed by the yadio.io
// exchange rates API, guarded by a circuit breaker so a flaky feed does
// not hammer the upstream.
func NewService(apiURL string, requestTimeout time.Duration) application.PriceSource {
	return &service{
		apiURL: strings.TrimSuffix(apiURL, "/"),
		client: &http.Client{Timeout: requestTimeout},
		cb:     circuitbreaker.NewCircuitBreaker("yadio"),
	}
}

type exratesResponse struct {
	BTC map[string]float64 `json:"BTC"`
}

// GetPrice returns the current BTC price in the given fiat currency.
func (s *service) GetPrice(
	ctx context.Context, fiatCode string,
) (decimal.Decimal, error) {
	rates, err := s.cb.Execute(func() (interface{}, error) {
		return s.fetchRates(ctx)
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrPriceUnavailable, err)
	}

	price, ok := rates.(map[string]float64)[strings.ToUpper(fiatCode)]
	if !ok || price <= 0 {
		return decimal.Zero, ErrUnknownCurrency
	}
	return decimal.NewFromFloat(price), nil
}

func (s *service) fetchRates(ctx context.Context) (map[string]float64, error) {
	url := fmt.Sprintf("%s/exrates/BTC", s.apiURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var parsed exratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.BTC) == 0 {
		return nil, errors.New("empty rates response")
	}
	return parsed.BTC, nil
}
