package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/yourorg/signal-service/internal/market"
)

const (
	CoinGeckoAPIBaseURL = "https://api.coingecko.com/api/v3"
	quoteCurrency       = "usdt"
)

var (
	// ErrInvalidResponse is returned when an upstream body lacks the expected fields
	ErrInvalidResponse = errors.New("invalid upstream response")
	// ErrHistoryUnsupported is returned for pairs without an hourly history source
	ErrHistoryUnsupported = errors.New("historical prices not supported for pair")
)

// CoinGeckoClient handles communication with the CoinGecko API
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCoinGeckoClient creates a new CoinGecko API client
func NewCoinGeckoClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = CoinGeckoAPIBaseURL
	}
	return &CoinGeckoClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Name identifies the source in logs and responses
func (c *CoinGeckoClient) Name() string {
	return "coingecko"
}

// GetPrice returns the current USDT price of a pair
func (c *CoinGeckoClient) GetPrice(ctx context.Context, symbol string) (float64, error) {
	pair, ok := market.Lookup(symbol)
	if !ok || pair.CoinGeckoID == "" {
		return 0, fmt.Errorf("coingecko %s: %w", symbol, market.ErrUnsupportedPair)
	}

	params := url.Values{}
	params.Add("ids", pair.CoinGeckoID)
	params.Add("vs_currencies", quoteCurrency)
	reqURL := fmt.Sprintf("%s/simple/price?%s", c.baseURL, params.Encode())

	body, err := getJSON(ctx, c.httpClient, reqURL, c.Name(), c.logger)
	if err != nil {
		return 0, err
	}

	result := gjson.GetBytes(body, pair.CoinGeckoID+"."+quoteCurrency)
	if !result.Exists() {
		return 0, fmt.Errorf("coingecko %s: %w", symbol, ErrInvalidResponse)
	}

	price := result.Float()
	if price <= 0 {
		return 0, fmt.Errorf("coingecko %s: non-positive price %q: %w", symbol, result.Raw, ErrInvalidResponse)
	}

	c.logger.Info("CoinGecko price",
		zap.String("pair", pair.Symbol),
		zap.String("id", pair.CoinGeckoID),
		zap.Float64("price", price))

	return price, nil
}

// GetHourlyPrices returns hourly closing prices, oldest first, over the last days
func (c *CoinGeckoClient) GetHourlyPrices(ctx context.Context, symbol string, days int) ([]float64, error) {
	pair, ok := market.Lookup(symbol)
	if !ok || !pair.HasHistory {
		return nil, fmt.Errorf("coingecko %s: %w", symbol, ErrHistoryUnsupported)
	}

	params := url.Values{}
	params.Add("vs_currency", quoteCurrency)
	params.Add("days", strconv.Itoa(days))
	params.Add("interval", "hourly")
	reqURL := fmt.Sprintf("%s/coins/%s/market_chart?%s", c.baseURL, pair.CoinGeckoID, params.Encode())

	body, err := getJSON(ctx, c.httpClient, reqURL, c.Name(), c.logger)
	if err != nil {
		return nil, err
	}

	if !gjson.GetBytes(body, "prices").IsArray() {
		return nil, fmt.Errorf("coingecko %s history: %w", symbol, ErrInvalidResponse)
	}

	// each entry is [timestampMs, price]
	points := gjson.GetBytes(body, "prices.#.1").Array()
	prices := make([]float64, 0, len(points))
	for _, p := range points {
		prices = append(prices, p.Float())
	}

	if n := len(prices); n > 0 {
		tail := prices[max(0, n-5):]
		c.logger.Debug("Historical prices", zap.String("pair", pair.Symbol), zap.Int("count", n), zap.Float64s("last", tail))
	}

	return prices, nil
}
