package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/yourorg/signal-service/internal/market"
)

const GeminiAPIBaseURL = "https://api.gemini.com"

// GeminiClient handles communication with the Gemini public ticker API
type GeminiClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiClient creates a new Gemini API client
func NewGeminiClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *GeminiClient {
	if baseURL == "" {
		baseURL = GeminiAPIBaseURL
	}
	return &GeminiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Name identifies the source in logs and responses
func (c *GeminiClient) Name() string {
	return "gemini"
}

// GetPrice returns the last traded USD price of a pair
func (c *GeminiClient) GetPrice(ctx context.Context, symbol string) (float64, error) {
	pair, ok := market.Lookup(symbol)
	if !ok || pair.GeminiID == "" {
		return 0, fmt.Errorf("gemini %s: %w", symbol, market.ErrUnsupportedPair)
	}

	reqURL := fmt.Sprintf("%s/v1/pubticker/%s", c.baseURL, pair.GeminiID)

	body, err := getJSON(ctx, c.httpClient, reqURL, c.Name(), c.logger)
	if err != nil {
		return 0, err
	}

	// "last" is a decimal string
	last := gjson.GetBytes(body, "last")
	if !last.Exists() {
		return 0, fmt.Errorf("gemini %s: %w", symbol, ErrInvalidResponse)
	}

	price := last.Float()
	if price <= 0 {
		return 0, fmt.Errorf("gemini %s: non-positive price %q: %w", symbol, last.Raw, ErrInvalidResponse)
	}

	c.logger.Info("Gemini price",
		zap.String("pair", pair.Symbol),
		zap.String("id", pair.GeminiID),
		zap.Float64("price", price))

	return price, nil
}
