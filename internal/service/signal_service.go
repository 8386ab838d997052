package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/signal-service/internal/events"
	"github.com/yourorg/signal-service/internal/market"
	"github.com/yourorg/signal-service/internal/signal"
)

// PriceSource returns the current price of a pair
type PriceSource interface {
	Name() string
	GetPrice(ctx context.Context, symbol string) (float64, error)
}

// HistorySource returns hourly prices of a pair, oldest first
type HistorySource interface {
	GetHourlyPrices(ctx context.Context, symbol string, days int) ([]float64, error)
}

// SignalReport is the outcome of one signal request
type SignalReport struct {
	Pair           string
	CoinGeckoPrice *float64
	GeminiPrice    *float64
	Result         *signal.Result
	GeneratedAt    time.Time
}

// SignalService fetches prices and history and runs the signal engine
type SignalService struct {
	coinGecko   PriceSource
	gemini      PriceSource
	history     HistorySource
	engine      *signal.Engine
	historyDays int
	publisher   events.Publisher
	topic       string
	logger      *zap.Logger
	now         func() time.Time
}

// NewSignalService creates a new signal service
func NewSignalService(
	coinGecko PriceSource,
	gemini PriceSource,
	history HistorySource,
	engine *signal.Engine,
	historyDays int,
	publisher events.Publisher,
	topic string,
	logger *zap.Logger,
) *SignalService {
	if historyDays <= 0 {
		historyDays = 1
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &SignalService{
		coinGecko:   coinGecko,
		gemini:      gemini,
		history:     history,
		engine:      engine,
		historyDays: historyDays,
		publisher:   publisher,
		topic:       topic,
		logger:      logger,
		now:         time.Now,
	}
}

// Generate builds a trading signal for pair. It returns signal.ErrNoPrices
// when neither source produced a price.
func (s *SignalService) Generate(ctx context.Context, pair string) (*SignalReport, error) {
	symbol := market.Normalize(pair)

	var coinGeckoPrice, geminiPrice *float64
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		coinGeckoPrice = s.fetchPrice(ctx, s.coinGecko, symbol)
	}()
	go func() {
		defer wg.Done()
		geminiPrice = s.fetchPrice(ctx, s.gemini, symbol)
	}()
	wg.Wait()

	if coinGeckoPrice == nil && geminiPrice == nil {
		s.logger.Warn("No price source available", zap.String("pair", symbol))
		return nil, fmt.Errorf("%s: %w", symbol, signal.ErrNoPrices)
	}

	history := s.fetchHistory(ctx, symbol)

	result, err := s.engine.Compute(coinGeckoPrice, geminiPrice, history)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Signal generated",
		zap.String("pair", symbol),
		zap.Float64("price", result.Price),
		zap.String("bias", string(result.Levels.Bias)))

	report := &SignalReport{
		Pair:           symbol,
		CoinGeckoPrice: coinGeckoPrice,
		GeminiPrice:    geminiPrice,
		Result:         result,
		GeneratedAt:    s.now().UTC(),
	}

	s.publish(ctx, report)

	return report, nil
}

// fetchPrice never fails; any upstream error is logged and yields nil
func (s *SignalService) fetchPrice(ctx context.Context, source PriceSource, symbol string) *float64 {
	price, err := source.GetPrice(ctx, symbol)
	if err != nil {
		s.logger.Error("Failed to fetch price",
			zap.String("source", source.Name()),
			zap.String("pair", symbol),
			zap.Error(err))
		return nil
	}
	if price <= 0 {
		return nil
	}
	return &price
}

// fetchHistory returns nil for unsupported pairs and on failure
func (s *SignalService) fetchHistory(ctx context.Context, symbol string) []float64 {
	prices, err := s.history.GetHourlyPrices(ctx, symbol, s.historyDays)
	if err != nil {
		s.logger.Debug("Historical prices unavailable", zap.String("pair", symbol), zap.Error(err))
		return nil
	}
	return prices
}

func (s *SignalService) publish(ctx context.Context, report *SignalReport) {
	levels := report.Result.Levels
	payload := map[string]interface{}{
		"pair":        report.Pair,
		"price":       report.Result.Price,
		"sma":         report.Result.SMA,
		"bias":        levels.Bias,
		"entry":       levels.Entry,
		"stop_loss":   levels.StopLoss,
		"take_profit": levels.TakeProfit,
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, s.topic, report.Pair, events.SignalGenerated, payload); err != nil {
		s.logger.Warn("failed to publish signal event", zap.Error(err), zap.String("pair", report.Pair))
	}
}
