package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/signal-service/internal/model"
	"github.com/yourorg/signal-service/internal/service"
	"github.com/yourorg/signal-service/internal/signal"
)

// SignalGenerator produces a trading signal for a pair
type SignalGenerator interface {
	Generate(ctx context.Context, pair string) (*service.SignalReport, error)
}

// SignalHandler handles trading signal requests
type SignalHandler struct {
	signalService SignalGenerator
	logger        *zap.Logger
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(signalService SignalGenerator, logger *zap.Logger) *SignalHandler {
	return &SignalHandler{
		signalService: signalService,
		logger:        logger,
	}
}

// GetTradingSignal computes a signal for the requested pair
// POST /api/trading-signal
func (h *SignalHandler) GetTradingSignal(c *gin.Context) {
	var request model.SignalRequest
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Pair) == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Missing 'pair' in request body."})
		return
	}

	report, err := h.signalService.Generate(c.Request.Context(), request.Pair)
	if err != nil {
		if errors.Is(err, signal.ErrNoPrices) {
			c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to fetch current market prices."})
			return
		}
		h.logger.Error("Failed to generate trading signal", zap.String("pair", request.Pair), zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Internal server error."})
		return
	}

	c.JSON(http.StatusOK, NewSignalResponse(report))
}

// NewSignalResponse renders a report with 2-decimal money fields
func NewSignalResponse(report *service.SignalReport) model.SignalResponse {
	res := report.Result

	currentSMA := "N/A"
	if res.SMA != nil {
		currentSMA = signal.FormatPrice(*res.SMA)
	}
	diffPercent := "N/A"
	if res.DiffPercent != nil {
		diffPercent = signal.FormatPrice(*res.DiffPercent)
	}

	return model.SignalResponse{
		Success:        true,
		Pair:           report.Pair,
		CoinGeckoPrice: report.CoinGeckoPrice,
		GeminiPrice:    report.GeminiPrice,
		AveragePrice:   signal.FormatPrice(res.Price),
		CurrentSMA:     currentSMA,
		DiffPercent:    diffPercent,
		Signal: model.SignalLevels{
			Entry:      signal.FormatPrice(res.Levels.Entry),
			StopLoss:   signal.FormatPrice(res.Levels.StopLoss),
			TakeProfit: signal.FormatPrice(res.Levels.TakeProfit),
			Rationale:  res.Levels.Rationale,
		},
		UTCTime: report.GeneratedAt.UTC().Format(http.TimeFormat),
	}
}
