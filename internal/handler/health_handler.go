package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourorg/signal-service/internal/model"
)

// HealthHandler reports liveness
type HealthHandler struct {
	tokenStore   string
	kafkaEnabled bool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(tokenStore string, kafkaEnabled bool) *HealthHandler {
	return &HealthHandler{
		tokenStore:   tokenStore,
		kafkaEnabled: kafkaEnabled,
	}
}

// Root answers the plain-text liveness probe
// GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Trading Signals Backend is running!")
}

// Health reports the configured backends
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	kafka := "disabled"
	if h.kafkaEnabled {
		kafka = "enabled"
	}
	c.JSON(http.StatusOK, model.HealthResponse{
		Status:     "ok",
		TokenStore: h.tokenStore,
		Kafka:      kafka,
	})
}
