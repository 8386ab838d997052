package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/signal-service/internal/email"
	"github.com/yourorg/signal-service/internal/handler"
	"github.com/yourorg/signal-service/internal/repository"
	"github.com/yourorg/signal-service/internal/service"
	"github.com/yourorg/signal-service/internal/signal"
)

type staticSource struct {
	name  string
	price float64
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) GetPrice(ctx context.Context, symbol string) (float64, error) {
	return s.price, nil
}

type noHistory struct{}

func (noHistory) GetHourlyPrices(ctx context.Context, symbol string, days int) ([]float64, error) {
	return nil, nil
}

type discardSender struct{}

func (discardSender) Send(ctx context.Context, msg email.Message) error { return nil }

func newTestRouter(t *testing.T, cfg RouterConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	signalService := service.NewSignalService(
		staticSource{name: "coingecko", price: 100},
		staticSource{name: "gemini", price: 100},
		noHistory{},
		signal.NewEngine(14),
		1, nil, "trading-signals", logger)
	authService := service.NewAuthService(service.AuthConfig{BotToken: "123:ABC", JWTSecret: "secret"}, nil, logger)
	verificationService := service.NewVerificationService(repository.NewMemoryTokenStore(), discardSender{}, nil,
		service.VerificationConfig{FrontendURL: "http://localhost:3000"}, logger)

	router := NewRouter(Handlers{
		Health: handler.NewHealthHandler("memory", false),
		Signal: handler.NewSignalHandler(signalService, logger),
		Auth:   handler.NewAuthHandler(authService, verificationService, logger),
	}, authService, cfg, logger)
	return router
}

func TestRouterRoutes(t *testing.T) {
	router := newTestRouter(t, RouterConfig{})

	tests := []struct {
		method   string
		path     string
		body     string
		wantCode int
	}{
		{method: http.MethodGet, path: "/", wantCode: http.StatusOK},
		{method: http.MethodGet, path: "/health", wantCode: http.StatusOK},
		{method: http.MethodPost, path: "/api/trading-signal", body: `{"pair":"BTCUSDT"}`, wantCode: http.StatusOK},
		{method: http.MethodPost, path: "/api/auth/telegram", body: `{}`, wantCode: http.StatusBadRequest},
		{method: http.MethodPost, path: "/api/auth/send-verification", body: `{"email":"a@example.com"}`, wantCode: http.StatusOK},
		{method: http.MethodGet, path: "/api/auth/verify?token=nope", wantCode: http.StatusBadRequest},
		{method: http.MethodGet, path: "/api/auth/me", wantCode: http.StatusUnauthorized},
		{method: http.MethodGet, path: "/missing", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouterCORS(t *testing.T) {
	router := newTestRouter(t, RouterConfig{})

	req := httptest.NewRequest(http.MethodOptions, "/api/trading-signal", nil)
	req.Header.Set("Origin", "https://frontend.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterMeWithToken(t *testing.T) {
	router := newTestRouter(t, RouterConfig{})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "42",
		"username": "alice",
		"type":     "access",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"telegramId":"42","username":"alice"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterRateLimitsAuthOnly(t *testing.T) {
	router := newTestRouter(t, RouterConfig{RateLimitEnabled: true, RequestsPerMinute: 1, BurstSize: 1})

	send := func(method, path, body string) int {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusBadRequest, send(http.MethodPost, "/api/auth/telegram", `{}`))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "/api/auth/telegram", `{}`))

	// signal endpoint is not limited
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send(http.MethodPost, "/api/trading-signal", `{"pair":"BTCUSDT"}`))
	}
}
