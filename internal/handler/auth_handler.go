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
)

// TelegramAuthenticator verifies Telegram login payloads
type TelegramAuthenticator interface {
	TelegramLogin(ctx context.Context, raw string) (*service.LoginResult, error)
}

// EmailVerifier issues and redeems email verification tokens
type EmailVerifier interface {
	Issue(ctx context.Context, email string) error
	Redeem(ctx context.Context, token string) (string, error)
}

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService         TelegramAuthenticator
	verificationService EmailVerifier
	logger              *zap.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService TelegramAuthenticator, verificationService EmailVerifier, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		verificationService: verificationService,
		logger:              logger,
	}
}

// telegramErrorMessages maps verification failures to client messages
var telegramErrorMessages = map[error]string{
	service.ErrMissingHash:         "No hash parameter found.",
	service.ErrHashMismatch:        "Data verification failed.",
	service.ErrAuthDataOutdated:    "Authentication data is outdated.",
	service.ErrInvalidTelegramData: "Invalid Telegram data.",
}

// TelegramAuth verifies a Telegram login widget payload
// POST /api/auth/telegram
func (h *AuthHandler) TelegramAuth(c *gin.Context) {
	var request model.TelegramAuthRequest
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.TgData) == "" {
		c.JSON(http.StatusBadRequest, model.StatusResponse{Success: false, Message: "No Telegram data provided."})
		return
	}

	result, err := h.authService.TelegramLogin(c.Request.Context(), request.TgData)
	if err != nil {
		for target, message := range telegramErrorMessages {
			if errors.Is(err, target) {
				c.JSON(http.StatusBadRequest, model.StatusResponse{Success: false, Message: message})
				return
			}
		}
		h.logger.Error("telegram authentication failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.StatusResponse{Success: false, Message: "Internal server error."})
		return
	}

	c.JSON(http.StatusOK, model.TelegramAuthResponse{
		Success:   true,
		Message:   "User authenticated successfully.",
		User:      result.User,
		Token:     result.AccessToken,
		ExpiresAt: result.ExpiresAt,
	})
}

// Me returns the identity carried by the access token
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	telegramID := c.GetString("telegramID")
	if telegramID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, model.MeResponse{
		TelegramID: telegramID,
		Username:   c.GetString("username"),
	})
}

// SendVerification emails a single-use verification link
// POST /api/auth/send-verification
func (h *AuthHandler) SendVerification(c *gin.Context) {
	var request model.SendVerificationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		message := "Invalid email address."
		if strings.TrimSpace(request.Email) == "" {
			message = "Email is required."
		}
		c.JSON(http.StatusBadRequest, model.StatusResponse{Success: false, Message: message})
		return
	}

	if err := h.verificationService.Issue(c.Request.Context(), request.Email); err != nil {
		h.logger.Error("failed to issue verification token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.StatusResponse{Success: false, Message: "Failed to send verification email."})
		return
	}

	c.JSON(http.StatusOK, model.StatusResponse{Success: true, Message: "Verification email sent."})
}

// Verify redeems a verification token
// GET /api/auth/verify?token=
func (h *AuthHandler) Verify(c *gin.Context) {
	_, err := h.verificationService.Redeem(c.Request.Context(), c.Query("token"))
	switch {
	case err == nil:
		c.String(http.StatusOK, "Email verified successfully!")
	case errors.Is(err, service.ErrTokenExpired):
		c.String(http.StatusBadRequest, "Token has expired.")
	case errors.Is(err, service.ErrInvalidToken):
		c.String(http.StatusBadRequest, "Invalid or expired token.")
	default:
		h.logger.Error("failed to redeem verification token", zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal server error.")
	}
}
