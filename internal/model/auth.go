package model

import "time"

// TelegramAuthRequest carries the query-string encoded login widget payload
type TelegramAuthRequest struct {
	TgData string `json:"tgData"`
}

// TelegramAuthResponse is returned after a verified Telegram login
type TelegramAuthResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	User      map[string]string `json:"user"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// SendVerificationRequest asks for a verification email
type SendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// StatusResponse is the generic success/message body
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MeResponse describes the caller of an authenticated request
type MeResponse struct {
	TelegramID string `json:"telegramId"`
	Username   string `json:"username"`
}
