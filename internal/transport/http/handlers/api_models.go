package handlers

import (
	"time"

	"github.com/arklim/shopfront/internal/core/domain"
)

// Response is the storefront API envelope. Every endpoint answers with
// success plus an optional message; flows that produce data add the
// corresponding optional fields.
type Response struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message,omitempty"`
	Token        string              `json:"token,omitempty"`
	User         *domain.PublicUser  `json:"user,omitempty"`
	Users        []domain.PublicUser `json:"users,omitempty"`
	SessionID    string              `json:"sessionId,omitempty"`
	CaptchaImage string              `json:"captchaImage,omitempty"`
}

func ok() Response {
	return Response{Success: true}
}

func fail(message string) Response {
	return Response{Success: false, Message: message}
}

// LoginRequest is the login form submission.
type LoginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Captcha   string `json:"captcha"`
	SessionID string `json:"sessionId"`
}

// RegisterRequest is the registration form submission.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest carries a profile update; empty fields are left unchanged.
type UpdateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
