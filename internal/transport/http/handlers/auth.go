package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/shopfront/internal/usecase"
)

// AuthHandler exposes the login endpoint.
type AuthHandler struct {
	auth *usecase.AuthService
}

// NewAuthHandler builds an auth handler instance.
func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login authenticates a username/password pair gated by a captcha answer and
// returns a bearer token with the public user record.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail("invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Username:      req.Username,
		Password:      req.Password,
		SessionID:     req.SessionID,
		CaptchaAnswer: req.Captcha,
		ClientIP:      c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrCaptchaMismatch):
			c.JSON(http.StatusBadRequest, fail("captcha verification failed"))
		case errors.Is(err, usecase.ErrUnknownAccount):
			c.JSON(http.StatusUnauthorized, fail("account does not exist"))
		case errors.Is(err, usecase.ErrIncorrectCredentials):
			c.JSON(http.StatusUnauthorized, fail("incorrect username or password"))
		default:
			c.JSON(http.StatusInternalServerError, fail("login failed"))
		}
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "login successful",
		Token:   result.Token,
		User:    &result.User,
	})
}
