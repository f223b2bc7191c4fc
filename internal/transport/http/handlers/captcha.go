package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/shopfront/internal/usecase"
)

// CaptchaHandler exposes challenge issuance and validation endpoints.
type CaptchaHandler struct {
	captchas *usecase.CaptchaService
}

// NewCaptchaHandler builds a captcha handler instance.
func NewCaptchaHandler(captchas *usecase.CaptchaService) *CaptchaHandler {
	return &CaptchaHandler{captchas: captchas}
}

// RegisterRoutes binds captcha endpoints.
func (h *CaptchaHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/image", h.Image)
	r.POST("/validate", h.Validate)
}

// Image issues a fresh challenge and returns the rendered image as a data
// URI. Passing sessionId refreshes the challenge for that session.
func (h *CaptchaHandler) Image(c *gin.Context) {
	challenge, err := h.captchas.Issue(c.Request.Context(), c.Query("sessionId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, fail("failed to generate captcha"))
		return
	}

	c.JSON(http.StatusOK, Response{
		Success:      true,
		SessionID:    challenge.SessionID,
		CaptchaImage: challenge.ImageURI,
	})
}

// Validate consumes the challenge for the submitted session and answer.
// Validation here counts as the challenge's single use.
func (h *CaptchaHandler) Validate(c *gin.Context) {
	sessionID := c.PostForm("sessionId")
	answer := c.PostForm("captcha")

	valid, err := h.captchas.Validate(c.Request.Context(), sessionID, answer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, fail("failed to validate captcha"))
		return
	}

	if !valid {
		c.JSON(http.StatusOK, fail("captcha verification failed"))
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Message: "captcha accepted"})
}
