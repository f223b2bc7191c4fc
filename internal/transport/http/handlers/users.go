package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/shopfront/internal/usecase"
)

// UserHandler exposes registration and account management endpoints.
type UserHandler struct {
	users *usecase.UserService
}

// NewUserHandler builds a user handler instance.
func NewUserHandler(users *usecase.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register creates a new account.
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail("invalid registration payload"))
		return
	}

	user, err := h.users.Register(c.Request.Context(), usecase.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUsernameTooShort),
			errors.Is(err, usecase.ErrInvalidEmail),
			errors.Is(err, usecase.ErrPasswordTooShort),
			errors.Is(err, usecase.ErrUsernameTaken):
			c.JSON(http.StatusBadRequest, fail(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, fail("registration failed"))
		}
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "registration successful",
		User:    user,
	})
}

// Get returns a single account.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, fail("user not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, fail("failed to load user"))
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, User: user})
}

// List returns all accounts.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, fail("failed to list users"))
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Users: users})
}

// Update modifies an account's email or password.
func (h *UserHandler) Update(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail("invalid update payload"))
		return
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("id"), usecase.UpdateInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			c.JSON(http.StatusNotFound, fail("user not found"))
		case errors.Is(err, usecase.ErrInvalidEmail),
			errors.Is(err, usecase.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, fail(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, fail("failed to update user"))
		}
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, User: user})
}

// Delete removes an account.
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, fail("user not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, fail("failed to delete user"))
		return
	}

	c.JSON(http.StatusOK, ok())
}
