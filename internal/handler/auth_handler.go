package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/robinhoot/robinhoot_api/internal/middleware"
	"github.com/robinhoot/robinhoot_api/internal/service"
	"github.com/robinhoot/robinhoot_api/internal/utils"
)

type AuthHandler struct {
	register    *service.RegisterCommandHandler
	authService *service.AuthService
	rateLimiter *middleware.InvalidAuthRateLimiter
}

func NewAuthHandler(register *service.RegisterCommandHandler, authService *service.AuthService, rateLimiter *middleware.InvalidAuthRateLimiter) *AuthHandler {
	return &AuthHandler{register: register, authService: authService, rateLimiter: rateLimiter}
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var cmd service.RegisterCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "email, username and password are required")
		return
	}

	result, err := h.register.Handle(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err, "Failed to register")
		return
	}

	utils.Success(c, 201, "Registration successful", result)
}

// Login handles POST /v1/auth/login. Failed attempts count towards the
// per-IP limiter guarding this route.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCredentials) || errors.Is(err, utils.ErrInactiveAccount) {
			h.rateLimiter.RecordFailure(c.ClientIP())
		}
		respondError(c, err, "Failed to sign in")
		return
	}

	h.rateLimiter.Reset(c.ClientIP())
	utils.Success(c, 200, "Login successful", result)
}
