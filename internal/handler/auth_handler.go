package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/gradebook-backend/internal/middleware"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/response"
	"github.com/stemsi/gradebook-backend/internal/service"
	"github.com/stemsi/gradebook-backend/internal/validator"
)

// AuthHandler handles operator authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// POST /api/v1/auth/login
// Validates email + password and returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if errors.Is(err, service.ErrInvalidCredentials) {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated operator.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	op, err := h.authService.Me(c.Request.Context(), claims.OperatorID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"operator": op})
}
