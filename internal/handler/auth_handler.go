// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mohanraja088/simple-chat-app-demo/internal/services"
	"github.com/mohanraja088/simple-chat-app-demo/internal/transport/httpdto"
)

// AuthHandler handles authentication HTTP endpoints.
type AuthHandler struct {
	service *services.AuthService
	users   *services.UserService
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(service *services.AuthService, users *services.UserService) *AuthHandler {
	return &AuthHandler{service: service, users: users}
}

// Signup handles account creation.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req httpdto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "email and password required")
		return
	}

	u, err := h.service.Signup(c.Request.Context(), services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.UserResponse{User: httpdto.NewUserDTO(u)}))
}

// Login handles user authentication.
func (h *AuthHandler) Login(c *gin.Context) {
	var req httpdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "email and password required")
		return
	}

	res, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.LoginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
		User:      httpdto.NewUserDTO(res.User),
	}))
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	u, err := h.service.Me(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UserResponse{User: httpdto.NewUserDTO(u)}))
}

// Users lists every account without credentials.
func (h *AuthHandler) Users(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewUserDTOs(users)))
}
