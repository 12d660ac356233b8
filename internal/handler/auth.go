// internal/handler/auth.go
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"dompetku/internal/auth"
	"dompetku/internal/storage"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	store  storage.UserStorage
	tokens *auth.TokenService
}

func NewAuthHandler(store storage.UserStorage, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,notblank,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LinkTelegramRequest struct {
	TelegramID int64 `json:"telegram_id" validate:"required,gt=0"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	user, err := h.store.CreateUser(context.Background(), req.Username, hash)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		slog.Error("Failed to create user", "error", err, "username", req.Username)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		slog.Error("Failed to generate token", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	slog.Info("User registered", "user_id", user.ID, "username", user.Username)
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.store.UserByUsername(context.Background(), req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		slog.Error("Login lookup failed", "error", err, "username", req.Username)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		slog.Error("Failed to generate token", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.store.UserByID(context.Background(), userID)
	if err != nil {
		respondStorageErr(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

// LinkTelegram binds a Telegram account to the authenticated user so the
// bot can resolve incoming chats back to a ledger.
func (h *AuthHandler) LinkTelegram(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req LinkTelegramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.LinkTelegram(context.Background(), userID, req.TelegramID); err != nil {
		slog.Error("Failed to link telegram", "error", err, "user_id", userID)
		respondStorageErr(c, err, "Failed to link telegram")
		return
	}

	slog.Info("Telegram linked", "user_id", userID, "telegram_id", req.TelegramID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
