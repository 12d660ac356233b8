// internal/handler/payees.go
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"dompetku/internal/domain"
	"dompetku/internal/storage"

	"github.com/gin-gonic/gin"
)

type PayeeHandler struct {
	store storage.PayeeStorage
}

func NewPayeeHandler(store storage.PayeeStorage) *PayeeHandler {
	return &PayeeHandler{store: store}
}

type PayeeRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

func (h *PayeeHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req PayeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payee, err := h.store.CreatePayee(context.Background(), userID, req.Name)
	if err != nil {
		slog.Error("Failed to create payee", "error", err, "user_id", userID)
		respondStorageErr(c, err, "Failed to create payee")
		return
	}
	c.JSON(http.StatusCreated, payee)
}

func (h *PayeeHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	payees, err := h.store.Payees(context.Background(), userID)
	if err != nil {
		slog.Error("Failed to list payees", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list payees"})
		return
	}
	if payees == nil {
		payees = []domain.Payee{}
	}
	c.JSON(http.StatusOK, payees)
}

func (h *PayeeHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req PayeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payee, err := h.store.UpdatePayee(context.Background(), userID, id, req.Name)
	if err != nil {
		respondStorageErr(c, err, "Failed to update payee")
		return
	}
	c.JSON(http.StatusOK, payee)
}

func (h *PayeeHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.store.DeletePayee(context.Background(), userID, id); err != nil {
		respondStorageErr(c, err, "Failed to delete payee")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
