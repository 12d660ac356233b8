// internal/handler/categories.go
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"dompetku/internal/domain"
	"dompetku/internal/storage"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	store storage.CategoryStorage
}

func NewCategoryHandler(store storage.CategoryStorage) *CategoryHandler {
	return &CategoryHandler{store: store}
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"max=500"`
}

func (h *CategoryHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.store.CreateCategory(context.Background(), userID, req.Name, req.Description)
	if err != nil {
		slog.Error("Failed to create category", "error", err, "user_id", userID)
		respondStorageErr(c, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	categories, err := h.store.Categories(context.Background(), userID)
	if err != nil {
		slog.Error("Failed to list categories", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list categories"})
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.store.UpdateCategory(context.Background(), userID, id, req.Name, req.Description)
	if err != nil {
		respondStorageErr(c, err, "Failed to update category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteCategory(context.Background(), userID, id); err != nil {
		slog.Error("Failed to delete category", "error", err, "user_id", userID, "category_id", id)
		respondStorageErr(c, err, "Failed to delete category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
