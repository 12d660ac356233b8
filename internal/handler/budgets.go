// internal/handler/budgets.go
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"dompetku/internal/domain"
	"dompetku/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BudgetHandler struct {
	store storage.BudgetStorage
}

func NewBudgetHandler(store storage.BudgetStorage) *BudgetHandler {
	return &BudgetHandler{store: store}
}

type CreateBudgetRequest struct {
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
	Amount     string `json:"amount" validate:"required"`
	Month      string `json:"month" validate:"required,yearmonth"`
}

type UpdateBudgetRequest struct {
	Amount string `json:"amount" validate:"required"`
}

func (h *BudgetHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadAmount.Error()})
		return
	}
	month, err := parseYearMonth(req.Month)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be in YYYY-MM format"})
		return
	}

	budget, err := h.store.CreateBudget(context.Background(), userID, req.CategoryID, amount, month)
	if err != nil {
		slog.Error("Failed to create budget", "error", err, "user_id", userID)
		respondStorageErr(c, err, "Failed to create budget")
		return
	}
	c.JSON(http.StatusCreated, budget)
}

// List shows current and upcoming budgets with spend computed fresh.
// Past months drop off rather than being deleted.
func (h *BudgetHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	from := domain.MonthOf(time.Now())
	if s := c.Query("from"); s != "" {
		m, err := parseYearMonth(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be in YYYY-MM format"})
			return
		}
		from = m
	}

	budgets, err := h.store.Budgets(context.Background(), userID, from)
	if err != nil {
		slog.Error("Failed to list budgets", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list budgets"})
		return
	}
	if budgets == nil {
		budgets = []domain.BudgetProgress{}
	}
	c.JSON(http.StatusOK, budgets)
}

func (h *BudgetHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBadAmount.Error()})
		return
	}

	budget, err := h.store.UpdateBudget(context.Background(), userID, id, amount)
	if err != nil {
		respondStorageErr(c, err, "Failed to update budget")
		return
	}
	c.JSON(http.StatusOK, budget)
}

func (h *BudgetHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteBudget(context.Background(), userID, id); err != nil {
		respondStorageErr(c, err, "Failed to delete budget")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
