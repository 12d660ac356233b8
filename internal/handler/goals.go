// internal/handler/goals.go
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

type GoalHandler struct {
	store storage.GoalStorage
}

func NewGoalHandler(store storage.GoalStorage) *GoalHandler {
	return &GoalHandler{store: store}
}

type CreateGoalRequest struct {
	Name         string `json:"name" validate:"required,notblank,max=100"`
	TargetAmount string `json:"target_amount" validate:"required"`
	TargetDate   string `json:"target_date" validate:"omitempty,dateonly"`
}

type AddSavingsRequest struct {
	WalletID int64  `json:"wallet_id" validate:"required,gt=0"`
	Amount   string `json:"amount" validate:"required"`
}

type goalResponse struct {
	domain.FinancialGoal
	Percentage int `json:"percentage"`
}

func goalToResponse(g domain.FinancialGoal) goalResponse {
	return goalResponse{FinancialGoal: g, Percentage: g.PercentageComplete()}
}

func (h *GoalHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := decimal.NewFromString(req.TargetAmount)
	if err != nil || !target.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_amount must be a positive decimal number"})
		return
	}
	var targetDate *time.Time
	if req.TargetDate != "" {
		d, err := parseDateOnly(req.TargetDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target_date must be in YYYY-MM-DD format"})
			return
		}
		targetDate = &d
	}

	goal, err := h.store.CreateGoal(context.Background(), userID, req.Name, target, targetDate)
	if err != nil {
		slog.Error("Failed to create goal", "error", err, "user_id", userID)
		respondStorageErr(c, err, "Failed to create goal")
		return
	}
	c.JSON(http.StatusCreated, goalToResponse(*goal))
}

func (h *GoalHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	goals, err := h.store.Goals(context.Background(), userID)
	if err != nil {
		slog.Error("Failed to list goals", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list goals"})
		return
	}
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, goalToResponse(g))
	}
	c.JSON(http.StatusOK, out)
}

func (h *GoalHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteGoal(context.Background(), userID, id); err != nil {
		respondStorageErr(c, err, "Failed to delete goal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AddSavings moves money from a wallet into the goal. The expense it
// books lands in the reserved savings category.
func (h *GoalHandler) AddSavings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req AddSavingsRequest
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

	goal, err := h.store.AddSavings(context.Background(), userID, id, req.WalletID, amount)
	if err != nil {
		slog.Error("Failed to add savings", "error", err, "user_id", userID, "goal_id", id)
		respondStorageErr(c, err, "Failed to add savings")
		return
	}
	c.JSON(http.StatusOK, goalToResponse(*goal))
}
