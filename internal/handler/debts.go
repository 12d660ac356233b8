// internal/handler/debts.go
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

type DebtHandler struct {
	store storage.DebtStorage
}

func NewDebtHandler(store storage.DebtStorage) *DebtHandler {
	return &DebtHandler{store: store}
}

type CreateDebtRequest struct {
	LenderName    string `json:"lender_name" validate:"required,notblank,max=100"`
	InitialAmount string `json:"initial_amount" validate:"required"`
	DueDate       string `json:"due_date" validate:"omitempty,dateonly"`
	Notes         string `json:"notes" validate:"max=500"`
}

type PayDebtRequest struct {
	WalletID int64  `json:"wallet_id" validate:"required,gt=0"`
	Amount   string `json:"amount" validate:"required"`
}

func (h *DebtHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	initial, err := decimal.NewFromString(req.InitialAmount)
	if err != nil || !initial.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "initial_amount must be a positive decimal number"})
		return
	}
	var dueDate *time.Time
	if req.DueDate != "" {
		d, err := parseDateOnly(req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must be in YYYY-MM-DD format"})
			return
		}
		dueDate = &d
	}

	debt, err := h.store.CreateDebt(context.Background(), userID, req.LenderName, initial, dueDate, req.Notes)
	if err != nil {
		slog.Error("Failed to create debt", "error", err, "user_id", userID)
		respondStorageErr(c, err, "Failed to create debt")
		return
	}
	c.JSON(http.StatusCreated, debt)
}

func (h *DebtHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	debts, err := h.store.Debts(context.Background(), userID)
	if err != nil {
		slog.Error("Failed to list debts", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list debts"})
		return
	}
	if debts == nil {
		debts = []domain.Debt{}
	}
	c.JSON(http.StatusOK, debts)
}

func (h *DebtHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteDebt(context.Background(), userID, id); err != nil {
		respondStorageErr(c, err, "Failed to delete debt")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Pay books a repayment from a wallet. The expense is tagged with the
// reserved debt-payment category and a payee named after the lender.
func (h *DebtHandler) Pay(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req PayDebtRequest
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

	debt, err := h.store.PayDebt(context.Background(), userID, id, req.WalletID, amount)
	if err != nil {
		slog.Error("Failed to pay debt", "error", err, "user_id", userID, "debt_id", id)
		respondStorageErr(c, err, "Failed to pay debt")
		return
	}
	c.JSON(http.StatusOK, debt)
}
