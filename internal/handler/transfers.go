// internal/handler/transfers.go
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"dompetku/internal/domain"
	"dompetku/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TransferHandler struct {
	store storage.TransferStorage
}

func NewTransferHandler(store storage.TransferStorage) *TransferHandler {
	return &TransferHandler{store: store}
}

type TransferRequest struct {
	FromWalletID int64  `json:"from_wallet_id" validate:"required,gt=0"`
	ToWalletID   int64  `json:"to_wallet_id" validate:"required,gt=0"`
	Amount       string `json:"amount" validate:"required"`
	AdminFee     string `json:"admin_fee" validate:"omitempty"`
	Date         string `json:"transfer_date" validate:"required,dateonly"`
	Notes        string `json:"notes" validate:"max=500"`
}

func (h *TransferHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req TransferRequest
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
	fee := decimal.Zero
	if req.AdminFee != "" {
		fee, err = decimal.NewFromString(req.AdminFee)
		if err != nil || fee.IsNegative() {
			c.JSON(http.StatusBadRequest, gin.H{"error": errBadFee.Error()})
			return
		}
	}
	date, err := parseDateOnly(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transfer_date must be in YYYY-MM-DD format"})
		return
	}

	tr := domain.Transfer{
		FromWalletID: req.FromWalletID,
		ToWalletID:   req.ToWalletID,
		Amount:       amount,
		AdminFee:     fee,
		Date:         date,
		Notes:        req.Notes,
	}

	created, err := h.store.CreateTransfer(context.Background(), userID, tr)
	if err != nil {
		slog.Error("Failed to create transfer", "error", err, "user_id", userID)
		respondStorageErr(c, err, "Failed to create transfer")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *TransferHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	transfers, err := h.store.Transfers(context.Background(), userID)
	if err != nil {
		slog.Error("Failed to list transfers", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transfers"})
		return
	}
	if transfers == nil {
		transfers = []domain.Transfer{}
	}
	c.JSON(http.StatusOK, transfers)
}

func (h *TransferHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteTransfer(context.Background(), userID, id); err != nil {
		slog.Error("Failed to delete transfer", "error", err, "user_id", userID, "transfer_id", id)
		respondStorageErr(c, err, "Failed to delete transfer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
