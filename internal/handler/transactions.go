// internal/handler/transactions.go
package handler

import (
	"context"
	"encoding/csv"
	"log/slog"
	"net/http"

	"dompetku/internal/domain"
	"dompetku/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TransactionHandler struct {
	store storage.TransactionStorage
}

func NewTransactionHandler(store storage.TransactionStorage) *TransactionHandler {
	return &TransactionHandler{store: store}
}

type TransactionRequest struct {
	WalletID   int64  `json:"wallet_id" validate:"required,gt=0"`
	CategoryID *int64 `json:"category_id" validate:"omitempty,gt=0"`
	PayeeID    *int64 `json:"payee_id" validate:"omitempty,gt=0"`
	Amount     string `json:"amount" validate:"required"`
	AdminFee   string `json:"admin_fee" validate:"omitempty"`
	Type       string `json:"transaction_type" validate:"required,oneof=INCOME EXPENSE"`
	Date       string `json:"transaction_date" validate:"required,dateonly"`
	Notes      string `json:"notes" validate:"max=500"`
}

func (r TransactionRequest) toDomain() (domain.Transaction, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil || !amount.IsPositive() {
		return domain.Transaction{}, errBadAmount
	}
	fee := decimal.Zero
	if r.AdminFee != "" {
		fee, err = decimal.NewFromString(r.AdminFee)
		if err != nil || fee.IsNegative() {
			return domain.Transaction{}, errBadFee
		}
	}
	date, err := parseDateOnly(r.Date)
	if err != nil {
		return domain.Transaction{}, err
	}
	return domain.Transaction{
		WalletID:   r.WalletID,
		CategoryID: r.CategoryID,
		PayeeID:    r.PayeeID,
		Amount:     amount,
		AdminFee:   fee,
		Type:       domain.TransactionType(r.Type),
		Date:       date,
		Notes:      r.Notes,
	}, nil
}

func (h *TransactionHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := req.toDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.store.CreateTransaction(context.Background(), userID, tx)
	if err != nil {
		slog.Error("Failed to create transaction", "error", err, "user_id", userID)
		respondStorageErr(c, err, "Failed to create transaction")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	records, err := h.store.Transactions(context.Background(), userID)
	if err != nil {
		slog.Error("Failed to list transactions", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}
	if records == nil {
		records = []storage.TransactionRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *TransactionHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	tx, err := h.store.TransactionByID(context.Background(), userID, id)
	if err != nil {
		respondStorageErr(c, err, "Failed to load transaction")
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *TransactionHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := req.toDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx.ID = id

	updated, err := h.store.UpdateTransaction(context.Background(), userID, tx)
	if err != nil {
		slog.Error("Failed to update transaction", "error", err, "user_id", userID, "transaction_id", id)
		respondStorageErr(c, err, "Failed to update transaction")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteTransaction(context.Background(), userID, id); err != nil {
		slog.Error("Failed to delete transaction", "error", err, "user_id", userID, "transaction_id", id)
		respondStorageErr(c, err, "Failed to delete transaction")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Export streams the full ledger as CSV, oldest first.
func (h *TransactionHandler) Export(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	records, err := h.store.TransactionsForExport(context.Background(), userID)
	if err != nil {
		slog.Error("Failed to export transactions", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export transactions"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="transactions.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"date", "type", "payee", "category", "amount", "admin_fee", "wallet", "notes"})
	for _, r := range records {
		_ = w.Write([]string{
			r.Date.Format("2006-01-02"),
			string(r.Type),
			r.PayeeName,
			r.CategoryName,
			r.Amount.String(),
			r.AdminFee.String(),
			r.WalletName,
			r.Notes,
		})
	}
	w.Flush()
}
