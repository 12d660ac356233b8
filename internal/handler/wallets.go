// internal/handler/wallets.go
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

type WalletHandler struct {
	store storage.WalletStorage
}

func NewWalletHandler(store storage.WalletStorage) *WalletHandler {
	return &WalletHandler{store: store}
}

type CreateWalletRequest struct {
	Name           string `json:"name" validate:"required,notblank,max=100"`
	Type           string `json:"wallet_type" validate:"required,oneof=ASSET LIABILITY"`
	InitialBalance string `json:"initial_balance" validate:"omitempty"`
}

type UpdateWalletRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
	Type string `json:"wallet_type" validate:"required,oneof=ASSET LIABILITY"`
}

func (h *WalletHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance := decimal.Zero
	if req.InitialBalance != "" {
		var err error
		balance, err = decimal.NewFromString(req.InitialBalance)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "initial_balance must be a decimal number"})
			return
		}
	}

	wallet, err := h.store.CreateWallet(context.Background(), userID, req.Name, domain.WalletType(req.Type), balance)
	if err != nil {
		slog.Error("Failed to create wallet", "error", err, "user_id", userID)
		respondStorageErr(c, err, "Failed to create wallet")
		return
	}
	c.JSON(http.StatusCreated, wallet)
}

func (h *WalletHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	wallets, err := h.store.Wallets(context.Background(), userID)
	if err != nil {
		slog.Error("Failed to list wallets", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list wallets"})
		return
	}
	if wallets == nil {
		wallets = []domain.Wallet{}
	}
	c.JSON(http.StatusOK, wallets)
}

func (h *WalletHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	wallet, err := h.store.WalletByID(context.Background(), userID, id)
	if err != nil {
		respondStorageErr(c, err, "Failed to load wallet")
		return
	}
	c.JSON(http.StatusOK, wallet)
}

func (h *WalletHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wallet, err := h.store.UpdateWallet(context.Background(), userID, id, req.Name, domain.WalletType(req.Type))
	if err != nil {
		slog.Error("Failed to update wallet", "error", err, "user_id", userID, "wallet_id", id)
		respondStorageErr(c, err, "Failed to update wallet")
		return
	}
	c.JSON(http.StatusOK, wallet)
}

func (h *WalletHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteWallet(context.Background(), userID, id); err != nil {
		slog.Error("Failed to delete wallet", "error", err, "user_id", userID, "wallet_id", id)
		respondStorageErr(c, err, "Failed to delete wallet")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
