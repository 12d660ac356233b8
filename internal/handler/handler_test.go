// internal/handler/handler_test.go
package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dompetku/internal/auth"
	"dompetku/internal/config"
	"dompetku/internal/storage/memory"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	tokens := auth.NewTokenService(config.Config{
		JWTSecret:    "test-secret",
		JWTExpiresIn: time.Hour,
	})

	router := gin.New()
	RegisterRoutes(router, store, tokens)
	return router, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func registerUser(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/register", "", map[string]string{
		"username": username,
		"password": "hunter2hunter2",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}
	token, _ := decodeBody(t, w)["token"].(string)
	if token == "" {
		t.Fatal("register returned no token")
	}
	return token
}

func TestRegisterLoginFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	registerUser(t, router, "budi")

	// duplicate username
	w := doJSON(t, router, http.MethodPost, "/api/v1/register", "", map[string]string{
		"username": "budi",
		"password": "hunter2hunter2",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/login", "", map[string]string{
		"username": "budi",
		"password": "hunter2hunter2",
	})
	if w.Code != http.StatusOK {
		t.Errorf("login status = %d, want 200", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/login", "", map[string]string{
		"username": "budi",
		"password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", w.Code)
	}
}

func TestRequiresAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/wallets", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/wallets", "garbage-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestWalletAndTransactionFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerUser(t, router, "siti")

	w := doJSON(t, router, http.MethodPost, "/api/v1/wallets", token, map[string]string{
		"name":            "BCA",
		"wallet_type":     "ASSET",
		"initial_balance": "1000000",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create wallet status = %d, body %s", w.Code, w.Body.String())
	}
	walletID := int64(decodeBody(t, w)["id"].(float64))

	w = doJSON(t, router, http.MethodPost, "/api/v1/transactions", token, map[string]any{
		"wallet_id":        walletID,
		"amount":           "50000",
		"admin_fee":        "2500",
		"transaction_type": "EXPENSE",
		"transaction_date": "2026-08-10",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create transaction status = %d, body %s", w.Code, w.Body.String())
	}
	txID := int64(decodeBody(t, w)["id"].(float64))

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/wallets/%d", walletID), token, nil)
	if got := decodeBody(t, w)["balance"].(string); got != "947500" {
		t.Errorf("balance after expense = %s, want 947500", got)
	}

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/transactions/%d", txID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete transaction status = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/wallets/%d", walletID), token, nil)
	if got := decodeBody(t, w)["balance"].(string); got != "1000000" {
		t.Errorf("balance after delete = %s, want 1000000", got)
	}
}

func TestTransactionRejectsBadInput(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerUser(t, router, "andi")

	w := doJSON(t, router, http.MethodPost, "/api/v1/wallets", token, map[string]string{
		"name":        "Cash",
		"wallet_type": "ASSET",
	})
	walletID := int64(decodeBody(t, w)["id"].(float64))

	for name, body := range map[string]map[string]any{
		"negative amount": {
			"wallet_id": walletID, "amount": "-100",
			"transaction_type": "EXPENSE", "transaction_date": "2026-08-10",
		},
		"bad type": {
			"wallet_id": walletID, "amount": "100",
			"transaction_type": "REFUND", "transaction_date": "2026-08-10",
		},
		"bad date": {
			"wallet_id": walletID, "amount": "100",
			"transaction_type": "EXPENSE", "transaction_date": "10-08-2026",
		},
	} {
		w := doJSON(t, router, http.MethodPost, "/api/v1/transactions", token, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, w.Code)
		}
	}

	// unknown wallet
	w = doJSON(t, router, http.MethodPost, "/api/v1/transactions", token, map[string]any{
		"wallet_id": 9999, "amount": "100",
		"transaction_type": "EXPENSE", "transaction_date": "2026-08-10",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown wallet: status = %d, want 404", w.Code)
	}
}

func TestTransferEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerUser(t, router, "dewi")

	w := doJSON(t, router, http.MethodPost, "/api/v1/wallets", token, map[string]string{
		"name": "BCA", "wallet_type": "ASSET", "initial_balance": "500000",
	})
	fromID := int64(decodeBody(t, w)["id"].(float64))
	w = doJSON(t, router, http.MethodPost, "/api/v1/wallets", token, map[string]string{
		"name": "OVO", "wallet_type": "ASSET",
	})
	toID := int64(decodeBody(t, w)["id"].(float64))

	w = doJSON(t, router, http.MethodPost, "/api/v1/transfers", token, map[string]any{
		"from_wallet_id": fromID, "to_wallet_id": fromID,
		"amount": "1000", "transfer_date": "2026-08-10",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("same wallet: status = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/transfers", token, map[string]any{
		"from_wallet_id": fromID, "to_wallet_id": toID,
		"amount": "600000", "transfer_date": "2026-08-10",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("insufficient funds: status = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/transfers", token, map[string]any{
		"from_wallet_id": fromID, "to_wallet_id": toID,
		"amount": "100000", "admin_fee": "2500", "transfer_date": "2026-08-10",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("transfer status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/wallets/%d", fromID), token, nil)
	if got := decodeBody(t, w)["balance"].(string); got != "397500" {
		t.Errorf("source balance = %s, want 397500", got)
	}
	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/wallets/%d", toID), token, nil)
	if got := decodeBody(t, w)["balance"].(string); got != "100000" {
		t.Errorf("destination balance = %s, want 100000", got)
	}
}

func TestBudgetEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerUser(t, router, "rina")

	w := doJSON(t, router, http.MethodPost, "/api/v1/categories", token, map[string]string{
		"name": "Makanan",
	})
	categoryID := int64(decodeBody(t, w)["id"].(float64))

	body := map[string]any{"category_id": categoryID, "amount": "500000", "month": "2026-09"}
	if w := doJSON(t, router, http.MethodPost, "/api/v1/budgets", token, body); w.Code != http.StatusCreated {
		t.Fatalf("create budget status = %d, body %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, router, http.MethodPost, "/api/v1/budgets", token, body); w.Code != http.StatusConflict {
		t.Errorf("duplicate budget status = %d, want 409", w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/wallets", token, map[string]string{
		"name": "Cash", "wallet_type": "ASSET", "initial_balance": "1000000",
	})
	walletID := int64(decodeBody(t, w)["id"].(float64))
	doJSON(t, router, http.MethodPost, "/api/v1/transactions", token, map[string]any{
		"wallet_id": walletID, "category_id": categoryID,
		"amount": "100000", "admin_fee": "2500",
		"transaction_type": "EXPENSE", "transaction_date": "2026-09-03",
	})

	w = doJSON(t, router, http.MethodGet, "/api/v1/budgets", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list budgets status = %d", w.Code)
	}
	var budgets []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &budgets); err != nil {
		t.Fatalf("decode budgets: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("budgets = %d, want 1", len(budgets))
	}
	// spend counts the amount only, never the admin fee
	if got := budgets[0]["spent"].(string); got != "100000" {
		t.Errorf("spent = %s, want 100000", got)
	}
	if got := budgets[0]["remaining"].(string); got != "400000" {
		t.Errorf("remaining = %s, want 400000", got)
	}
	if got := budgets[0]["percentage"].(float64); got != 20 {
		t.Errorf("percentage = %v, want 20", got)
	}
}

func TestGoalSavingsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerUser(t, router, "tono")

	w := doJSON(t, router, http.MethodPost, "/api/v1/wallets", token, map[string]string{
		"name": "BCA", "wallet_type": "ASSET", "initial_balance": "300000",
	})
	walletID := int64(decodeBody(t, w)["id"].(float64))

	w = doJSON(t, router, http.MethodPost, "/api/v1/goals", token, map[string]string{
		"name": "Liburan", "target_amount": "1000000",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d, body %s", w.Code, w.Body.String())
	}
	goalID := int64(decodeBody(t, w)["id"].(float64))

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/goals/%d/savings", goalID), token, map[string]any{
		"wallet_id": walletID, "amount": "100000",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("add savings status = %d, body %s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	if got := resp["current_amount"].(string); got != "100000" {
		t.Errorf("current_amount = %s, want 100000", got)
	}
	if got := resp["percentage"].(float64); got != 10 {
		t.Errorf("percentage = %v, want 10", got)
	}

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/goals/%d/savings", goalID), token, map[string]any{
		"wallet_id": walletID, "amount": "900000",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("overdraw savings status = %d, want 400", w.Code)
	}
}

func TestCSVExport(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerUser(t, router, "wati")

	w := doJSON(t, router, http.MethodPost, "/api/v1/wallets", token, map[string]string{
		"name": "Cash", "wallet_type": "ASSET", "initial_balance": "100000",
	})
	walletID := int64(decodeBody(t, w)["id"].(float64))
	doJSON(t, router, http.MethodPost, "/api/v1/transactions", token, map[string]any{
		"wallet_id": walletID, "amount": "25000",
		"transaction_type": "EXPENSE", "transaction_date": "2026-08-05",
	})

	w = doJSON(t, router, http.MethodGet, "/api/v1/transactions/export", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "transactions.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("export lines = %d, want header + 1 row", len(lines))
	}
	if lines[0] != "date,type,payee,category,amount,admin_fee,wallet,notes" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2026-08-05,EXPENSE,") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestDashboardEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerUser(t, router, "yusuf")

	w := doJSON(t, router, http.MethodPost, "/api/v1/wallets", token, map[string]string{
		"name": "BCA", "wallet_type": "ASSET", "initial_balance": "2000000",
	})
	walletID := int64(decodeBody(t, w)["id"].(float64))
	doJSON(t, router, http.MethodPost, "/api/v1/debts", token, map[string]string{
		"lender_name": "Koperasi", "initial_amount": "500000",
	})
	doJSON(t, router, http.MethodPost, "/api/v1/transactions", token, map[string]any{
		"wallet_id": walletID, "amount": "150000",
		"transaction_type": "EXPENSE", "transaction_date": "2026-08-12",
	})

	w = doJSON(t, router, http.MethodGet, "/api/v1/dashboard", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", w.Code)
	}
	resp := decodeBody(t, w)
	if got := resp["total_assets"].(string); got != "1850000" {
		t.Errorf("total_assets = %s, want 1850000", got)
	}
	if got := resp["total_liabilities"].(string); got != "500000" {
		t.Errorf("total_liabilities = %s, want 500000", got)
	}
	if got := resp["net_worth"].(string); got != "1350000" {
		t.Errorf("net_worth = %s, want 1350000", got)
	}
	if got := resp["month"].(string); got != "2026-08" {
		t.Errorf("month = %s, want 2026-08", got)
	}
}

func TestStatementPDFEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerUser(t, router, "lina")

	w := doJSON(t, router, http.MethodPost, "/api/v1/wallets", token, map[string]string{
		"name": "Cash", "wallet_type": "ASSET", "initial_balance": "100000",
	})
	walletID := int64(decodeBody(t, w)["id"].(float64))
	doJSON(t, router, http.MethodPost, "/api/v1/transactions", token, map[string]any{
		"wallet_id": walletID, "amount": "10000",
		"transaction_type": "EXPENSE", "transaction_date": "2026-08-05",
	})

	w = doJSON(t, router, http.MethodGet, "/api/v1/reports/statement?month=2026-08", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("statement status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("body is not a PDF")
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/reports/statement?month=bogus", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad month status = %d, want 400", w.Code)
	}
}

func TestTrimToKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Makanan", 10, "Makanan"},
		{"Transportasi", 8, "Transpo~"},
		{"Кафе и рестораны", 6, "Кафе ~"},
		{"  padded  ", 10, "padded"},
	}
	for _, tt := range tests {
		if got := trimTo(tt.in, tt.max); got != tt.want {
			t.Errorf("trimTo(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestOwnershipIsolation(t *testing.T) {
	router, _ := newTestRouter(t)
	tokenA := registerUser(t, router, "alice")
	tokenB := registerUser(t, router, "bob")

	w := doJSON(t, router, http.MethodPost, "/api/v1/wallets", tokenA, map[string]string{
		"name": "Private", "wallet_type": "ASSET",
	})
	walletID := int64(decodeBody(t, w)["id"].(float64))

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/wallets/%d", walletID), tokenB, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-user read status = %d, want 404", w.Code)
	}
	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/wallets/%d", walletID), tokenB, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-user delete status = %d, want 404", w.Code)
	}
}
