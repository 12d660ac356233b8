package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"dompetku/internal/domain"
	"dompetku/internal/storage"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newUserWallet(t *testing.T, s *Store, balance string) (int64, *domain.Wallet) {
	t.Helper()
	ctx := context.Background()
	u, err := s.CreateUser(ctx, "budi", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	w, err := s.CreateWallet(ctx, u.ID, "Checking", domain.WalletAsset, dec(balance))
	if err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}
	return u.ID, w
}

func walletBalance(t *testing.T, s *Store, userID, id int64) decimal.Decimal {
	t.Helper()
	w, err := s.WalletByID(context.Background(), userID, id)
	if err != nil {
		t.Fatalf("WalletByID: %v", err)
	}
	return w.Balance
}

func TestTransactionLifecycleRestoresBalance(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID, w := newUserWallet(t, s, "1000000")

	tx, err := s.CreateTransaction(ctx, userID, domain.Transaction{
		WalletID: w.ID,
		Amount:   dec("50000"),
		AdminFee: decimal.Zero,
		Type:     domain.Expense,
		Date:     date(2025, 7, 10),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if got := walletBalance(t, s, userID, w.ID); !got.Equal(dec("950000")) {
		t.Fatalf("after expense: balance = %s, want 950000", got)
	}

	tx.Amount = dec("75000")
	if _, err := s.UpdateTransaction(ctx, userID, *tx); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if got := walletBalance(t, s, userID, w.ID); !got.Equal(dec("925000")) {
		t.Fatalf("after update: balance = %s, want 925000", got)
	}

	if err := s.DeleteTransaction(ctx, userID, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if got := walletBalance(t, s, userID, w.ID); !got.Equal(dec("1000000")) {
		t.Fatalf("after delete: balance = %s, want 1000000", got)
	}
}

func TestIncomeAndFeeEffects(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID, w := newUserWallet(t, s, "100000")

	if _, err := s.CreateTransaction(ctx, userID, domain.Transaction{
		WalletID: w.ID, Amount: dec("25000"), AdminFee: dec("9999"),
		Type: domain.Income, Date: date(2025, 7, 1),
	}); err != nil {
		t.Fatalf("income: %v", err)
	}
	// income ignores the fee
	if got := walletBalance(t, s, userID, w.ID); !got.Equal(dec("125000")) {
		t.Fatalf("after income: balance = %s, want 125000", got)
	}

	if _, err := s.CreateTransaction(ctx, userID, domain.Transaction{
		WalletID: w.ID, Amount: dec("10000"), AdminFee: dec("500"),
		Type: domain.Expense, Date: date(2025, 7, 2),
	}); err != nil {
		t.Fatalf("expense: %v", err)
	}
	if got := walletBalance(t, s, userID, w.ID); !got.Equal(dec("114500")) {
		t.Fatalf("after expense with fee: balance = %s, want 114500", got)
	}
}

func TestUpdateTransactionAcrossWallets(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID, w1 := newUserWallet(t, s, "500000")
	w2, err := s.CreateWallet(ctx, userID, "Savings", domain.WalletAsset, dec("200000"))
	if err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}

	tx, err := s.CreateTransaction(ctx, userID, domain.Transaction{
		WalletID: w1.ID, Amount: dec("100000"), Type: domain.Expense, Date: date(2025, 7, 5),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	tx.WalletID = w2.ID
	if _, err := s.UpdateTransaction(ctx, userID, *tx); err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}

	if got := walletBalance(t, s, userID, w1.ID); !got.Equal(dec("500000")) {
		t.Errorf("old wallet = %s, want 500000", got)
	}
	if got := walletBalance(t, s, userID, w2.ID); !got.Equal(dec("100000")) {
		t.Errorf("new wallet = %s, want 100000", got)
	}
}

func TestCreateTransfer(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID, a := newUserWallet(t, s, "2000000")
	b, err := s.CreateWallet(ctx, userID, "Savings", domain.WalletAsset, dec("500000"))
	if err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}

	if _, err := s.CreateTransfer(ctx, userID, domain.Transfer{
		FromWalletID: a.ID, ToWalletID: b.ID,
		Amount: dec("100000"), AdminFee: dec("2500"), Date: date(2025, 7, 1),
	}); err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}

	if got := walletBalance(t, s, userID, a.ID); !got.Equal(dec("1897500")) {
		t.Errorf("from wallet = %s, want 1897500", got)
	}
	if got := walletBalance(t, s, userID, b.ID); !got.Equal(dec("600000")) {
		t.Errorf("to wallet = %s, want 600000", got)
	}
}

func TestTransferValidation(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID, a := newUserWallet(t, s, "1000")
	b, _ := s.CreateWallet(ctx, userID, "Savings", domain.WalletAsset, dec("0"))

	_, err := s.CreateTransfer(ctx, userID, domain.Transfer{
		FromWalletID: a.ID, ToWalletID: a.ID, Amount: dec("100"), Date: date(2025, 7, 1),
	})
	if !errors.Is(err, storage.ErrSameWallet) {
		t.Errorf("transfer to self: err = %v, want ErrSameWallet", err)
	}

	_, err = s.CreateTransfer(ctx, userID, domain.Transfer{
		FromWalletID: a.ID, ToWalletID: b.ID,
		Amount: dec("1000"), AdminFee: dec("1"), Date: date(2025, 7, 1),
	})
	if !errors.Is(err, storage.ErrInsufficientFunds) {
		t.Errorf("insufficient funds: err = %v, want ErrInsufficientFunds", err)
	}

	// nothing moved and no record was written
	if got := walletBalance(t, s, userID, a.ID); !got.Equal(dec("1000")) {
		t.Errorf("from wallet = %s, want 1000", got)
	}
	if got := walletBalance(t, s, userID, b.ID); !got.IsZero() {
		t.Errorf("to wallet = %s, want 0", got)
	}
	trs, _ := s.Transfers(ctx, userID)
	if len(trs) != 0 {
		t.Errorf("transfers = %d, want 0", len(trs))
	}
}

func TestDeleteTransferReversesBothWallets(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID, a := newUserWallet(t, s, "2000000")
	b, _ := s.CreateWallet(ctx, userID, "Savings", domain.WalletAsset, dec("500000"))

	tr, err := s.CreateTransfer(ctx, userID, domain.Transfer{
		FromWalletID: a.ID, ToWalletID: b.ID,
		Amount: dec("100000"), AdminFee: dec("2500"), Date: date(2025, 7, 1),
	})
	if err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}
	if err := s.DeleteTransfer(ctx, userID, tr.ID); err != nil {
		t.Fatalf("DeleteTransfer: %v", err)
	}
	if got := walletBalance(t, s, userID, a.ID); !got.Equal(dec("2000000")) {
		t.Errorf("from wallet = %s, want 2000000", got)
	}
	if got := walletBalance(t, s, userID, b.ID); !got.Equal(dec("500000")) {
		t.Errorf("to wallet = %s, want 500000", got)
	}
}

func TestBalanceInvariantUnderMixedSequence(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID, w := newUserWallet(t, s, "1000000")
	other, _ := s.CreateWallet(ctx, userID, "Savings", domain.WalletAsset, dec("0"))

	tx1, _ := s.CreateTransaction(ctx, userID, domain.Transaction{
		WalletID: w.ID, Amount: dec("120000"), AdminFee: dec("1000"),
		Type: domain.Expense, Date: date(2025, 6, 2),
	})
	s.CreateTransaction(ctx, userID, domain.Transaction{
		WalletID: w.ID, Amount: dec("3000000"), Type: domain.Income, Date: date(2025, 6, 25),
	})
	s.CreateTransfer(ctx, userID, domain.Transfer{
		FromWalletID: w.ID, ToWalletID: other.ID,
		Amount: dec("500000"), AdminFee: dec("6500"), Date: date(2025, 6, 26),
	})
	tx1.Amount = dec("90000")
	s.UpdateTransaction(ctx, userID, *tx1)
	s.DeleteTransaction(ctx, userID, tx1.ID)

	// balance == initial + sum of live signed effects
	txs, _ := s.Transactions(ctx, userID)
	trs, _ := s.Transfers(ctx, userID)
	want := dec("1000000")
	for _, tx := range txs {
		if tx.WalletID == w.ID {
			want = want.Add(tx.Effect())
		}
	}
	for _, tr := range trs {
		want = want.Add(tr.EffectOn(w.ID))
	}
	if got := walletBalance(t, s, userID, w.ID); !got.Equal(want) {
		t.Errorf("balance = %s, want %s", got, want)
	}
}

func TestDeleteWalletCascadesAndRebalancesCounterparty(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID, a := newUserWallet(t, s, "1000000")
	b, _ := s.CreateWallet(ctx, userID, "Savings", domain.WalletAsset, dec("0"))

	s.CreateTransaction(ctx, userID, domain.Transaction{
		WalletID: a.ID, Amount: dec("10000"), Type: domain.Expense, Date: date(2025, 7, 1),
	})
	s.CreateTransfer(ctx, userID, domain.Transfer{
		FromWalletID: a.ID, ToWalletID: b.ID, Amount: dec("200000"), Date: date(2025, 7, 2),
	})

	if err := s.DeleteWallet(ctx, userID, a.ID); err != nil {
		t.Fatalf("DeleteWallet: %v", err)
	}

	if _, err := s.WalletByID(ctx, userID, a.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("deleted wallet still readable: %v", err)
	}
	txs, _ := s.Transactions(ctx, userID)
	if len(txs) != 0 {
		t.Errorf("transactions = %d, want 0", len(txs))
	}
	trs, _ := s.Transfers(ctx, userID)
	if len(trs) != 0 {
		t.Errorf("transfers = %d, want 0", len(trs))
	}
	// the surviving wallet no longer holds the transferred amount
	if got := walletBalance(t, s, userID, b.ID); !got.IsZero() {
		t.Errorf("counterparty balance = %s, want 0", got)
	}
}

func TestDeleteCategoryNullsTransactionReference(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID, w := newUserWallet(t, s, "100000")
	cat, _ := s.CreateCategory(ctx, userID, "Makanan", "")

	tx, _ := s.CreateTransaction(ctx, userID, domain.Transaction{
		WalletID: w.ID, CategoryID: &cat.ID,
		Amount: dec("5000"), Type: domain.Expense, Date: date(2025, 7, 1),
	})

	if err := s.DeleteCategory(ctx, userID, cat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	got, err := s.TransactionByID(ctx, userID, tx.ID)
	if err != nil {
		t.Fatalf("TransactionByID: %v", err)
	}
	if got.CategoryID != nil {
		t.Errorf("CategoryID = %v, want nil", *got.CategoryID)
	}
	// balance untouched by category deletion
	if gotBal := walletBalance(t, s, userID, w.ID); !gotBal.Equal(dec("95000")) {
		t.Errorf("balance = %s, want 95000", gotBal)
	}
}

func TestBudgetProgressAndUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID, w := newUserWallet(t, s, "1000000")
	cat, _ := s.CreateCategory(ctx, userID, "Transportasi", "")
	month := date(2025, 7, 1)

	if _, err := s.CreateBudget(ctx, userID, cat.ID, dec("500000"), month); err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	if _, err := s.CreateBudget(ctx, userID, cat.ID, dec("250000"), date(2025, 7, 15)); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate budget: err = %v, want ErrDuplicate", err)
	}

	// the admin fee hits the wallet balance but never the budget spend
	s.CreateTransaction(ctx, userID, domain.Transaction{
		WalletID: w.ID, CategoryID: &cat.ID,
		Amount: dec("100000"), AdminFee: dec("2500"),
		Type: domain.Expense, Date: date(2025, 7, 20),
	})
	// income and other months must not count as spend
	s.CreateTransaction(ctx, userID, domain.Transaction{
		WalletID: w.ID, CategoryID: &cat.ID,
		Amount: dec("999"), Type: domain.Income, Date: date(2025, 7, 21),
	})
	s.CreateTransaction(ctx, userID, domain.Transaction{
		WalletID: w.ID, CategoryID: &cat.ID,
		Amount: dec("777"), Type: domain.Expense, Date: date(2025, 8, 1),
	})

	budgets, err := s.Budgets(ctx, userID, month)
	if err != nil {
		t.Fatalf("Budgets: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("budgets = %d, want 1", len(budgets))
	}
	b := budgets[0]
	if !b.Spent.Equal(dec("100000")) {
		t.Errorf("Spent = %s, want 100000", b.Spent)
	}
	if !b.Remaining.Equal(dec("400000")) {
		t.Errorf("Remaining = %s, want 400000", b.Remaining)
	}
	if b.Percentage != 20 {
		t.Errorf("Percentage = %d, want 20", b.Percentage)
	}
}

func TestAddSavings(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID, w := newUserWallet(t, s, "300000")
	goal, _ := s.CreateGoal(ctx, userID, "Liburan", dec("1000000"), nil)

	got, err := s.AddSavings(ctx, userID, goal.ID, w.ID, dec("250000"))
	if err != nil {
		t.Fatalf("AddSavings: %v", err)
	}
	if !got.CurrentAmount.Equal(dec("250000")) {
		t.Errorf("CurrentAmount = %s, want 250000", got.CurrentAmount)
	}
	if got.PercentageComplete() != 25 {
		t.Errorf("PercentageComplete = %d, want 25", got.PercentageComplete())
	}
	if gotBal := walletBalance(t, s, userID, w.ID); !gotBal.Equal(dec("50000")) {
		t.Errorf("balance = %s, want 50000", gotBal)
	}

	txs, _ := s.Transactions(ctx, userID)
	if len(txs) != 1 || txs[0].CategoryName != domain.GoalSavingsCategory {
		t.Fatalf("expected one transaction in %q, got %+v", domain.GoalSavingsCategory, txs)
	}

	// insufficient funds now fails loudly instead of silently doing nothing
	if _, err := s.AddSavings(ctx, userID, goal.ID, w.ID, dec("60000")); !errors.Is(err, storage.ErrInsufficientFunds) {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}
	if gotBal := walletBalance(t, s, userID, w.ID); !gotBal.Equal(dec("50000")) {
		t.Errorf("balance after failed savings = %s, want 50000", gotBal)
	}
}

func TestPayDebt(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID, w := newUserWallet(t, s, "500000")
	debt, _ := s.CreateDebt(ctx, userID, "Bank Mandiri", dec("2000000"), nil, "")

	if !debt.CurrentBalance.Equal(dec("2000000")) {
		t.Fatalf("CurrentBalance = %s, want initial 2000000", debt.CurrentBalance)
	}

	got, err := s.PayDebt(ctx, userID, debt.ID, w.ID, dec("300000"))
	if err != nil {
		t.Fatalf("PayDebt: %v", err)
	}
	if !got.CurrentBalance.Equal(dec("1700000")) {
		t.Errorf("CurrentBalance = %s, want 1700000", got.CurrentBalance)
	}
	if gotBal := walletBalance(t, s, userID, w.ID); !gotBal.Equal(dec("200000")) {
		t.Errorf("balance = %s, want 200000", gotBal)
	}

	txs, _ := s.Transactions(ctx, userID)
	if len(txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txs))
	}
	if txs[0].CategoryName != domain.DebtPaymentCategory || txs[0].PayeeName != "Bank Mandiri" {
		t.Errorf("transaction tagged %q/%q, want %q/%q",
			txs[0].CategoryName, txs[0].PayeeName, domain.DebtPaymentCategory, "Bank Mandiri")
	}

	if _, err := s.PayDebt(ctx, userID, debt.ID, w.ID, dec("999999")); !errors.Is(err, storage.ErrInsufficientFunds) {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.SetClock(func() time.Time { return date(2025, 9, 15) })

	userID, w := newUserWallet(t, s, "1000000")
	s.CreateWallet(ctx, userID, "Pinjaman", domain.WalletLiability, dec("400000"))
	s.CreateDebt(ctx, userID, "Bank", dec("250000"), nil, "")
	cat, _ := s.CreateCategory(ctx, userID, "Makanan", "")

	s.CreateTransaction(ctx, userID, domain.Transaction{
		WalletID: w.ID, Amount: dec("5000000"), Type: domain.Income, Date: date(2025, 7, 1),
	})
	s.CreateTransaction(ctx, userID, domain.Transaction{
		WalletID: w.ID, CategoryID: &cat.ID,
		Amount: dec("150000"), Type: domain.Expense, Date: date(2025, 7, 12),
	})

	sum, err := s.Dashboard(ctx, userID)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	// liability wallets stay out of assets; debts drive liabilities
	if !sum.TotalAssets.Equal(dec("5850000")) {
		t.Errorf("TotalAssets = %s, want 5850000", sum.TotalAssets)
	}
	if !sum.TotalLiabilities.Equal(dec("250000")) {
		t.Errorf("TotalLiabilities = %s, want 250000", sum.TotalLiabilities)
	}
	if !sum.NetWorth.Equal(dec("5600000")) {
		t.Errorf("NetWorth = %s, want 5600000", sum.NetWorth)
	}
	// month follows the latest transaction, not the clock
	if sum.Month != "2025-07" {
		t.Errorf("Month = %s, want 2025-07", sum.Month)
	}
	if !sum.IncomeThisMonth.Equal(dec("5000000")) {
		t.Errorf("IncomeThisMonth = %s, want 5000000", sum.IncomeThisMonth)
	}
	if !sum.ExpenseThisMonth.Equal(dec("150000")) {
		t.Errorf("ExpenseThisMonth = %s, want 150000", sum.ExpenseThisMonth)
	}
	if len(sum.ExpenseByCategory) != 1 || sum.ExpenseByCategory[0].Category != "Makanan" {
		t.Fatalf("ExpenseByCategory = %+v", sum.ExpenseByCategory)
	}
}

func TestDashboardEmptyLedgerFallsBackToCurrentMonth(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.SetClock(func() time.Time { return date(2025, 9, 15) })
	userID, _ := newUserWallet(t, s, "0")

	sum, err := s.Dashboard(ctx, userID)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if sum.Month != "2025-09" {
		t.Errorf("Month = %s, want 2025-09", sum.Month)
	}
}

func TestOwnershipScoping(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID, w := newUserWallet(t, s, "100000")
	intruder, err := s.CreateUser(ctx, "intruder", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if _, err := s.WalletByID(ctx, intruder.ID, w.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("foreign wallet read: err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteWallet(ctx, intruder.ID, w.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("foreign wallet delete: err = %v, want ErrNotFound", err)
	}
	if got := walletBalance(t, s, userID, w.ID); !got.Equal(dec("100000")) {
		t.Errorf("balance = %s, want 100000", got)
	}
}
