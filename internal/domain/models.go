// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type WalletType string

const (
	WalletAsset     WalletType = "ASSET"
	WalletLiability WalletType = "LIABILITY"
)

type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// Reserved category names used by the goal-savings and debt-payment flows.
const (
	GoalSavingsCategory = "Tabungan Tujuan"
	DebtPaymentCategory = "Pembayaran Utang"
)

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	TelegramID   *int64 `json:"telegram_id,omitempty"`
}

// Wallet carries a denormalized balance. It must always equal the sum of
// signed effects of every live transaction and transfer touching it.
type Wallet struct {
	ID      int64           `json:"id"`
	UserID  int64           `json:"-"`
	Name    string          `json:"name"`
	Type    WalletType      `json:"wallet_type"`
	Balance decimal.Decimal `json:"balance"`
}

type Category struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Payee struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"-"`
	Name   string `json:"name"`
}

type Transaction struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"-"`
	WalletID   int64           `json:"wallet_id"`
	CategoryID *int64          `json:"category_id,omitempty"`
	PayeeID    *int64          `json:"payee_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	AdminFee   decimal.Decimal `json:"admin_fee"`
	Type       TransactionType `json:"transaction_type"`
	Date       time.Time       `json:"transaction_date"`
	Notes      string          `json:"notes,omitempty"`
}

// Effect is the signed change this transaction applies to its wallet's
// balance: INCOME adds the amount, EXPENSE removes amount plus admin fee.
// The fee has no effect on income.
func (t Transaction) Effect() decimal.Decimal {
	if t.Type == Income {
		return t.Amount
	}
	return t.Amount.Add(t.AdminFee).Neg()
}

type Budget struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"-"`
	CategoryID int64           `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Month      time.Time       `json:"month"`
}

// BudgetProgress is a budget with its spend-to-date, computed fresh on
// every read.
type BudgetProgress struct {
	Budget
	CategoryName string          `json:"category_name"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	Percentage   int             `json:"percentage"`
}

// Progress fills Spent, Remaining and Percentage from the given spend.
func (b Budget) Progress(categoryName string, spent decimal.Decimal) BudgetProgress {
	p := BudgetProgress{Budget: b, CategoryName: categoryName, Spent: spent}
	p.Remaining = b.Amount.Sub(spent)
	if b.Amount.IsPositive() {
		p.Percentage = int(spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).IntPart())
	}
	return p
}

type FinancialGoal struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"-"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    *time.Time      `json:"target_date,omitempty"`
}

func (g FinancialGoal) PercentageComplete() int {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	return int(g.CurrentAmount.Div(g.TargetAmount).Mul(decimal.NewFromInt(100)).IntPart())
}

type Debt struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"-"`
	LenderName     string          `json:"lender_name"`
	InitialAmount  decimal.Decimal `json:"initial_amount"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

type Transfer struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"-"`
	FromWalletID int64           `json:"from_wallet_id"`
	ToWalletID   int64           `json:"to_wallet_id"`
	Amount       decimal.Decimal `json:"amount"`
	AdminFee     decimal.Decimal `json:"admin_fee"`
	Date         time.Time       `json:"transfer_date"`
	Notes        string          `json:"notes,omitempty"`
}

// EffectOn is the signed change this transfer applies to the given wallet.
// The source pays amount plus fee, the destination receives the amount
// only: the fee is absorbed.
func (tr Transfer) EffectOn(walletID int64) decimal.Decimal {
	switch walletID {
	case tr.FromWalletID:
		return tr.Amount.Add(tr.AdminFee).Neg()
	case tr.ToWalletID:
		return tr.Amount
	}
	return decimal.Zero
}

type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type DashboardSummary struct {
	TotalAssets       decimal.Decimal  `json:"total_assets"`
	TotalLiabilities  decimal.Decimal  `json:"total_liabilities"`
	NetWorth          decimal.Decimal  `json:"net_worth"`
	Month             string           `json:"month"`
	IncomeThisMonth   decimal.Decimal  `json:"income_this_month"`
	ExpenseThisMonth  decimal.Decimal  `json:"expense_this_month"`
	ExpenseByCategory []CategoryAmount `json:"expense_by_category"`
}

// MonthOf truncates a date to the first day of its calendar month.
func MonthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
