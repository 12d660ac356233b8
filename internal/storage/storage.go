// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"time"

	"dompetku/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound covers any entity that does not exist or is not owned
	// by the calling user.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned on per-user uniqueness violations
	// (budget category+month, wallet/category/payee names, usernames).
	ErrDuplicate = errors.New("already exists")
	// ErrSameWallet rejects transfers where source and destination match.
	ErrSameWallet = errors.New("source and destination wallets must differ")
	// ErrInsufficientFunds rejects transfers, goal savings and debt
	// payments that the source wallet cannot cover.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// TransactionRecord is a transaction joined with the display names of its
// wallet, category and payee, for listings and exports.
type TransactionRecord struct {
	domain.Transaction
	WalletName   string `json:"wallet"`
	CategoryName string `json:"category,omitempty"`
	PayeeName    string `json:"payee,omitempty"`
}

type UserStorage interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*domain.User, error)
	UserByUsername(ctx context.Context, username string) (*domain.User, error)
	UserByID(ctx context.Context, id int64) (*domain.User, error)
	UserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	LinkTelegram(ctx context.Context, userID, telegramID int64) error
}

type WalletStorage interface {
	CreateWallet(ctx context.Context, userID int64, name string, wtype domain.WalletType, balance decimal.Decimal) (*domain.Wallet, error)
	Wallets(ctx context.Context, userID int64) ([]domain.Wallet, error)
	WalletByID(ctx context.Context, userID, id int64) (*domain.Wallet, error)
	WalletByName(ctx context.Context, userID int64, name string) (*domain.Wallet, error)
	UpdateWallet(ctx context.Context, userID, id int64, name string, wtype domain.WalletType) (*domain.Wallet, error)
	// DeleteWallet removes the wallet together with its transactions and
	// transfers. The effect of each removed transfer on the surviving
	// counterparty wallet is reversed first.
	DeleteWallet(ctx context.Context, userID, id int64) error
}

type CategoryStorage interface {
	CreateCategory(ctx context.Context, userID int64, name, description string) (*domain.Category, error)
	Categories(ctx context.Context, userID int64) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, userID, id int64, name, description string) (*domain.Category, error)
	// EnsureCategory returns the category with the given name, creating
	// it when missing.
	EnsureCategory(ctx context.Context, userID int64, name string) (*domain.Category, error)
	// DeleteCategory nulls the category reference on dependent
	// transactions instead of deleting them.
	DeleteCategory(ctx context.Context, userID, id int64) error
}

type PayeeStorage interface {
	CreatePayee(ctx context.Context, userID int64, name string) (*domain.Payee, error)
	Payees(ctx context.Context, userID int64) ([]domain.Payee, error)
	UpdatePayee(ctx context.Context, userID, id int64, name string) (*domain.Payee, error)
	// DeletePayee nulls the payee reference on dependent transactions.
	DeletePayee(ctx context.Context, userID, id int64) error
}

type TransactionStorage interface {
	// CreateTransaction persists the transaction and applies its effect
	// to the wallet balance in the same storage transaction.
	CreateTransaction(ctx context.Context, userID int64, tx domain.Transaction) (*domain.Transaction, error)
	Transactions(ctx context.Context, userID int64) ([]TransactionRecord, error)
	TransactionByID(ctx context.Context, userID, id int64) (*domain.Transaction, error)
	// UpdateTransaction reverses the old effect on the old wallet and
	// applies the new effect on the new wallet. When the wallet is
	// unchanged the two deltas are folded into a single balance write.
	UpdateTransaction(ctx context.Context, userID int64, tx domain.Transaction) (*domain.Transaction, error)
	// DeleteTransaction reverses the effect, then removes the record.
	DeleteTransaction(ctx context.Context, userID, id int64) error
	// TransactionsForExport returns all records ordered by date ascending.
	TransactionsForExport(ctx context.Context, userID int64) ([]TransactionRecord, error)
	// TransactionsInMonth returns records within the given calendar
	// month, date ascending.
	TransactionsInMonth(ctx context.Context, userID int64, month time.Time) ([]TransactionRecord, error)
}

type TransferStorage interface {
	// CreateTransfer fails with ErrSameWallet or ErrInsufficientFunds
	// before any balance is written.
	CreateTransfer(ctx context.Context, userID int64, tr domain.Transfer) (*domain.Transfer, error)
	Transfers(ctx context.Context, userID int64) ([]domain.Transfer, error)
	// DeleteTransfer reverses the effect on both wallets, then removes
	// the record.
	DeleteTransfer(ctx context.Context, userID, id int64) error
}

type BudgetStorage interface {
	CreateBudget(ctx context.Context, userID, categoryID int64, amount decimal.Decimal, month time.Time) (*domain.Budget, error)
	// Budgets returns budgets whose month is on or after from, each with
	// spent/remaining/percentage computed fresh.
	Budgets(ctx context.Context, userID int64, from time.Time) ([]domain.BudgetProgress, error)
	UpdateBudget(ctx context.Context, userID, id int64, amount decimal.Decimal) (*domain.Budget, error)
	DeleteBudget(ctx context.Context, userID, id int64) error
}

type GoalStorage interface {
	CreateGoal(ctx context.Context, userID int64, name string, target decimal.Decimal, targetDate *time.Time) (*domain.FinancialGoal, error)
	Goals(ctx context.Context, userID int64) ([]domain.FinancialGoal, error)
	DeleteGoal(ctx context.Context, userID, id int64) error
	// AddSavings books an expense against the source wallet under the
	// reserved savings category and increments the goal by the same
	// amount. Fails with ErrInsufficientFunds when the wallet cannot
	// cover it; nothing is written in that case.
	AddSavings(ctx context.Context, userID, goalID, walletID int64, amount decimal.Decimal) (*domain.FinancialGoal, error)
}

type DebtStorage interface {
	CreateDebt(ctx context.Context, userID int64, lenderName string, initial decimal.Decimal, dueDate *time.Time, notes string) (*domain.Debt, error)
	Debts(ctx context.Context, userID int64) ([]domain.Debt, error)
	DeleteDebt(ctx context.Context, userID, id int64) error
	// PayDebt books an expense under the reserved debt-payment category
	// with a payee named after the lender, and decrements the debt
	// balance. Same funds check as AddSavings.
	PayDebt(ctx context.Context, userID, debtID, walletID int64, amount decimal.Decimal) (*domain.Debt, error)
}

type ReportStorage interface {
	Dashboard(ctx context.Context, userID int64) (*domain.DashboardSummary, error)
}

// Store is the full contract the handlers and the bot run against.
type Store interface {
	UserStorage
	WalletStorage
	CategoryStorage
	PayeeStorage
	TransactionStorage
	TransferStorage
	BudgetStorage
	GoalStorage
	DebtStorage
	ReportStorage
}
