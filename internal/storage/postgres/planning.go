// internal/storage/postgres/planning.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"dompetku/internal/domain"
	"dompetku/internal/storage"

	"github.com/shopspring/decimal"
)

// === BudgetStorage ===

func (s *Storage) CreateBudget(ctx context.Context, userID, categoryID int64, amount decimal.Decimal, month time.Time) (*domain.Budget, error) {
	b := domain.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     amount,
		Month:      domain.MonthOf(month),
	}
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1 AND user_id = $2)
	`, categoryID, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("find category: %w", storage.ErrNotFound)
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO budgets (user_id, category_id, amount, month)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, userID, categoryID, b.Amount, b.Month).Scan(&b.ID)
	if err != nil {
		return nil, fmt.Errorf("insert budget: %w", mapErr(err))
	}
	return &b, nil
}

// Budgets lists budgets from the given month on, spend computed from the
// category's expenses inside each budget's calendar month.
func (s *Storage) Budgets(ctx context.Context, userID int64, from time.Time) ([]domain.BudgetProgress, error) {
	rows, err := s.db.Query(ctx, `
		SELECT b.id, b.category_id, b.amount, b.month, c.name,
		       COALESCE((
		           SELECT SUM(t.amount)
		           FROM transactions t
		           WHERE t.user_id = b.user_id
		             AND t.category_id = b.category_id
		             AND t.transaction_type = 'EXPENSE'
		             AND date_trunc('month', t.transaction_date)::date = b.month
		       ), 0) AS spent
		FROM budgets b
		JOIN categories c ON c.id = b.category_id
		WHERE b.user_id = $1 AND b.month >= $2
		ORDER BY b.month ASC, c.name ASC
	`, userID, domain.MonthOf(from))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []domain.BudgetProgress
	for rows.Next() {
		b := domain.Budget{UserID: userID}
		var categoryName string
		var spent decimal.Decimal
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.Amount, &b.Month, &categoryName, &spent); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b.Progress(categoryName, spent))
	}
	return out, rows.Err()
}

func (s *Storage) UpdateBudget(ctx context.Context, userID, id int64, amount decimal.Decimal) (*domain.Budget, error) {
	b := domain.Budget{ID: id, UserID: userID, Amount: amount}
	err := s.db.QueryRow(ctx, `
		UPDATE budgets SET amount = $3
		WHERE id = $1 AND user_id = $2
		RETURNING category_id, month
	`, id, userID, amount).Scan(&b.CategoryID, &b.Month)
	if err != nil {
		return nil, fmt.Errorf("update budget: %w", mapErr(err))
	}
	return &b, nil
}

func (s *Storage) DeleteBudget(ctx context.Context, userID, id int64) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM budgets WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// === GoalStorage ===

func (s *Storage) CreateGoal(ctx context.Context, userID int64, name string, target decimal.Decimal, targetDate *time.Time) (*domain.FinancialGoal, error) {
	g := domain.FinancialGoal{
		UserID:        userID,
		Name:          name,
		TargetAmount:  target,
		CurrentAmount: decimal.Zero,
		TargetDate:    targetDate,
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO financial_goals (user_id, name, target_amount, current_amount, target_date)
		VALUES ($1, $2, $3, 0, $4)
		RETURNING id
	`, userID, name, target, targetDate).Scan(&g.ID)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", mapErr(err))
	}
	return &g, nil
}

func (s *Storage) Goals(ctx context.Context, userID int64) ([]domain.FinancialGoal, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, target_amount, current_amount, target_date
		FROM financial_goals WHERE user_id = $1
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []domain.FinancialGoal
	for rows.Next() {
		g := domain.FinancialGoal{UserID: userID}
		if err := rows.Scan(&g.ID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.TargetDate); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Storage) DeleteGoal(ctx context.Context, userID, id int64) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM financial_goals WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Storage) AddSavings(ctx context.Context, userID, goalID, walletID int64, amount decimal.Decimal) (*domain.FinancialGoal, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	g := domain.FinancialGoal{ID: goalID, UserID: userID}
	err = tx.QueryRow(ctx, `
		SELECT name, target_amount, current_amount, target_date
		FROM financial_goals WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, goalID, userID).Scan(&g.Name, &g.TargetAmount, &g.CurrentAmount, &g.TargetDate)
	if err != nil {
		return nil, fmt.Errorf("find goal: %w", mapErr(err))
	}

	balance, err := lockWalletBalance(ctx, tx, userID, walletID)
	if err != nil {
		return nil, fmt.Errorf("find wallet: %w", err)
	}
	if balance.LessThan(amount) {
		return nil, storage.ErrInsufficientFunds
	}

	categoryID, err := s.ensureCategoryTx(ctx, tx, userID, domain.GoalSavingsCategory)
	if err != nil {
		return nil, fmt.Errorf("ensure category: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions
			(user_id, wallet_id, category_id, amount, admin_fee, transaction_type, transaction_date, notes)
		VALUES ($1, $2, $3, $4, 0, 'EXPENSE', CURRENT_DATE, $5)
	`, userID, walletID, categoryID, amount, "Menabung untuk "+g.Name)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE wallets SET balance = balance - $3 WHERE id = $1 AND user_id = $2
	`, walletID, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("debit wallet: %w", err)
	}

	g.CurrentAmount = g.CurrentAmount.Add(amount)
	_, err = tx.Exec(ctx, `
		UPDATE financial_goals SET current_amount = $3 WHERE id = $1 AND user_id = $2
	`, goalID, userID, g.CurrentAmount)
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &g, nil
}

// === DebtStorage ===

func (s *Storage) CreateDebt(ctx context.Context, userID int64, lenderName string, initial decimal.Decimal, dueDate *time.Time, notes string) (*domain.Debt, error) {
	d := domain.Debt{
		UserID:         userID,
		LenderName:     lenderName,
		InitialAmount:  initial,
		CurrentBalance: initial,
		DueDate:        dueDate,
		Notes:          notes,
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO debts (user_id, lender_name, initial_amount, current_balance, due_date, notes)
		VALUES ($1, $2, $3, $3, $4, $5)
		RETURNING id
	`, userID, lenderName, initial, dueDate, notes).Scan(&d.ID)
	if err != nil {
		return nil, fmt.Errorf("insert debt: %w", mapErr(err))
	}
	return &d, nil
}

func (s *Storage) Debts(ctx context.Context, userID int64) ([]domain.Debt, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, lender_name, initial_amount, current_balance, due_date, COALESCE(notes, '')
		FROM debts WHERE user_id = $1
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var out []domain.Debt
	for rows.Next() {
		d := domain.Debt{UserID: userID}
		if err := rows.Scan(&d.ID, &d.LenderName, &d.InitialAmount, &d.CurrentBalance, &d.DueDate, &d.Notes); err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Storage) DeleteDebt(ctx context.Context, userID, id int64) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM debts WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Storage) PayDebt(ctx context.Context, userID, debtID, walletID int64, amount decimal.Decimal) (*domain.Debt, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	d := domain.Debt{ID: debtID, UserID: userID}
	err = tx.QueryRow(ctx, `
		SELECT lender_name, initial_amount, current_balance, due_date, COALESCE(notes, '')
		FROM debts WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, debtID, userID).Scan(&d.LenderName, &d.InitialAmount, &d.CurrentBalance, &d.DueDate, &d.Notes)
	if err != nil {
		return nil, fmt.Errorf("find debt: %w", mapErr(err))
	}

	balance, err := lockWalletBalance(ctx, tx, userID, walletID)
	if err != nil {
		return nil, fmt.Errorf("find wallet: %w", err)
	}
	if balance.LessThan(amount) {
		return nil, storage.ErrInsufficientFunds
	}

	categoryID, err := s.ensureCategoryTx(ctx, tx, userID, domain.DebtPaymentCategory)
	if err != nil {
		return nil, fmt.Errorf("ensure category: %w", err)
	}
	payeeID, err := s.ensurePayeeTx(ctx, tx, userID, d.LenderName)
	if err != nil {
		return nil, fmt.Errorf("ensure payee: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions
			(user_id, wallet_id, category_id, payee_id, amount, admin_fee, transaction_type, transaction_date, notes)
		VALUES ($1, $2, $3, $4, $5, 0, 'EXPENSE', CURRENT_DATE, $6)
	`, userID, walletID, categoryID, payeeID, amount, "Pembayaran utang kepada "+d.LenderName)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE wallets SET balance = balance - $3 WHERE id = $1 AND user_id = $2
	`, walletID, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("debit wallet: %w", err)
	}

	d.CurrentBalance = d.CurrentBalance.Sub(amount)
	_, err = tx.Exec(ctx, `
		UPDATE debts SET current_balance = $3 WHERE id = $1 AND user_id = $2
	`, debtID, userID, d.CurrentBalance)
	if err != nil {
		return nil, fmt.Errorf("update debt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &d, nil
}
