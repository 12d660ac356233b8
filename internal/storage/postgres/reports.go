// internal/storage/postgres/reports.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"dompetku/internal/domain"

	"github.com/shopspring/decimal"
)

func (s *Storage) Dashboard(ctx context.Context, userID int64) (*domain.DashboardSummary, error) {
	sum := &domain.DashboardSummary{
		ExpenseByCategory: []domain.CategoryAmount{},
	}

	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(balance), 0)
		FROM wallets WHERE user_id = $1 AND wallet_type = 'ASSET'
	`, userID).Scan(&sum.TotalAssets)
	if err != nil {
		return nil, fmt.Errorf("sum assets: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(current_balance), 0)
		FROM debts WHERE user_id = $1
	`, userID).Scan(&sum.TotalLiabilities)
	if err != nil {
		return nil, fmt.Errorf("sum liabilities: %w", err)
	}
	sum.NetWorth = sum.TotalAssets.Sub(sum.TotalLiabilities)

	// The reporting month follows the most recent transaction; an empty
	// ledger falls back to the current month.
	var latest *time.Time
	err = s.db.QueryRow(ctx, `
		SELECT MAX(transaction_date) FROM transactions WHERE user_id = $1
	`, userID).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("latest transaction: %w", err)
	}
	month := domain.MonthOf(time.Now())
	if latest != nil {
		month = domain.MonthOf(*latest)
	}
	sum.Month = month.Format("2006-01")

	err = s.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE transaction_type = 'INCOME'), 0),
			COALESCE(SUM(amount) FILTER (WHERE transaction_type = 'EXPENSE'), 0)
		FROM transactions
		WHERE user_id = $1 AND date_trunc('month', transaction_date)::date = $2
	`, userID, month).Scan(&sum.IncomeThisMonth, &sum.ExpenseThisMonth)
	if err != nil {
		return nil, fmt.Errorf("month totals: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT c.name, SUM(t.amount)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1
		  AND t.transaction_type = 'EXPENSE'
		  AND date_trunc('month', t.transaction_date)::date = $2
		GROUP BY c.name
		ORDER BY c.name ASC
	`, userID, month)
	if err != nil {
		return nil, fmt.Errorf("expense by category: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var amount decimal.Decimal
		if err := rows.Scan(&name, &amount); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		sum.ExpenseByCategory = append(sum.ExpenseByCategory, domain.CategoryAmount{Category: name, Amount: amount})
	}
	return sum, rows.Err()
}
