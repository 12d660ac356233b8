// internal/storage/postgres/ledger.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"dompetku/internal/domain"
	"dompetku/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// lockWalletBalance reads a wallet's balance under FOR UPDATE inside tx.
func lockWalletBalance(ctx context.Context, tx pgx.Tx, userID, walletID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT balance FROM wallets
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, walletID, userID).Scan(&balance)
	if err != nil {
		return decimal.Decimal{}, mapErr(err)
	}
	return balance, nil
}

func checkTxRefs(ctx context.Context, tx pgx.Tx, userID int64, t domain.Transaction) error {
	if t.CategoryID != nil {
		var id int64
		err := tx.QueryRow(ctx, `
			SELECT id FROM categories WHERE id = $1 AND user_id = $2
		`, *t.CategoryID, userID).Scan(&id)
		if err != nil {
			return fmt.Errorf("find category: %w", mapErr(err))
		}
	}
	if t.PayeeID != nil {
		var id int64
		err := tx.QueryRow(ctx, `
			SELECT id FROM payees WHERE id = $1 AND user_id = $2
		`, *t.PayeeID, userID).Scan(&id)
		if err != nil {
			return fmt.Errorf("find payee: %w", mapErr(err))
		}
	}
	return nil
}

// === TransactionStorage ===

func (s *Storage) CreateTransaction(ctx context.Context, userID int64, t domain.Transaction) (*domain.Transaction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockWalletBalance(ctx, tx, userID, t.WalletID); err != nil {
		return nil, fmt.Errorf("find wallet: %w", err)
	}
	if err := checkTxRefs(ctx, tx, userID, t); err != nil {
		return nil, err
	}

	t.UserID = userID
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions
			(user_id, wallet_id, category_id, payee_id, amount, admin_fee, transaction_type, transaction_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, userID, t.WalletID, t.CategoryID, t.PayeeID, t.Amount, t.AdminFee, t.Type, t.Date, t.Notes).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", mapErr(err))
	}

	_, err = tx.Exec(ctx, `
		UPDATE wallets SET balance = balance + $3 WHERE id = $1 AND user_id = $2
	`, t.WalletID, userID, t.Effect())
	if err != nil {
		return nil, fmt.Errorf("apply effect: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &t, nil
}

func (s *Storage) UpdateTransaction(ctx context.Context, userID int64, t domain.Transaction) (*domain.Transaction, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	old := domain.Transaction{ID: t.ID, UserID: userID}
	err = tx.QueryRow(ctx, `
		SELECT wallet_id, amount, admin_fee, transaction_type
		FROM transactions WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, t.ID, userID).Scan(&old.WalletID, &old.Amount, &old.AdminFee, &old.Type)
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", mapErr(err))
	}

	// Lock both wallets in id order, then apply folded per-wallet deltas:
	// minus the old effect on the old wallet, plus the new effect on the
	// new one. When the wallet is unchanged this is a single write, so a
	// stale in-memory balance can never double-count.
	ids := []int64{old.WalletID}
	if t.WalletID != old.WalletID {
		ids = append(ids, t.WalletID)
	}
	rows, err := tx.Query(ctx, `
		SELECT id FROM wallets
		WHERE user_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE
	`, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("lock wallets: %w", err)
	}
	locked := 0
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		locked++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lock wallets: %w", err)
	}
	if locked != len(ids) {
		return nil, fmt.Errorf("find wallet: %w", storage.ErrNotFound)
	}

	if err := checkTxRefs(ctx, tx, userID, t); err != nil {
		return nil, err
	}

	deltas := map[int64]decimal.Decimal{}
	deltas[old.WalletID] = old.Effect().Neg()
	deltas[t.WalletID] = deltas[t.WalletID].Add(t.Effect())
	for walletID, delta := range deltas {
		_, err = tx.Exec(ctx, `
			UPDATE wallets SET balance = balance + $3 WHERE id = $1 AND user_id = $2
		`, walletID, userID, delta)
		if err != nil {
			return nil, fmt.Errorf("apply effect: %w", err)
		}
	}

	t.UserID = userID
	_, err = tx.Exec(ctx, `
		UPDATE transactions
		SET wallet_id = $3, category_id = $4, payee_id = $5, amount = $6,
		    admin_fee = $7, transaction_type = $8, transaction_date = $9, notes = $10
		WHERE id = $1 AND user_id = $2
	`, t.ID, userID, t.WalletID, t.CategoryID, t.PayeeID, t.Amount, t.AdminFee, t.Type, t.Date, t.Notes)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", mapErr(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &t, nil
}

func (s *Storage) DeleteTransaction(ctx context.Context, userID, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	t := domain.Transaction{ID: id, UserID: userID}
	err = tx.QueryRow(ctx, `
		SELECT wallet_id, amount, admin_fee, transaction_type
		FROM transactions WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, id, userID).Scan(&t.WalletID, &t.Amount, &t.AdminFee, &t.Type)
	if err != nil {
		return fmt.Errorf("find transaction: %w", mapErr(err))
	}

	if _, err := lockWalletBalance(ctx, tx, userID, t.WalletID); err != nil {
		return fmt.Errorf("find wallet: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE wallets SET balance = balance - $3 WHERE id = $1 AND user_id = $2
	`, t.WalletID, userID, t.Effect())
	if err != nil {
		return fmt.Errorf("reverse effect: %w", err)
	}
	_, err = tx.Exec(ctx, `
		DELETE FROM transactions WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Storage) TransactionByID(ctx context.Context, userID, id int64) (*domain.Transaction, error) {
	t := domain.Transaction{ID: id, UserID: userID}
	var notes *string
	err := s.db.QueryRow(ctx, `
		SELECT wallet_id, category_id, payee_id, amount, admin_fee,
		       transaction_type, transaction_date, notes
		FROM transactions WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&t.WalletID, &t.CategoryID, &t.PayeeID, &t.Amount, &t.AdminFee, &t.Type, &t.Date, &notes)
	if err != nil {
		return nil, fmt.Errorf("find transaction: %w", mapErr(err))
	}
	if notes != nil {
		t.Notes = *notes
	}
	return &t, nil
}

func (s *Storage) queryRecords(ctx context.Context, userID int64, where string, order string, args ...any) ([]storage.TransactionRecord, error) {
	query := `
		SELECT t.id, t.wallet_id, t.category_id, t.payee_id, t.amount, t.admin_fee,
		       t.transaction_type, t.transaction_date, COALESCE(t.notes, ''),
		       w.name, COALESCE(c.name, ''), COALESCE(p.name, '')
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		LEFT JOIN categories c ON c.id = t.category_id
		LEFT JOIN payees p ON p.id = t.payee_id
		WHERE t.user_id = $1` + where + `
		ORDER BY ` + order

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []storage.TransactionRecord
	for rows.Next() {
		r := storage.TransactionRecord{}
		r.UserID = userID
		if err := rows.Scan(&r.ID, &r.WalletID, &r.CategoryID, &r.PayeeID, &r.Amount, &r.AdminFee,
			&r.Type, &r.Date, &r.Notes, &r.WalletName, &r.CategoryName, &r.PayeeName); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Storage) Transactions(ctx context.Context, userID int64) ([]storage.TransactionRecord, error) {
	return s.queryRecords(ctx, userID, "", "t.transaction_date DESC, t.id DESC", userID)
}

func (s *Storage) TransactionsForExport(ctx context.Context, userID int64) ([]storage.TransactionRecord, error) {
	return s.queryRecords(ctx, userID, "", "t.transaction_date ASC, t.id ASC", userID)
}

func (s *Storage) TransactionsInMonth(ctx context.Context, userID int64, month time.Time) ([]storage.TransactionRecord, error) {
	return s.queryRecords(ctx, userID,
		" AND date_trunc('month', t.transaction_date)::date = $2",
		"t.transaction_date ASC, t.id ASC",
		userID, domain.MonthOf(month))
}

// === TransferStorage ===

func (s *Storage) CreateTransfer(ctx context.Context, userID int64, tr domain.Transfer) (*domain.Transfer, error) {
	if tr.FromWalletID == tr.ToWalletID {
		return nil, storage.ErrSameWallet
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Both wallets locked in id order so concurrent transfers between
	// the same pair cannot deadlock.
	rows, err := tx.Query(ctx, `
		SELECT id, balance FROM wallets
		WHERE user_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE
	`, userID, []int64{tr.FromWalletID, tr.ToWalletID})
	if err != nil {
		return nil, fmt.Errorf("lock wallets: %w", err)
	}
	balances := map[int64]decimal.Decimal{}
	for rows.Next() {
		var id int64
		var balance decimal.Decimal
		if err := rows.Scan(&id, &balance); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		balances[id] = balance
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lock wallets: %w", err)
	}
	if len(balances) != 2 {
		return nil, fmt.Errorf("find wallet: %w", storage.ErrNotFound)
	}

	total := tr.Amount.Add(tr.AdminFee)
	if balances[tr.FromWalletID].LessThan(total) {
		return nil, storage.ErrInsufficientFunds
	}

	tr.UserID = userID
	err = tx.QueryRow(ctx, `
		INSERT INTO transfers
			(user_id, from_wallet_id, to_wallet_id, amount, admin_fee, transfer_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, userID, tr.FromWalletID, tr.ToWalletID, tr.Amount, tr.AdminFee, tr.Date, tr.Notes).Scan(&tr.ID)
	if err != nil {
		return nil, fmt.Errorf("insert transfer: %w", mapErr(err))
	}

	_, err = tx.Exec(ctx, `
		UPDATE wallets SET balance = balance - $3 WHERE id = $1 AND user_id = $2
	`, tr.FromWalletID, userID, total)
	if err != nil {
		return nil, fmt.Errorf("debit source: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE wallets SET balance = balance + $3 WHERE id = $1 AND user_id = $2
	`, tr.ToWalletID, userID, tr.Amount)
	if err != nil {
		return nil, fmt.Errorf("credit destination: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &tr, nil
}

func (s *Storage) Transfers(ctx context.Context, userID int64) ([]domain.Transfer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, from_wallet_id, to_wallet_id, amount, admin_fee, transfer_date, COALESCE(notes, '')
		FROM transfers WHERE user_id = $1
		ORDER BY transfer_date DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var out []domain.Transfer
	for rows.Next() {
		tr := domain.Transfer{UserID: userID}
		if err := rows.Scan(&tr.ID, &tr.FromWalletID, &tr.ToWalletID, &tr.Amount, &tr.AdminFee, &tr.Date, &tr.Notes); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (s *Storage) DeleteTransfer(ctx context.Context, userID, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tr := domain.Transfer{ID: id, UserID: userID}
	err = tx.QueryRow(ctx, `
		SELECT from_wallet_id, to_wallet_id, amount, admin_fee
		FROM transfers WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, id, userID).Scan(&tr.FromWalletID, &tr.ToWalletID, &tr.Amount, &tr.AdminFee)
	if err != nil {
		return fmt.Errorf("find transfer: %w", mapErr(err))
	}

	_, err = tx.Exec(ctx, `
		UPDATE wallets SET balance = balance + $3 WHERE id = $1 AND user_id = $2
	`, tr.FromWalletID, userID, tr.Amount.Add(tr.AdminFee))
	if err != nil {
		return fmt.Errorf("refund source: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE wallets SET balance = balance - $3 WHERE id = $1 AND user_id = $2
	`, tr.ToWalletID, userID, tr.Amount)
	if err != nil {
		return fmt.Errorf("reclaim destination: %w", err)
	}
	_, err = tx.Exec(ctx, `
		DELETE FROM transfers WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}

	return tx.Commit(ctx)
}
