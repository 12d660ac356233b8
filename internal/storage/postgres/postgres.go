// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"dompetku/internal/domain"
	"dompetku/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Storage struct {
	db *pgxpool.Pool
}

var _ storage.Store = (*Storage)(nil)

func NewStorage(db *pgxpool.Pool) *Storage {
	return &Storage{db: db}
}

// mapErr translates driver errors into the storage sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return storage.ErrDuplicate
	}
	return err
}

// === UserStorage ===

func (s *Storage) CreateUser(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	var u domain.User
	u.Username = username
	u.PasswordHash = passwordHash
	err := s.db.QueryRow(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`, username, passwordHash).Scan(&u.ID)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", mapErr(err))
	}
	return &u, nil
}

func (s *Storage) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRow(ctx, `
		SELECT id, username, password_hash, telegram_id
		FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.TelegramID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", mapErr(err))
	}
	return &u, nil
}

func (s *Storage) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRow(ctx, `
		SELECT id, username, password_hash, telegram_id
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.TelegramID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", mapErr(err))
	}
	return &u, nil
}

func (s *Storage) UserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRow(ctx, `
		SELECT id, username, password_hash, telegram_id
		FROM users WHERE telegram_id = $1
	`, telegramID).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.TelegramID)
	if err != nil {
		return nil, fmt.Errorf("find user by telegram id: %w", mapErr(err))
	}
	return &u, nil
}

func (s *Storage) LinkTelegram(ctx context.Context, userID, telegramID int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET telegram_id = $2 WHERE id = $1
	`, userID, telegramID)
	if err != nil {
		return fmt.Errorf("link telegram: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// === WalletStorage ===

func (s *Storage) CreateWallet(ctx context.Context, userID int64, name string, wtype domain.WalletType, balance decimal.Decimal) (*domain.Wallet, error) {
	w := domain.Wallet{UserID: userID, Name: name, Type: wtype, Balance: balance}
	err := s.db.QueryRow(ctx, `
		INSERT INTO wallets (user_id, name, wallet_type, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, userID, name, wtype, balance).Scan(&w.ID)
	if err != nil {
		return nil, fmt.Errorf("create wallet: %w", mapErr(err))
	}
	return &w, nil
}

func (s *Storage) Wallets(ctx context.Context, userID int64) ([]domain.Wallet, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, wallet_type, balance
		FROM wallets WHERE user_id = $1 ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var out []domain.Wallet
	for rows.Next() {
		w := domain.Wallet{UserID: userID}
		if err := rows.Scan(&w.ID, &w.Name, &w.Type, &w.Balance); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Storage) WalletByID(ctx context.Context, userID, id int64) (*domain.Wallet, error) {
	w := domain.Wallet{UserID: userID}
	err := s.db.QueryRow(ctx, `
		SELECT id, name, wallet_type, balance
		FROM wallets WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&w.ID, &w.Name, &w.Type, &w.Balance)
	if err != nil {
		return nil, fmt.Errorf("find wallet: %w", mapErr(err))
	}
	return &w, nil
}

func (s *Storage) WalletByName(ctx context.Context, userID int64, name string) (*domain.Wallet, error) {
	w := domain.Wallet{UserID: userID}
	err := s.db.QueryRow(ctx, `
		SELECT id, name, wallet_type, balance
		FROM wallets WHERE user_id = $1 AND name ILIKE $2
	`, userID, name).Scan(&w.ID, &w.Name, &w.Type, &w.Balance)
	if err != nil {
		return nil, fmt.Errorf("find wallet by name: %w", mapErr(err))
	}
	return &w, nil
}

func (s *Storage) UpdateWallet(ctx context.Context, userID, id int64, name string, wtype domain.WalletType) (*domain.Wallet, error) {
	w := domain.Wallet{ID: id, UserID: userID, Name: name, Type: wtype}
	err := s.db.QueryRow(ctx, `
		UPDATE wallets SET name = $3, wallet_type = $4
		WHERE id = $1 AND user_id = $2
		RETURNING balance
	`, id, userID, name, wtype).Scan(&w.Balance)
	if err != nil {
		return nil, fmt.Errorf("update wallet: %w", mapErr(err))
	}
	return &w, nil
}

func (s *Storage) DeleteWallet(ctx context.Context, userID, id int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists int64
	err = tx.QueryRow(ctx, `
		SELECT id FROM wallets WHERE id = $1 AND user_id = $2 FOR UPDATE
	`, id, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("find wallet: %w", mapErr(err))
	}

	// The wallet's transfers disappear with it, so the counterparty
	// wallets must first give back their side of each transfer.
	_, err = tx.Exec(ctx, `
		UPDATE wallets w SET balance = w.balance - agg.total
		FROM (
			SELECT to_wallet_id AS wid, SUM(amount) AS total
			FROM transfers WHERE user_id = $1 AND from_wallet_id = $2
			GROUP BY to_wallet_id
		) agg
		WHERE w.id = agg.wid
	`, userID, id)
	if err != nil {
		return fmt.Errorf("reverse outgoing transfers: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE wallets w SET balance = w.balance + agg.total
		FROM (
			SELECT from_wallet_id AS wid, SUM(amount + admin_fee) AS total
			FROM transfers WHERE user_id = $1 AND to_wallet_id = $2
			GROUP BY from_wallet_id
		) agg
		WHERE w.id = agg.wid
	`, userID, id)
	if err != nil {
		return fmt.Errorf("reverse incoming transfers: %w", err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM transfers
		WHERE user_id = $1 AND (from_wallet_id = $2 OR to_wallet_id = $2)
	`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transfers: %w", err)
	}
	_, err = tx.Exec(ctx, `
		DELETE FROM transactions WHERE user_id = $1 AND wallet_id = $2
	`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	_, err = tx.Exec(ctx, `
		DELETE FROM wallets WHERE id = $2 AND user_id = $1
	`, userID, id)
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}

	return tx.Commit(ctx)
}

// === CategoryStorage ===

func (s *Storage) CreateCategory(ctx context.Context, userID int64, name, description string) (*domain.Category, error) {
	c := domain.Category{UserID: userID, Name: name, Description: description}
	err := s.db.QueryRow(ctx, `
		INSERT INTO categories (user_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id
	`, userID, name, description).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", mapErr(err))
	}
	return &c, nil
}

func (s *Storage) Categories(ctx context.Context, userID int64) ([]domain.Category, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, COALESCE(description, '')
		FROM categories WHERE user_id = $1 ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		c := domain.Category{UserID: userID}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Storage) UpdateCategory(ctx context.Context, userID, id int64, name, description string) (*domain.Category, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE categories SET name = $3, description = $4
		WHERE id = $1 AND user_id = $2
	`, id, userID, name, description)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return nil, storage.ErrNotFound
	}
	return &domain.Category{ID: id, UserID: userID, Name: name, Description: description}, nil
}

func (s *Storage) EnsureCategory(ctx context.Context, userID int64, name string) (*domain.Category, error) {
	c := domain.Category{UserID: userID, Name: name}
	err := s.db.QueryRow(ctx, `
		INSERT INTO categories (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, userID, name).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("ensure category: %w", mapErr(err))
	}
	return &c, nil
}

func (s *Storage) DeleteCategory(ctx context.Context, userID, id int64) error {
	// The SET NULL / CASCADE actions on the schema null transaction
	// references and drop dependent budgets.
	tag, err := s.db.Exec(ctx, `
		DELETE FROM categories WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// === PayeeStorage ===

func (s *Storage) CreatePayee(ctx context.Context, userID int64, name string) (*domain.Payee, error) {
	p := domain.Payee{UserID: userID, Name: name}
	err := s.db.QueryRow(ctx, `
		INSERT INTO payees (user_id, name) VALUES ($1, $2) RETURNING id
	`, userID, name).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("create payee: %w", mapErr(err))
	}
	return &p, nil
}

func (s *Storage) Payees(ctx context.Context, userID int64) ([]domain.Payee, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name FROM payees WHERE user_id = $1 ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payees: %w", err)
	}
	defer rows.Close()

	var out []domain.Payee
	for rows.Next() {
		p := domain.Payee{UserID: userID}
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan payee: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Storage) UpdatePayee(ctx context.Context, userID, id int64, name string) (*domain.Payee, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE payees SET name = $3 WHERE id = $1 AND user_id = $2
	`, id, userID, name)
	if err != nil {
		return nil, fmt.Errorf("update payee: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return nil, storage.ErrNotFound
	}
	return &domain.Payee{ID: id, UserID: userID, Name: name}, nil
}

func (s *Storage) DeletePayee(ctx context.Context, userID, id int64) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM payees WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete payee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Storage) ensurePayeeTx(ctx context.Context, tx pgx.Tx, userID int64, name string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO payees (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, userID, name).Scan(&id)
	return id, err
}

func (s *Storage) ensureCategoryTx(ctx context.Context, tx pgx.Tx, userID int64, name string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO categories (user_id, name)
		VALUES ($1, $2)
		ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, userID, name).Scan(&id)
	return id, err
}
