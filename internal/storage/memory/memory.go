// internal/storage/memory/memory.go
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"dompetku/internal/domain"
	"dompetku/internal/storage"

	"github.com/shopspring/decimal"
)

// Store keeps the whole ledger in process memory behind one mutex. It
// implements the same bookkeeping semantics as the postgres store and
// backs the handler tests and local development.
type Store struct {
	mu     sync.Mutex
	nextID int64

	users        []domain.User
	wallets      []domain.Wallet
	categories   []domain.Category
	payees       []domain.Payee
	transactions []domain.Transaction
	transfers    []domain.Transfer
	budgets      []domain.Budget
	goals        []domain.FinancialGoal
	debts        []domain.Debt

	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now}
}

// SetClock overrides the wall clock, for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) today() time.Time {
	t := s.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// === UserStorage ===

func (s *Store) CreateUser(_ context.Context, username, passwordHash string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return nil, storage.ErrDuplicate
		}
	}
	u := domain.User{ID: s.id(), Username: username, PasswordHash: passwordHash}
	s.users = append(s.users, u)
	return &u, nil
}

func (s *Store) UserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].Username == username {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) UserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) UserByTelegramID(_ context.Context, telegramID int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].TelegramID != nil && *s.users[i].TelegramID == telegramID {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) LinkTelegram(_ context.Context, userID, telegramID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].TelegramID != nil && *s.users[i].TelegramID == telegramID && s.users[i].ID != userID {
			return storage.ErrDuplicate
		}
	}
	for i := range s.users {
		if s.users[i].ID == userID {
			tg := telegramID
			s.users[i].TelegramID = &tg
			return nil
		}
	}
	return storage.ErrNotFound
}

// === WalletStorage ===

func (s *Store) walletIdx(userID, id int64) int {
	for i := range s.wallets {
		if s.wallets[i].ID == id && s.wallets[i].UserID == userID {
			return i
		}
	}
	return -1
}

func (s *Store) CreateWallet(_ context.Context, userID int64, name string, wtype domain.WalletType, balance decimal.Decimal) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wallets {
		if w.UserID == userID && strings.EqualFold(w.Name, name) {
			return nil, storage.ErrDuplicate
		}
	}
	w := domain.Wallet{ID: s.id(), UserID: userID, Name: name, Type: wtype, Balance: balance}
	s.wallets = append(s.wallets, w)
	return &w, nil
}

func (s *Store) Wallets(_ context.Context, userID int64) ([]domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Wallet
	for _, w := range s.wallets {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) WalletByID(_ context.Context, userID, id int64) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.walletIdx(userID, id); i >= 0 {
		w := s.wallets[i]
		return &w, nil
	}
	return nil, storage.ErrNotFound
}

func (s *Store) WalletByName(_ context.Context, userID int64, name string) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.wallets {
		if s.wallets[i].UserID == userID && strings.EqualFold(s.wallets[i].Name, name) {
			w := s.wallets[i]
			return &w, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) UpdateWallet(_ context.Context, userID, id int64, name string, wtype domain.WalletType) (*domain.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.walletIdx(userID, id)
	if i < 0 {
		return nil, storage.ErrNotFound
	}
	s.wallets[i].Name = name
	s.wallets[i].Type = wtype
	w := s.wallets[i]
	return &w, nil
}

func (s *Store) DeleteWallet(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.walletIdx(userID, id)
	if i < 0 {
		return storage.ErrNotFound
	}

	// Transfers cascade away with the wallet; the counterparty wallet
	// keeps living, so its side of each transfer is reversed first.
	kept := s.transfers[:0]
	for _, tr := range s.transfers {
		if tr.UserID != userID || (tr.FromWalletID != id && tr.ToWalletID != id) {
			kept = append(kept, tr)
			continue
		}
		other := tr.ToWalletID
		if other == id {
			other = tr.FromWalletID
		}
		if j := s.walletIdx(userID, other); j >= 0 {
			s.wallets[j].Balance = s.wallets[j].Balance.Sub(tr.EffectOn(other))
		}
	}
	s.transfers = kept

	keptTx := s.transactions[:0]
	for _, tx := range s.transactions {
		if tx.WalletID != id || tx.UserID != userID {
			keptTx = append(keptTx, tx)
		}
	}
	s.transactions = keptTx

	s.wallets = append(s.wallets[:i], s.wallets[i+1:]...)
	return nil
}

// === CategoryStorage ===

func (s *Store) categoryIdx(userID, id int64) int {
	for i := range s.categories {
		if s.categories[i].ID == id && s.categories[i].UserID == userID {
			return i
		}
	}
	return -1
}

func (s *Store) CreateCategory(_ context.Context, userID int64, name, description string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.UserID == userID && strings.EqualFold(c.Name, name) {
			return nil, storage.ErrDuplicate
		}
	}
	c := domain.Category{ID: s.id(), UserID: userID, Name: name, Description: description}
	s.categories = append(s.categories, c)
	return &c, nil
}

func (s *Store) Categories(_ context.Context, userID int64) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateCategory(_ context.Context, userID, id int64, name, description string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIdx(userID, id)
	if i < 0 {
		return nil, storage.ErrNotFound
	}
	s.categories[i].Name = name
	s.categories[i].Description = description
	c := s.categories[i]
	return &c, nil
}

func (s *Store) EnsureCategory(_ context.Context, userID int64, name string) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureCategoryLocked(userID, name), nil
}

func (s *Store) ensureCategoryLocked(userID int64, name string) *domain.Category {
	for i := range s.categories {
		if s.categories[i].UserID == userID && strings.EqualFold(s.categories[i].Name, name) {
			c := s.categories[i]
			return &c
		}
	}
	c := domain.Category{ID: s.id(), UserID: userID, Name: name}
	s.categories = append(s.categories, c)
	return &c
}

func (s *Store) DeleteCategory(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIdx(userID, id)
	if i < 0 {
		return storage.ErrNotFound
	}
	// Dependent transactions lose the reference, budgets go with the
	// category.
	for j := range s.transactions {
		if s.transactions[j].CategoryID != nil && *s.transactions[j].CategoryID == id {
			s.transactions[j].CategoryID = nil
		}
	}
	keptBudgets := s.budgets[:0]
	for _, b := range s.budgets {
		if b.CategoryID != id {
			keptBudgets = append(keptBudgets, b)
		}
	}
	s.budgets = keptBudgets
	s.categories = append(s.categories[:i], s.categories[i+1:]...)
	return nil
}

// === PayeeStorage ===

func (s *Store) CreatePayee(_ context.Context, userID int64, name string) (*domain.Payee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payees {
		if p.UserID == userID && strings.EqualFold(p.Name, name) {
			return nil, storage.ErrDuplicate
		}
	}
	p := domain.Payee{ID: s.id(), UserID: userID, Name: name}
	s.payees = append(s.payees, p)
	return &p, nil
}

func (s *Store) Payees(_ context.Context, userID int64) ([]domain.Payee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Payee
	for _, p := range s.payees {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdatePayee(_ context.Context, userID, id int64, name string) (*domain.Payee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.payees {
		if s.payees[i].ID == id && s.payees[i].UserID == userID {
			s.payees[i].Name = name
			p := s.payees[i]
			return &p, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) DeletePayee(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.payees {
		if s.payees[i].ID == id && s.payees[i].UserID == userID {
			for j := range s.transactions {
				if s.transactions[j].PayeeID != nil && *s.transactions[j].PayeeID == id {
					s.transactions[j].PayeeID = nil
				}
			}
			s.payees = append(s.payees[:i], s.payees[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) ensurePayeeLocked(userID int64, name string) *domain.Payee {
	for i := range s.payees {
		if s.payees[i].UserID == userID && strings.EqualFold(s.payees[i].Name, name) {
			p := s.payees[i]
			return &p
		}
	}
	p := domain.Payee{ID: s.id(), UserID: userID, Name: name}
	s.payees = append(s.payees, p)
	return &p
}

// === TransactionStorage ===

func (s *Store) txIdx(userID, id int64) int {
	for i := range s.transactions {
		if s.transactions[i].ID == id && s.transactions[i].UserID == userID {
			return i
		}
	}
	return -1
}

func (s *Store) validateTxRefsLocked(userID int64, tx domain.Transaction) error {
	if s.walletIdx(userID, tx.WalletID) < 0 {
		return storage.ErrNotFound
	}
	if tx.CategoryID != nil && s.categoryIdx(userID, *tx.CategoryID) < 0 {
		return storage.ErrNotFound
	}
	if tx.PayeeID != nil {
		found := false
		for i := range s.payees {
			if s.payees[i].ID == *tx.PayeeID && s.payees[i].UserID == userID {
				found = true
				break
			}
		}
		if !found {
			return storage.ErrNotFound
		}
	}
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, userID int64, tx domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.UserID = userID
	if err := s.validateTxRefsLocked(userID, tx); err != nil {
		return nil, err
	}
	tx.ID = s.id()
	w := s.walletIdx(userID, tx.WalletID)
	s.wallets[w].Balance = s.wallets[w].Balance.Add(tx.Effect())
	s.transactions = append(s.transactions, tx)
	return &tx, nil
}

func (s *Store) record(tx domain.Transaction) storage.TransactionRecord {
	r := storage.TransactionRecord{Transaction: tx}
	if i := s.walletIdx(tx.UserID, tx.WalletID); i >= 0 {
		r.WalletName = s.wallets[i].Name
	}
	if tx.CategoryID != nil {
		if i := s.categoryIdx(tx.UserID, *tx.CategoryID); i >= 0 {
			r.CategoryName = s.categories[i].Name
		}
	}
	if tx.PayeeID != nil {
		for i := range s.payees {
			if s.payees[i].ID == *tx.PayeeID {
				r.PayeeName = s.payees[i].Name
				break
			}
		}
	}
	return r
}

func (s *Store) Transactions(_ context.Context, userID int64) ([]storage.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.TransactionRecord
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			out = append(out, s.record(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) TransactionsForExport(_ context.Context, userID int64) ([]storage.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.TransactionRecord
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			out = append(out, s.record(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) TransactionsInMonth(_ context.Context, userID int64, month time.Time) ([]storage.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	month = domain.MonthOf(month)
	var out []storage.TransactionRecord
	for _, tx := range s.transactions {
		if tx.UserID == userID && domain.MonthOf(tx.Date).Equal(month) {
			out = append(out, s.record(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) TransactionByID(_ context.Context, userID, id int64) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.txIdx(userID, id); i >= 0 {
		tx := s.transactions[i]
		return &tx, nil
	}
	return nil, storage.ErrNotFound
}

func (s *Store) UpdateTransaction(_ context.Context, userID int64, tx domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIdx(userID, tx.ID)
	if i < 0 {
		return nil, storage.ErrNotFound
	}
	tx.UserID = userID
	if err := s.validateTxRefsLocked(userID, tx); err != nil {
		return nil, err
	}
	old := s.transactions[i]
	oldWallet := s.walletIdx(userID, old.WalletID)
	s.wallets[oldWallet].Balance = s.wallets[oldWallet].Balance.Sub(old.Effect())
	newWallet := s.walletIdx(userID, tx.WalletID)
	s.wallets[newWallet].Balance = s.wallets[newWallet].Balance.Add(tx.Effect())
	s.transactions[i] = tx
	return &tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.txIdx(userID, id)
	if i < 0 {
		return storage.ErrNotFound
	}
	tx := s.transactions[i]
	if w := s.walletIdx(userID, tx.WalletID); w >= 0 {
		s.wallets[w].Balance = s.wallets[w].Balance.Sub(tx.Effect())
	}
	s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
	return nil
}

// === TransferStorage ===

func (s *Store) CreateTransfer(_ context.Context, userID int64, tr domain.Transfer) (*domain.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tr.FromWalletID == tr.ToWalletID {
		return nil, storage.ErrSameWallet
	}
	from := s.walletIdx(userID, tr.FromWalletID)
	to := s.walletIdx(userID, tr.ToWalletID)
	if from < 0 || to < 0 {
		return nil, storage.ErrNotFound
	}
	total := tr.Amount.Add(tr.AdminFee)
	if s.wallets[from].Balance.LessThan(total) {
		return nil, storage.ErrInsufficientFunds
	}
	tr.ID = s.id()
	tr.UserID = userID
	s.wallets[from].Balance = s.wallets[from].Balance.Sub(total)
	s.wallets[to].Balance = s.wallets[to].Balance.Add(tr.Amount)
	s.transfers = append(s.transfers, tr)
	return &tr, nil
}

func (s *Store) Transfers(_ context.Context, userID int64) ([]domain.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Transfer
	for _, tr := range s.transfers {
		if tr.UserID == userID {
			out = append(out, tr)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteTransfer(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transfers {
		if s.transfers[i].ID == id && s.transfers[i].UserID == userID {
			tr := s.transfers[i]
			if from := s.walletIdx(userID, tr.FromWalletID); from >= 0 {
				s.wallets[from].Balance = s.wallets[from].Balance.Sub(tr.EffectOn(tr.FromWalletID))
			}
			if to := s.walletIdx(userID, tr.ToWalletID); to >= 0 {
				s.wallets[to].Balance = s.wallets[to].Balance.Sub(tr.EffectOn(tr.ToWalletID))
			}
			s.transfers = append(s.transfers[:i], s.transfers[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

// === BudgetStorage ===

func (s *Store) CreateBudget(_ context.Context, userID, categoryID int64, amount decimal.Decimal, month time.Time) (*domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryIdx(userID, categoryID) < 0 {
		return nil, storage.ErrNotFound
	}
	month = domain.MonthOf(month)
	for _, b := range s.budgets {
		if b.UserID == userID && b.CategoryID == categoryID && b.Month.Equal(month) {
			return nil, storage.ErrDuplicate
		}
	}
	b := domain.Budget{ID: s.id(), UserID: userID, CategoryID: categoryID, Amount: amount, Month: month}
	s.budgets = append(s.budgets, b)
	return &b, nil
}

func (s *Store) spentLocked(userID, categoryID int64, month time.Time) decimal.Decimal {
	spent := decimal.Zero
	for _, tx := range s.transactions {
		if tx.UserID == userID && tx.Type == domain.Expense &&
			tx.CategoryID != nil && *tx.CategoryID == categoryID &&
			domain.MonthOf(tx.Date).Equal(month) {
			spent = spent.Add(tx.Amount)
		}
	}
	return spent
}

func (s *Store) Budgets(_ context.Context, userID int64, from time.Time) ([]domain.BudgetProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	from = domain.MonthOf(from)
	var out []domain.BudgetProgress
	for _, b := range s.budgets {
		if b.UserID != userID || b.Month.Before(from) {
			continue
		}
		name := ""
		if i := s.categoryIdx(userID, b.CategoryID); i >= 0 {
			name = s.categories[i].Name
		}
		out = append(out, b.Progress(name, s.spentLocked(userID, b.CategoryID, b.Month)))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Month.Equal(out[j].Month) {
			return out[i].Month.Before(out[j].Month)
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out, nil
}

func (s *Store) UpdateBudget(_ context.Context, userID, id int64, amount decimal.Decimal) (*domain.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].ID == id && s.budgets[i].UserID == userID {
			s.budgets[i].Amount = amount
			b := s.budgets[i]
			return &b, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) DeleteBudget(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].ID == id && s.budgets[i].UserID == userID {
			s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

// === GoalStorage ===

func (s *Store) CreateGoal(_ context.Context, userID int64, name string, target decimal.Decimal, targetDate *time.Time) (*domain.FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := domain.FinancialGoal{ID: s.id(), UserID: userID, Name: name, TargetAmount: target, CurrentAmount: decimal.Zero, TargetDate: targetDate}
	s.goals = append(s.goals, g)
	return &g, nil
}

func (s *Store) Goals(_ context.Context, userID int64) ([]domain.FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.FinancialGoal
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		gi, gj := out[i].TargetDate, out[j].TargetDate
		if gi == nil || gj == nil {
			return gj == nil && gi != nil
		}
		return gi.Before(*gj)
	})
	return out, nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == id && s.goals[i].UserID == userID {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) AddSavings(_ context.Context, userID, goalID, walletID int64, amount decimal.Decimal) (*domain.FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gi := -1
	for i := range s.goals {
		if s.goals[i].ID == goalID && s.goals[i].UserID == userID {
			gi = i
			break
		}
	}
	if gi < 0 {
		return nil, storage.ErrNotFound
	}
	wi := s.walletIdx(userID, walletID)
	if wi < 0 {
		return nil, storage.ErrNotFound
	}
	if s.wallets[wi].Balance.LessThan(amount) {
		return nil, storage.ErrInsufficientFunds
	}

	cat := s.ensureCategoryLocked(userID, domain.GoalSavingsCategory)
	tx := domain.Transaction{
		ID:         s.id(),
		UserID:     userID,
		WalletID:   walletID,
		CategoryID: &cat.ID,
		Amount:     amount,
		AdminFee:   decimal.Zero,
		Type:       domain.Expense,
		Date:       s.today(),
		Notes:      "Menabung untuk " + s.goals[gi].Name,
	}
	s.transactions = append(s.transactions, tx)
	s.wallets[wi].Balance = s.wallets[wi].Balance.Sub(amount)
	s.goals[gi].CurrentAmount = s.goals[gi].CurrentAmount.Add(amount)
	g := s.goals[gi]
	return &g, nil
}

// === DebtStorage ===

func (s *Store) CreateDebt(_ context.Context, userID int64, lenderName string, initial decimal.Decimal, dueDate *time.Time, notes string) (*domain.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := domain.Debt{
		ID: s.id(), UserID: userID, LenderName: lenderName,
		InitialAmount: initial, CurrentBalance: initial,
		DueDate: dueDate, Notes: notes,
	}
	s.debts = append(s.debts, d)
	return &d, nil
}

func (s *Store) Debts(_ context.Context, userID int64) ([]domain.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Debt
	for _, d := range s.debts {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DueDate, out[j].DueDate
		if di == nil || dj == nil {
			return dj == nil && di != nil
		}
		return di.Before(*dj)
	})
	return out, nil
}

func (s *Store) DeleteDebt(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.debts {
		if s.debts[i].ID == id && s.debts[i].UserID == userID {
			s.debts = append(s.debts[:i], s.debts[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *Store) PayDebt(_ context.Context, userID, debtID, walletID int64, amount decimal.Decimal) (*domain.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	di := -1
	for i := range s.debts {
		if s.debts[i].ID == debtID && s.debts[i].UserID == userID {
			di = i
			break
		}
	}
	if di < 0 {
		return nil, storage.ErrNotFound
	}
	wi := s.walletIdx(userID, walletID)
	if wi < 0 {
		return nil, storage.ErrNotFound
	}
	if s.wallets[wi].Balance.LessThan(amount) {
		return nil, storage.ErrInsufficientFunds
	}

	cat := s.ensureCategoryLocked(userID, domain.DebtPaymentCategory)
	payee := s.ensurePayeeLocked(userID, s.debts[di].LenderName)
	tx := domain.Transaction{
		ID:         s.id(),
		UserID:     userID,
		WalletID:   walletID,
		CategoryID: &cat.ID,
		PayeeID:    &payee.ID,
		Amount:     amount,
		AdminFee:   decimal.Zero,
		Type:       domain.Expense,
		Date:       s.today(),
		Notes:      "Pembayaran utang kepada " + s.debts[di].LenderName,
	}
	s.transactions = append(s.transactions, tx)
	s.wallets[wi].Balance = s.wallets[wi].Balance.Sub(amount)
	s.debts[di].CurrentBalance = s.debts[di].CurrentBalance.Sub(amount)
	d := s.debts[di]
	return &d, nil
}

// === ReportStorage ===

func (s *Store) Dashboard(_ context.Context, userID int64) (*domain.DashboardSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := &domain.DashboardSummary{
		TotalAssets:       decimal.Zero,
		TotalLiabilities:  decimal.Zero,
		IncomeThisMonth:   decimal.Zero,
		ExpenseThisMonth:  decimal.Zero,
		ExpenseByCategory: []domain.CategoryAmount{},
	}
	for _, w := range s.wallets {
		if w.UserID == userID && w.Type == domain.WalletAsset {
			sum.TotalAssets = sum.TotalAssets.Add(w.Balance)
		}
	}
	for _, d := range s.debts {
		if d.UserID == userID {
			sum.TotalLiabilities = sum.TotalLiabilities.Add(d.CurrentBalance)
		}
	}
	sum.NetWorth = sum.TotalAssets.Sub(sum.TotalLiabilities)

	// The reporting month follows the most recent transaction; an empty
	// ledger falls back to the current month.
	var latest time.Time
	for _, tx := range s.transactions {
		if tx.UserID == userID && tx.Date.After(latest) {
			latest = tx.Date
		}
	}
	if latest.IsZero() {
		latest = s.now()
	}
	month := domain.MonthOf(latest)
	sum.Month = month.Format("2006-01")

	byCategory := map[string]decimal.Decimal{}
	for _, tx := range s.transactions {
		if tx.UserID != userID || !domain.MonthOf(tx.Date).Equal(month) {
			continue
		}
		switch tx.Type {
		case domain.Income:
			sum.IncomeThisMonth = sum.IncomeThisMonth.Add(tx.Amount)
		case domain.Expense:
			sum.ExpenseThisMonth = sum.ExpenseThisMonth.Add(tx.Amount)
			if tx.CategoryID != nil {
				if i := s.categoryIdx(userID, *tx.CategoryID); i >= 0 {
					name := s.categories[i].Name
					byCategory[name] = byCategory[name].Add(tx.Amount)
				}
			}
		}
	}
	for name, amount := range byCategory {
		sum.ExpenseByCategory = append(sum.ExpenseByCategory, domain.CategoryAmount{Category: name, Amount: amount})
	}
	sort.Slice(sum.ExpenseByCategory, func(i, j int) bool {
		return sum.ExpenseByCategory[i].Category < sum.ExpenseByCategory[j].Category
	})
	return sum, nil
}
