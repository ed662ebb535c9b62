// Package memory provides an in-memory implementation of the
// repositories.Store contract. It backs service tests so the balance
// engine can be exercised without postgres; balances are held in
// plaintext since encryption at rest is a property of the gorm store.
package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sabiflow/internal/models"
	"sabiflow/internal/repositories"
)

type Store struct {
	users        map[string]models.User
	wallets      map[string]models.Wallet
	transactions map[string]models.WalletTransaction
	ledger       map[string]models.LedgerEntry // keyed by transaction id
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]models.User),
		wallets:      make(map[string]models.Wallet),
		transactions: make(map[string]models.WalletTransaction),
		ledger:       make(map[string]models.LedgerEntry),
	}
}

func (s *Store) Users() repositories.UserRepository               { return (*userRepo)(s) }
func (s *Store) Wallets() repositories.WalletRepository           { return (*walletRepo)(s) }
func (s *Store) Transactions() repositories.TransactionRepository { return (*transactionRepo)(s) }
func (s *Store) Ledger() repositories.LedgerRepository            { return (*ledgerRepo)(s) }

// ExecuteInTransaction snapshots all tables and restores them when fn
// fails, giving the same all-or-nothing semantics as a database
// transaction.
func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(repositories.Store) error) error {
	users := cloneMap(s.users)
	wallets := cloneMap(s.wallets)
	transactions := cloneMap(s.transactions)
	ledger := cloneMap(s.ledger)

	if err := fn(s); err != nil {
		s.users = users
		s.wallets = wallets
		s.transactions = transactions
		s.ledger = ledger
		return err
	}
	return nil
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ---- users ----

type userRepo Store

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &user, nil
}

// ---- wallets ----

type walletRepo Store

func (r *walletRepo) Create(ctx context.Context, wallet *models.Wallet) error {
	for _, w := range r.wallets {
		if w.UserID == wallet.UserID || w.Address == wallet.Address {
			return repositories.ErrDuplicateWallet
		}
	}
	if wallet.ID == "" {
		wallet.ID = uuid.NewString()
	}
	if wallet.Status == "" {
		wallet.Status = models.WalletStatusActive
	}
	wallet.CreatedAt = time.Now()
	r.wallets[wallet.ID] = *wallet
	return nil
}

func (r *walletRepo) GetByID(ctx context.Context, id string) (*models.Wallet, error) {
	wallet, ok := r.wallets[id]
	if !ok || wallet.IsDeleted {
		return nil, repositories.ErrWalletNotFound
	}
	return &wallet, nil
}

func (r *walletRepo) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	return r.find(func(w models.Wallet) bool { return w.UserID == userID })
}

func (r *walletRepo) GetByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	return r.find(func(w models.Wallet) bool { return w.Address == address })
}

func (r *walletRepo) GetForUpdate(ctx context.Context, id string) (*models.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *walletRepo) UpdateBalance(ctx context.Context, id string, balance string) error {
	wallet, ok := r.wallets[id]
	if !ok {
		return repositories.ErrWalletNotFound
	}
	wallet.Balance = balance
	wallet.UpdatedAt = time.Now()
	r.wallets[id] = wallet
	return nil
}

func (r *walletRepo) UpdateStatus(ctx context.Context, id string, status models.WalletStatus) error {
	wallet, ok := r.wallets[id]
	if !ok {
		return repositories.ErrWalletNotFound
	}
	wallet.Status = status
	wallet.UpdatedAt = time.Now()
	r.wallets[id] = wallet
	return nil
}

func (r *walletRepo) find(match func(models.Wallet) bool) (*models.Wallet, error) {
	for _, w := range r.wallets {
		if match(w) && !w.IsDeleted {
			wallet := w
			return &wallet, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

// ---- transactions ----

type transactionRepo Store

func (r *transactionRepo) Create(ctx context.Context, txn *models.WalletTransaction) error {
	for _, t := range r.transactions {
		if t.Reference == txn.Reference {
			return repositories.ErrDuplicateReference
		}
	}
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	txn.CreatedAt = time.Now()
	r.transactions[txn.ID] = *txn
	return nil
}

func (r *transactionRepo) GetByID(ctx context.Context, id string) (*models.WalletTransaction, error) {
	txn, ok := r.transactions[id]
	if !ok || txn.IsDeleted {
		return nil, repositories.ErrTransactionNotFound
	}
	return &txn, nil
}

func (r *transactionRepo) GetByReference(ctx context.Context, reference string) (*models.WalletTransaction, error) {
	for _, t := range r.transactions {
		if t.Reference == reference && !t.IsDeleted {
			txn := t
			return &txn, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (r *transactionRepo) UpdateStatus(ctx context.Context, id string, status models.TransactionStatus, processedAt *time.Time) error {
	txn, ok := r.transactions[id]
	if !ok {
		return repositories.ErrTransactionNotFound
	}
	txn.Status = status
	txn.ProcessedAt = processedAt
	txn.UpdatedAt = time.Now()
	r.transactions[id] = txn
	return nil
}

func (r *transactionRepo) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]models.WalletTransaction, error) {
	var txns []models.WalletTransaction
	for _, t := range r.transactions {
		if t.WalletID == walletID && !t.IsDeleted {
			txns = append(txns, t)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].TransactionAt.After(txns[j].TransactionAt) })
	if offset >= len(txns) {
		return nil, nil
	}
	txns = txns[offset:]
	if limit > 0 && limit < len(txns) {
		txns = txns[:limit]
	}
	return txns, nil
}

// ---- ledger ----

type ledgerRepo Store

func (r *ledgerRepo) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now()
	r.ledger[entry.TransactionID] = *entry
	return nil
}

func (r *ledgerRepo) FindByTransactionID(ctx context.Context, transactionID string) (*models.LedgerEntry, error) {
	entry, ok := r.ledger[transactionID]
	if !ok || entry.IsDeleted {
		return nil, repositories.ErrLedgerEntryNotFound
	}
	return &entry, nil
}

func (r *ledgerRepo) Summarize(ctx context.Context, walletID string) (*repositories.LedgerSummary, error) {
	summary := &repositories.LedgerSummary{Credit: decimal.Zero, Debit: decimal.Zero}
	for _, e := range r.ledger {
		if e.WalletID == walletID && !e.IsDeleted {
			summary.Credit = summary.Credit.Add(e.Credit)
			summary.Debit = summary.Debit.Add(e.Debit)
		}
	}
	return summary, nil
}

func (r *ledgerRepo) CountByWallet(ctx context.Context, walletID string) (int64, error) {
	var count int64
	for _, e := range r.ledger {
		if e.WalletID == walletID && !e.IsDeleted {
			count++
		}
	}
	return count, nil
}
