// Package repositories provides the data access layer. All reads and
// writes of wallet state go through these interfaces so the balance
// engine can run against postgres in production and in-memory fakes in
// tests.
package repositories

import (
	"context"

	"gorm.io/gorm"

	"sabiflow/internal/encryption"
)

// Store bundles the repositories that participate in a balance mutation.
// ExecuteInTransaction yields a session-scoped Store; everything done
// through it commits or rolls back as one unit.
type Store interface {
	Users() UserRepository
	Wallets() WalletRepository
	Transactions() TransactionRepository
	Ledger() LedgerRepository
	ExecuteInTransaction(ctx context.Context, fn func(Store) error) error
}

type gormStore struct {
	db          *gorm.DB
	cipher      *encryption.Cipher
	ledgerTable string
}

// NewStore creates the gorm-backed Store. Wallet access is wrapped with
// the encrypting repository so callers only ever see plaintext balances.
func NewStore(db *gorm.DB, cipher *encryption.Cipher) Store {
	if db == nil {
		panic("db is required")
	}
	if cipher == nil {
		panic("cipher is required")
	}
	return &gormStore{db: db, cipher: cipher, ledgerTable: WalletLedgerTable}
}

func (s *gormStore) Users() UserRepository {
	return newUserRepository(s.db)
}

func (s *gormStore) Wallets() WalletRepository {
	return NewEncryptedWalletRepository(newWalletRepository(s.db), s.cipher)
}

func (s *gormStore) Transactions() TransactionRepository {
	return newTransactionRepository(s.db)
}

func (s *gormStore) Ledger() LedgerRepository {
	return NewLedgerRepository(s.db, s.ledgerTable)
}

func (s *gormStore) ExecuteInTransaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx, cipher: s.cipher, ledgerTable: s.ledgerTable})
	})
}
