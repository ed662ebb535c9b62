package repositories

import (
	"context"
	"errors"

	"sabiflow/internal/models"
)

var (
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrDuplicateWallet = errors.New("wallet already exists")
	// ErrCorruptBalance is returned when a stored balance fails to
	// decrypt. It is fatal; callers must never see the raw ciphertext.
	ErrCorruptBalance = errors.New("corrupt wallet balance")
)

// WalletRepository defines wallet persistence. Implementations returned
// by Store.Wallets transparently encrypt the balance on write and
// decrypt it on read.
type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByID(ctx context.Context, id string) (*models.Wallet, error)
	GetByUserID(ctx context.Context, userID string) (*models.Wallet, error)
	GetByAddress(ctx context.Context, address string) (*models.Wallet, error)
	// GetForUpdate reads the wallet under a row-level exclusive lock and
	// must only be called inside ExecuteInTransaction.
	GetForUpdate(ctx context.Context, id string) (*models.Wallet, error)
	UpdateBalance(ctx context.Context, id string, balance string) error
	UpdateStatus(ctx context.Context, id string, status models.WalletStatus) error
}
