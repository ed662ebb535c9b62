package repositories

import (
	"context"
	"errors"
	"time"

	"sabiflow/internal/models"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateReference  = errors.New("transaction reference already exists")
)

// TransactionRepository defines persistence for wallet transactions.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.WalletTransaction) error
	GetByID(ctx context.Context, id string) (*models.WalletTransaction, error)
	GetByReference(ctx context.Context, reference string) (*models.WalletTransaction, error)
	UpdateStatus(ctx context.Context, id string, status models.TransactionStatus, processedAt *time.Time) error
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]models.WalletTransaction, error)
}
