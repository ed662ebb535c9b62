package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"sabiflow/internal/models"
)

type transactionRepository struct {
	db *gorm.DB
}

func newTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.WalletTransaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*models.WalletTransaction, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*models.WalletTransaction, error) {
	return r.getOne(ctx, "reference = ?", reference)
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, id string, status models.TransactionStatus, processedAt *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "processed_at": processedAt})
	if result.Error != nil {
		return fmt.Errorf("failed to update transaction status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *transactionRepository) ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]models.WalletTransaction, error) {
	var txns []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ? AND is_deleted = ?", walletID, false).
		Order("transaction_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

func (r *transactionRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where(query+" AND is_deleted = ?", arg, false).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}
