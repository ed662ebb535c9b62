package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"sabiflow/internal/models"
)

type ledgerRepository struct {
	db    *gorm.DB
	table string
}

// NewLedgerRepository creates a ledger repository bound to one table.
func NewLedgerRepository(db *gorm.DB, table string) LedgerRepository {
	return &ledgerRepository{db: db, table: table}
}

func (r *ledgerRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if err := r.db.WithContext(ctx).Table(r.table).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

func (r *ledgerRepository) FindByTransactionID(ctx context.Context, transactionID string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).Table(r.table).
		Where("transaction_id = ? AND is_deleted = ?", transactionID, false).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLedgerEntryNotFound
		}
		return nil, fmt.Errorf("failed to find ledger entry: %w", err)
	}
	return &entry, nil
}

func (r *ledgerRepository) Summarize(ctx context.Context, walletID string) (*LedgerSummary, error) {
	var summary LedgerSummary
	err := r.db.WithContext(ctx).Table(r.table).
		Select("COALESCE(SUM(credit), 0) AS credit, COALESCE(SUM(debit), 0) AS debit").
		Where("wallet_id = ? AND is_deleted = ?", walletID, false).
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize ledger: %w", err)
	}
	return &summary, nil
}

func (r *ledgerRepository) CountByWallet(ctx context.Context, walletID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(r.table).
		Where("wallet_id = ? AND is_deleted = ?", walletID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return count, nil
}
