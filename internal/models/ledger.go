package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerEntry is an immutable double-entry audit record. Exactly one entry
// exists per transaction id; entries are never updated or hard-deleted.
type LedgerEntry struct {
	ID            string          `gorm:"type:uuid;primaryKey"`
	WalletID      string          `gorm:"type:uuid;index;not null"`
	TransactionID string          `gorm:"type:uuid;uniqueIndex;not null"`
	Debit         decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Credit        decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Description   string
	IsDeleted     bool `gorm:"default:false"`
	CreatedAt     time.Time
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
