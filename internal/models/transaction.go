package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "Deposit"
	TransactionTypeWithdrawal TransactionType = "Withdrawal"
	TransactionTypeTransfer   TransactionType = "Transfer"
	TransactionTypeReversal   TransactionType = "Reversal"
)

type TransactionFlow string

const (
	FlowInflow  TransactionFlow = "Inflow"
	FlowOutflow TransactionFlow = "Outflow"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// WalletTransaction records one monetary movement. NetAmount is the value
// actually applied to the balance: Amount (gross) minus Fees.
type WalletTransaction struct {
	ID            string            `gorm:"type:uuid;primaryKey"`
	WalletID      string            `gorm:"type:uuid;index;not null"`
	Amount        decimal.Decimal   `gorm:"type:numeric(20,2);not null"`
	Fees          decimal.Decimal   `gorm:"type:numeric(20,2);not null"`
	NetAmount     decimal.Decimal   `gorm:"type:numeric(20,2);not null"`
	Reference     string            `gorm:"uniqueIndex;not null"`
	Type          TransactionType   `gorm:"type:varchar(16);not null"`
	Flow          TransactionFlow   `gorm:"type:varchar(16);not null"`
	Status        TransactionStatus `gorm:"type:varchar(16);not null;default:'pending'"`
	Desc          string
	TransactionAt time.Time
	ProcessedAt   *time.Time
	IsDeleted     bool `gorm:"default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (t *WalletTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
