package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "Active"
	WalletStatusFrozen    WalletStatus = "Frozen"
	WalletStatusSuspended WalletStatus = "Suspended"
	WalletStatusBlocked   WalletStatus = "Blocked"
	WalletStatusDeleted   WalletStatus = "Deleted"
)

// Wallet is a user's financial account. Balance holds the encrypted
// representation at rest; the repository layer decrypts it on read, so
// service code only ever sees a plain decimal string.
type Wallet struct {
	ID            string       `gorm:"type:uuid;primaryKey"`
	UserID        string       `gorm:"type:uuid;uniqueIndex;not null"`
	Address       string       `gorm:"uniqueIndex;not null"` // external routing identifier (virtual account number)
	Name          string
	Tag           string // bank name of the virtual account
	RoutingNumber string // bank code of the virtual account
	Balance       string       `gorm:"not null"`
	Status        WalletStatus `gorm:"type:varchar(16);default:'Active'"`
	IsDeleted     bool         `gorm:"default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Status == "" {
		w.Status = WalletStatusActive
	}
	return nil
}
