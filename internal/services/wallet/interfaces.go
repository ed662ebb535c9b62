package wallet

import (
	"context"

	"github.com/shopspring/decimal"

	"sabiflow/internal/models"
	"sabiflow/internal/services/ledger"
	"sabiflow/internal/services/transaction"
)

// Service is the wallet balance engine. All balance mutations go
// through Credit/Debit/Reverse; everything else is lookup or lifecycle.
type Service interface {
	// Wallet lifecycle
	Create(ctx context.Context, userID string) (*CreationResult, error)
	Freeze(ctx context.Context, walletID string) error
	Suspend(ctx context.Context, walletID string) error
	Block(ctx context.Context, walletID string) error
	Restore(ctx context.Context, walletID string) error

	// Balance mutations
	Credit(ctx context.Context, address string, params transaction.Params) (*models.WalletTransaction, error)
	Debit(ctx context.Context, address string, params transaction.Params) (*models.WalletTransaction, error)
	Reverse(ctx context.Context, address string, params transaction.Params) (*models.WalletTransaction, error)
	HandleFunding(ctx context.Context, data WebhookData) (*FundingResult, error)

	// Balance reads
	GetBalance(ctx context.Context, walletID string) (decimal.Decimal, error)
	HasSufficientBalance(ctx context.Context, address string, amount decimal.Decimal) (bool, error)
	ValidateConsistency(ctx context.Context, walletID string) (*ledger.Result, error)

	// Lookups
	FindByUserID(ctx context.Context, userID string) (*models.Wallet, error)
	FindByAddress(ctx context.Context, address string) (*models.Wallet, error)
}

// AccountProvider provisions the external routing identity for a new
// wallet (gateway customer plus dedicated virtual account). The engine
// calls it exactly once per new wallet and treats it as opaque.
type AccountProvider interface {
	GenerateWalletAddress(ctx context.Context, holder AccountHolder) (*VirtualAccount, error)
}
