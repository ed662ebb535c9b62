package repositories

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"sabiflow/internal/models"
)

// WalletLedgerTable is the primary double-entry ledger table. The
// repository is parameterized by table name so additional ledgers share
// the same contract without string-keyed dispatch at call sites.
const WalletLedgerTable = "ledger_entries"

var ErrLedgerEntryNotFound = errors.New("ledger entry not found")

// LedgerSummary holds the aggregate of all non-deleted entries for a
// wallet. The expected balance is Credit - Debit.
type LedgerSummary struct {
	Credit decimal.Decimal
	Debit  decimal.Decimal
}

// LedgerRepository defines access to an append-only double-entry ledger.
type LedgerRepository interface {
	Create(ctx context.Context, entry *models.LedgerEntry) error
	FindByTransactionID(ctx context.Context, transactionID string) (*models.LedgerEntry, error)
	Summarize(ctx context.Context, walletID string) (*LedgerSummary, error)
	CountByWallet(ctx context.Context, walletID string) (int64, error)
}
