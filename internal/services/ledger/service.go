// Package ledger records immutable double-entry audit entries and
// verifies that the ledger-derived balance matches the stored wallet
// balance.
package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"sabiflow/internal/models"
	"sabiflow/internal/repositories"
)

// Result is the outcome of a consistency check. ExpectedBalance is the
// ledger-derived value (sum of credits minus sum of debits).
type Result struct {
	Valid           bool
	ExpectedBalance decimal.Decimal
	ActualBalance   decimal.Decimal
}

// Recorder appends ledger entries and validates consistency. It carries
// no repository of its own: callers pass the session-scoped repository
// so entries land inside the surrounding database transaction.
type Recorder struct {
	logger *zap.Logger
}

func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		panic("logger is required")
	}
	return &Recorder{logger: logger}
}

// RecordEntry inserts a ledger entry at most once per transaction id.
// A replayed job finds the existing entry and gets it back unchanged,
// which is what keeps duplicate deliveries from corrupting the ledger.
func (r *Recorder) RecordEntry(ctx context.Context, repo repositories.LedgerRepository, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	existing, err := repo.FindByTransactionID(ctx, entry.TransactionID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrLedgerEntryNotFound) {
		return nil, err
	}

	if err := repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ValidateConsistency compares the claimed balance to the ledger sum
// using exact decimal equality. A mismatch is reported, logged at alert
// severity, and left to the caller to treat as fatal; the ledger is
// never auto-corrected.
func (r *Recorder) ValidateConsistency(ctx context.Context, repo repositories.LedgerRepository, walletID string, claimed decimal.Decimal) (*Result, error) {
	summary, err := repo.Summarize(ctx, walletID)
	if err != nil {
		return nil, err
	}

	expected := summary.Credit.Sub(summary.Debit)
	if !expected.Equal(claimed) {
		r.logger.Error("ledger inconsistency detected",
			zap.String("severity", "fatal"),
			zap.String("wallet_id", walletID),
			zap.String("expected_balance", expected.String()),
			zap.String("actual_balance", claimed.String()),
		)
		return &Result{Valid: false, ExpectedBalance: expected, ActualBalance: claimed}, nil
	}

	return &Result{Valid: true, ExpectedBalance: expected, ActualBalance: claimed}, nil
}
