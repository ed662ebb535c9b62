// Package transaction creates and finalizes wallet transaction records.
// Every helper runs against a session-scoped repository: a transaction
// record is never committed independently of the balance mutation it
// accompanies.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sabiflow/internal/models"
	"sabiflow/internal/money"
	"sabiflow/internal/repositories"
	"sabiflow/internal/utils"
)

var ErrInvalidStatus = errors.New("invalid transaction status")

// Params describes a monetary event before it is recorded. Amount is
// gross; the recorder derives NetAmount = Amount - Fees.
type Params struct {
	WalletID  string
	Amount    decimal.Decimal
	Fees      decimal.Decimal
	Reference string // generated when absent
	Desc      string
}

// Service records wallet transactions.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) CreateDeposit(ctx context.Context, repo repositories.TransactionRepository, params Params) (*models.WalletTransaction, error) {
	return s.create(ctx, repo, params, models.TransactionTypeDeposit, models.FlowInflow)
}

func (s *Service) CreateWithdrawal(ctx context.Context, repo repositories.TransactionRepository, params Params) (*models.WalletTransaction, error) {
	return s.create(ctx, repo, params, models.TransactionTypeWithdrawal, models.FlowOutflow)
}

func (s *Service) CreateTransfer(ctx context.Context, repo repositories.TransactionRepository, params Params) (*models.WalletTransaction, error) {
	return s.create(ctx, repo, params, models.TransactionTypeTransfer, models.FlowOutflow)
}

func (s *Service) CreateReversal(ctx context.Context, repo repositories.TransactionRepository, params Params) (*models.WalletTransaction, error) {
	return s.create(ctx, repo, params, models.TransactionTypeReversal, models.FlowInflow)
}

// UpdateStatus moves a pending transaction to a terminal status. Success
// stamps processedAt; failed leaves it nil. Transitions are monotonic.
func (s *Service) UpdateStatus(ctx context.Context, repo repositories.TransactionRepository, id string, status models.TransactionStatus) error {
	if status != models.TransactionStatusSuccess && status != models.TransactionStatusFailed {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	var processedAt *time.Time
	if status == models.TransactionStatusSuccess {
		now := time.Now()
		processedAt = &now
	}
	return repo.UpdateStatus(ctx, id, status, processedAt)
}

func (s *Service) create(ctx context.Context, repo repositories.TransactionRepository, params Params, txType models.TransactionType, flow models.TransactionFlow) (*models.WalletTransaction, error) {
	reference := params.Reference
	if reference == "" {
		ref, err := utils.GenerateTransactionReference("TXN")
		if err != nil {
			return nil, fmt.Errorf("failed to generate reference: %w", err)
		}
		reference = ref
	}

	amount := money.Normalize(params.Amount)
	fees := money.Normalize(params.Fees)

	txn := &models.WalletTransaction{
		WalletID:      params.WalletID,
		Amount:        amount,
		Fees:          fees,
		NetAmount:     amount.Sub(fees),
		Reference:     reference,
		Type:          txType,
		Flow:          flow,
		Status:        models.TransactionStatusPending,
		Desc:          params.Desc,
		TransactionAt: time.Now(),
	}

	if err := repo.Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}
