// Package wallet implements the balance engine: every wallet mutation
// runs inside one database transaction under a row-level lock, recording
// a pending transaction, applying the net amount, appending the ledger
// entry, and verifying ledger consistency before and after.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"sabiflow/internal/models"
	"sabiflow/internal/money"
	"sabiflow/internal/repositories"
	"sabiflow/internal/services/ledger"
	"sabiflow/internal/services/transaction"
)

// mutationTimeout bounds how long a single balance mutation may hold
// its row lock.
const mutationTimeout = 20 * time.Second

type createFunc func(ctx context.Context, repo repositories.TransactionRepository, params transaction.Params) (*models.WalletTransaction, error)

type service struct {
	store        repositories.Store
	ledger       *ledger.Recorder
	transactions *transaction.Service
	provider     AccountProvider
	logger       *zap.Logger
	metrics      MetricsCollector
}

// NewService creates the wallet balance engine.
func NewService(
	store repositories.Store,
	ledgerRecorder *ledger.Recorder,
	transactions *transaction.Service,
	provider AccountProvider,
	logger *zap.Logger,
	metrics MetricsCollector,
) Service {
	if store == nil {
		panic("store is required")
	}
	if ledgerRecorder == nil {
		panic("ledger recorder is required")
	}
	if transactions == nil {
		panic("transaction service is required")
	}
	if provider == nil {
		panic("account provider is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		store:        store,
		ledger:       ledgerRecorder,
		transactions: transactions,
		provider:     provider,
		logger:       logger,
		metrics:      metrics,
	}
}

// Create provisions a wallet for the user, or returns the existing one.
// Re-invocation is safe; the userId-keyed distributed lock plus the
// unique user index make duplicate creation impossible.
func (s *service) Create(ctx context.Context, userID string) (*CreationResult, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	existing, err := s.store.Wallets().GetByUserID(ctx, user.ID)
	if err == nil {
		return &CreationResult{Wallet: existing, User: user}, nil
	}
	if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, err
	}

	account, err := s.provider.GenerateWalletAddress(ctx, AccountHolder{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to provision wallet address: %w", err)
	}

	newWallet := &models.Wallet{
		UserID:        user.ID,
		Address:       account.AccountNumber,
		Name:          account.AccountName,
		Tag:           account.BankName,
		RoutingNumber: account.BankCode,
		Balance:       money.FormatForStorage(decimal.Zero),
		Status:        models.WalletStatusActive,
	}

	if err := s.store.Wallets().Create(ctx, newWallet); err != nil {
		if errors.Is(err, repositories.ErrDuplicateWallet) {
			raced, err := s.store.Wallets().GetByUserID(ctx, user.ID)
			if err != nil {
				return nil, err
			}
			return &CreationResult{Wallet: raced, User: user}, nil
		}
		return nil, err
	}

	s.logger.Info("wallet created",
		zap.String("wallet_id", newWallet.ID),
		zap.String("user_id", user.ID),
		zap.String("address", newWallet.Address),
	)
	return &CreationResult{Wallet: newWallet, User: user}, nil
}

// Credit applies an inflow to the wallet at the given address.
func (s *service) Credit(ctx context.Context, address string, params transaction.Params) (*models.WalletTransaction, error) {
	return s.updateBalance(ctx, address, models.FlowInflow, s.transactions.CreateDeposit, params)
}

// Debit applies an outflow. The gross amount is checked against the
// balance before the mutation is attempted; the engine re-checks the net
// amount under the row lock and never lets the balance go negative.
func (s *service) Debit(ctx context.Context, address string, params transaction.Params) (*models.WalletTransaction, error) {
	ok, err := s.HasSufficientBalance(ctx, address, params.Amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientBalance
	}
	return s.updateBalance(ctx, address, models.FlowOutflow, s.transactions.CreateWithdrawal, params)
}

// Reverse credits a previously debited amount back to the wallet.
func (s *service) Reverse(ctx context.Context, address string, params transaction.Params) (*models.WalletTransaction, error) {
	return s.updateBalance(ctx, address, models.FlowInflow, s.transactions.CreateReversal, params)
}

// HandleFunding processes a gateway funding event: resolves the wallet
// by the receiver account number and credits the gross amount less the
// gateway fees. The gateway reference doubles as the idempotency key;
// a replayed event collides on the unique reference index.
func (s *service) HandleFunding(ctx context.Context, data WebhookData) (*FundingResult, error) {
	address := data.Authorization.ReceiverBankAccountNumber

	w, err := s.FindByAddress(ctx, address)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByID(ctx, w.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve wallet owner: %w", err)
	}

	amount, err := money.FromFloat(data.Amount)
	if err != nil {
		return nil, err
	}
	fees, err := money.FromFloat(data.Fees)
	if err != nil {
		return nil, err
	}

	txn, err := s.Credit(ctx, w.Address, transaction.Params{
		WalletID:  w.ID,
		Amount:    amount,
		Fees:      fees,
		Reference: data.Reference,
		Desc:      "Wallet funding",
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Wallets().GetByID(ctx, w.ID)
	if err != nil {
		return nil, err
	}

	return &FundingResult{Wallet: updated, User: user, Transaction: txn}, nil
}

// GetBalance returns the decrypted balance as a decimal.
func (s *service) GetBalance(ctx context.Context, walletID string) (decimal.Decimal, error) {
	w, err := s.store.Wallets().GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return decimal.Zero, ErrWalletNotFound
		}
		return decimal.Zero, err
	}
	return money.Parse(w.Balance)
}

// HasSufficientBalance reports whether the wallet can cover the amount.
func (s *service) HasSufficientBalance(ctx context.Context, address string, amount decimal.Decimal) (bool, error) {
	w, err := s.FindByAddress(ctx, address)
	if err != nil {
		return false, err
	}
	balance, err := money.Parse(w.Balance)
	if err != nil {
		return false, err
	}
	return balance.GreaterThanOrEqual(amount), nil
}

// ValidateConsistency checks the stored balance against the ledger sum.
func (s *service) ValidateConsistency(ctx context.Context, walletID string) (*ledger.Result, error) {
	balance, err := s.GetBalance(ctx, walletID)
	if err != nil {
		return nil, err
	}
	return s.ledger.ValidateConsistency(ctx, s.store.Ledger(), walletID, balance)
}

func (s *service) FindByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	w, err := s.store.Wallets().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return w, nil
}

func (s *service) FindByAddress(ctx context.Context, address string) (*models.Wallet, error) {
	w, err := s.store.Wallets().GetByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return w, nil
}

func (s *service) Freeze(ctx context.Context, walletID string) error {
	return s.setStatus(ctx, walletID, models.WalletStatusFrozen)
}

func (s *service) Suspend(ctx context.Context, walletID string) error {
	return s.setStatus(ctx, walletID, models.WalletStatusSuspended)
}

func (s *service) Block(ctx context.Context, walletID string) error {
	return s.setStatus(ctx, walletID, models.WalletStatusBlocked)
}

func (s *service) Restore(ctx context.Context, walletID string) error {
	return s.setStatus(ctx, walletID, models.WalletStatusActive)
}

func (s *service) setStatus(ctx context.Context, walletID string, status models.WalletStatus) error {
	err := s.store.Wallets().UpdateStatus(ctx, walletID, status)
	if errors.Is(err, repositories.ErrWalletNotFound) {
		return ErrWalletNotFound
	}
	return err
}

// errKind buckets a mutation failure for metrics.
func errKind(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrLedgerInconsistency):
		return "ledger_inconsistency"
	case errors.Is(err, ErrWalletNotFound):
		return "wallet_not_found"
	case errors.Is(err, ErrWalletNotActive):
		return "wallet_not_active"
	case errors.Is(err, repositories.ErrCorruptBalance):
		return "corrupt_balance"
	case errors.Is(err, repositories.ErrDuplicateReference):
		return "duplicate_reference"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}

// updateBalance is the mutation state machine. Steps 1-9 run inside one
// database transaction; any failure rolls back the transaction record,
// the balance change, and the ledger entry together.
func (s *service) updateBalance(ctx context.Context, address string, flow models.TransactionFlow, create createFunc, params transaction.Params) (*models.WalletTransaction, error) {
	started := time.Now()

	if params.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	w, err := s.FindByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WalletStatusActive {
		return nil, ErrWalletNotActive
	}

	ctx, cancel := context.WithTimeout(ctx, mutationTimeout)
	defer cancel()

	params.WalletID = w.ID

	var result *models.WalletTransaction
	err = s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		locked, err := tx.Wallets().GetForUpdate(ctx, w.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		// The wallet may have been frozen between the unlocked check
		// and the row lock; the locked row is authoritative.
		if locked.Status != models.WalletStatusActive {
			return ErrWalletNotActive
		}

		currentBalance, err := money.Parse(locked.Balance)
		if err != nil {
			return err
		}

		preCheck, err := s.ledger.ValidateConsistency(ctx, tx.Ledger(), locked.ID, currentBalance)
		if err != nil {
			return err
		}
		if !preCheck.Valid {
			s.metrics.RecordConsistencyFailure(locked.ID)
			return fmt.Errorf("%w: expected balance %s, actual balance %s",
				ErrLedgerInconsistency, preCheck.ExpectedBalance, preCheck.ActualBalance)
		}

		txn, err := create(ctx, tx.Transactions(), params)
		if err != nil {
			return err
		}

		debit, credit := decimal.Zero, decimal.Zero
		var newBalance decimal.Decimal
		switch flow {
		case models.FlowInflow:
			credit = txn.NetAmount
			newBalance = currentBalance.Add(txn.NetAmount)
		case models.FlowOutflow:
			if currentBalance.LessThan(txn.NetAmount) {
				return ErrInsufficientBalance
			}
			debit = txn.NetAmount
			newBalance = currentBalance.Sub(txn.NetAmount)
		default:
			return fmt.Errorf("invalid transaction flow: %q", flow)
		}

		if err := tx.Wallets().UpdateBalance(ctx, locked.ID, money.FormatForStorage(newBalance)); err != nil {
			return err
		}

		updated, err := tx.Wallets().GetByID(ctx, locked.ID)
		if err != nil {
			return err
		}
		updatedBalance, err := money.Parse(updated.Balance)
		if err != nil {
			return err
		}

		if _, err := s.ledger.RecordEntry(ctx, tx.Ledger(), &models.LedgerEntry{
			WalletID:      locked.ID,
			TransactionID: txn.ID,
			Debit:         debit,
			Credit:        credit,
			BalanceBefore: currentBalance,
			BalanceAfter:  updatedBalance,
			Description:   txn.Reference,
		}); err != nil {
			return err
		}

		postCheck, err := s.ledger.ValidateConsistency(ctx, tx.Ledger(), locked.ID, updatedBalance)
		if err != nil {
			return err
		}
		if !postCheck.Valid {
			s.metrics.RecordConsistencyFailure(locked.ID)
			return fmt.Errorf("%w: expected balance %s, actual balance %s",
				ErrLedgerInconsistency, postCheck.ExpectedBalance, postCheck.ActualBalance)
		}

		if err := s.transactions.UpdateStatus(ctx, tx.Transactions(), txn.ID, models.TransactionStatusSuccess); err != nil {
			return err
		}
		// Re-read so the returned record carries the persisted status
		// and processedAt, not the pending snapshot.
		finalized, err := tx.Transactions().GetByID(ctx, txn.ID)
		if err != nil {
			return err
		}

		result = finalized
		return nil
	})
	if err != nil {
		s.metrics.RecordMutationError(string(flow), errKind(err))
		return nil, err
	}

	s.metrics.RecordMutation(string(flow), time.Since(started))
	s.logger.Info("wallet balance updated",
		zap.String("wallet_id", w.ID),
		zap.String("flow", string(flow)),
		zap.String("reference", result.Reference),
		zap.String("net_amount", result.NetAmount.String()),
	)
	return result, nil
}
