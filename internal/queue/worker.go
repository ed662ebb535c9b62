package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"sabiflow/internal/locks"
	"sabiflow/internal/money"
	"sabiflow/internal/repositories"
	"sabiflow/internal/services/notification"
	"sabiflow/internal/services/transaction"
	"sabiflow/internal/services/wallet"
)

// Processor executes wallet tasks. It owns retry classification: only
// here is an error mapped to "retry later" or "give up", so the service
// layer stays policy-free.
type Processor struct {
	wallets  wallet.Service
	locker   locks.Locker
	notifier notification.Notifier
	logger   *zap.Logger
}

func NewProcessor(wallets wallet.Service, locker locks.Locker, notifier notification.Notifier, logger *zap.Logger) *Processor {
	if wallets == nil {
		panic("wallet service is required")
	}
	if locker == nil {
		panic("locker is required")
	}
	if notifier == nil {
		panic("notifier is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Processor{wallets: wallets, locker: locker, notifier: notifier, logger: logger}
}

// Register wires the processor's handlers into the mux.
func (p *Processor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeWalletCreate, p.HandleWalletCreate)
	mux.HandleFunc(TypeWalletFund, p.HandleWalletFund)
	mux.HandleFunc(TypeWalletCredit, p.HandleWalletCredit)
}

// NewServer builds the asynq server for the wallet queue.
func NewServer(redisAddr, redisPassword string) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword},
		asynq.Config{
			Concurrency: Concurrency,
			Queues:      map[string]int{WalletQueue: 1},
		},
	)
}

func (p *Processor) HandleWalletCreate(ctx context.Context, task *asynq.Task) error {
	var payload CreateWalletPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", TypeWalletCreate, err, asynq.SkipRetry)
	}

	return p.withLock(ctx, "create_wallet:"+payload.UserID, func() error {
		result, err := p.wallets.Create(ctx, payload.UserID)
		if err != nil {
			return err
		}

		if err := p.notifier.WalletCreated(ctx, result.User, result.Wallet); err != nil {
			p.logger.Warn("creation notification failed", zap.Error(err))
		}

		p.logger.Info("wallet create task done",
			zap.String("user_id", payload.UserID),
			zap.String("wallet_id", result.Wallet.ID),
		)
		return nil
	})
}

func (p *Processor) HandleWalletFund(ctx context.Context, task *asynq.Task) error {
	var payload FundWalletPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", TypeWalletFund, err, asynq.SkipRetry)
	}
	if payload.Event != wallet.WebhookEventChargeSuccess {
		p.logger.Info("ignoring webhook event", zap.String("event", payload.Event))
		return nil
	}

	return p.withLock(ctx, "fund_wallet:"+payload.Data.Customer.CustomerCode, func() error {
		result, err := p.wallets.HandleFunding(ctx, payload.Data)
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicateReference) {
				// Replayed delivery; the funding already landed.
				p.logger.Info("funding already processed",
					zap.String("reference", payload.Data.Reference))
				return nil
			}
			return err
		}

		if err := p.notifier.WalletFunded(ctx, result); err != nil {
			p.logger.Warn("funding notification failed", zap.Error(err))
		}

		p.logger.Info("wallet fund task done",
			zap.String("wallet_id", result.Wallet.ID),
			zap.String("reference", result.Transaction.Reference),
		)
		return nil
	})
}

func (p *Processor) HandleWalletCredit(ctx context.Context, task *asynq.Task) error {
	var payload CreditWalletPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid %s payload: %v: %w", TypeWalletCredit, err, asynq.SkipRetry)
	}

	amount, err := money.Parse(payload.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %v: %w", payload.Amount, err, asynq.SkipRetry)
	}
	fees := decimal.Zero
	if payload.Fees != "" {
		fees, err = money.Parse(payload.Fees)
		if err != nil {
			return fmt.Errorf("invalid fees %q: %v: %w", payload.Fees, err, asynq.SkipRetry)
		}
	}

	return p.withLock(ctx, "credit_wallet:"+payload.Address, func() error {
		txn, err := p.wallets.Credit(ctx, payload.Address, transaction.Params{
			Amount:    amount,
			Fees:      fees,
			Reference: payload.Reference,
			Desc:      payload.Desc,
		})
		if err != nil {
			if payload.Reference != "" && errors.Is(err, repositories.ErrDuplicateReference) {
				// Redelivered task; the credit already landed.
				p.logger.Info("credit already processed",
					zap.String("reference", payload.Reference))
				return nil
			}
			return err
		}
		p.logger.Info("wallet credit task done",
			zap.String("address", payload.Address),
			zap.String("reference", txn.Reference),
		)
		return nil
	})
}

// withLock runs fn under the distributed lock for key, then classifies
// the outcome for asynq.
func (p *Processor) withLock(ctx context.Context, key string, fn func() error) error {
	if err := p.locker.Acquire(ctx, key); err != nil {
		// Another worker holds the key; redeliver and try again.
		return err
	}
	defer func() {
		if err := p.locker.Release(context.WithoutCancel(ctx), key); err != nil {
			p.logger.Warn("lock release failed", zap.String("key", key), zap.Error(err))
		}
	}()

	if err := fn(); err != nil {
		return classify(err)
	}
	return nil
}

// classify marks terminal failures so asynq stops redelivering them.
// Everything else stays retryable: transient infrastructure errors heal
// and idempotent handlers make redelivery safe.
func classify(err error) error {
	switch {
	case errors.Is(err, wallet.ErrUserNotFound),
		errors.Is(err, wallet.ErrWalletNotFound),
		errors.Is(err, wallet.ErrWalletNotActive),
		errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrInsufficientBalance),
		errors.Is(err, money.ErrInvalidMonetaryValue):
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	case errors.Is(err, wallet.ErrLedgerInconsistency),
		errors.Is(err, repositories.ErrCorruptBalance):
		// Fatal data integrity failure; retrying cannot fix it and
		// must not mask it.
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		return err
	}
}
