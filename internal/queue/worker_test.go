package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sabiflow/internal/locks"
	"sabiflow/internal/models"
	"sabiflow/internal/repositories/memory"
	"sabiflow/internal/services/ledger"
	"sabiflow/internal/services/transaction"
	"sabiflow/internal/services/wallet"
)

type fixedProvider struct{ n int }

func (p *fixedProvider) GenerateWalletAddress(ctx context.Context, holder wallet.AccountHolder) (*wallet.VirtualAccount, error) {
	p.n++
	return &wallet.VirtualAccount{
		AccountNumber: fmt.Sprintf("55443322%04d", p.n),
		AccountName:   holder.FirstName + " " + holder.LastName,
		BankName:      "Test Bank",
		BankCode:      "058",
	}, nil
}

type recordingNotifier struct {
	created []string // wallet ids
	funded  []string // transaction references
}

func (n *recordingNotifier) WalletCreated(ctx context.Context, user *models.User, w *models.Wallet) error {
	n.created = append(n.created, w.ID)
	return nil
}

func (n *recordingNotifier) WalletFunded(ctx context.Context, result *wallet.FundingResult) error {
	n.funded = append(n.funded, result.Transaction.Reference)
	return nil
}

type testEnv struct {
	processor *Processor
	store     *memory.Store
	locker    *locks.MemoryLocker
	notifier  *recordingNotifier
	user      *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	svc := wallet.NewService(
		store,
		ledger.NewRecorder(zap.NewNop()),
		transaction.NewService(),
		&fixedProvider{},
		zap.NewNop(),
		nil,
	)
	locker := locks.NewMemoryLocker(time.Minute)
	notifier := &recordingNotifier{}
	processor := NewProcessor(svc, locker, notifier, zap.NewNop())

	user := &models.User{Email: "ada@example.com", FirstName: "Ada", LastName: "Obi"}
	require.NoError(t, store.Users().Create(context.Background(), user))

	return &testEnv{processor: processor, store: store, locker: locker, notifier: notifier, user: user}
}

func mustTask(t *testing.T, taskType string, payload any) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(taskType, data)
}

func (e *testEnv) createWallet(t *testing.T) *models.Wallet {
	t.Helper()
	ctx := context.Background()
	task := mustTask(t, TypeWalletCreate, CreateWalletPayload{UserID: e.user.ID})
	require.NoError(t, e.processor.HandleWalletCreate(ctx, task))
	w, err := e.store.Wallets().GetByUserID(ctx, e.user.ID)
	require.NoError(t, err)
	return w
}

func TestHandleWalletCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and is replay safe", func(t *testing.T) {
		env := newTestEnv(t)
		task := mustTask(t, TypeWalletCreate, CreateWalletPayload{UserID: env.user.ID})

		require.NoError(t, env.processor.HandleWalletCreate(ctx, task))
		require.NoError(t, env.processor.HandleWalletCreate(ctx, task))

		w, err := env.store.Wallets().GetByUserID(ctx, env.user.ID)
		require.NoError(t, err)
		assert.Equal(t, "0.00", w.Balance)
	})

	t.Run("dispatches creation notification", func(t *testing.T) {
		env := newTestEnv(t)
		task := mustTask(t, TypeWalletCreate, CreateWalletPayload{UserID: env.user.ID})

		require.NoError(t, env.processor.HandleWalletCreate(ctx, task))

		w, err := env.store.Wallets().GetByUserID(ctx, env.user.ID)
		require.NoError(t, err)
		require.Len(t, env.notifier.created, 1)
		assert.Equal(t, w.ID, env.notifier.created[0])
	})

	t.Run("unknown user does not retry", func(t *testing.T) {
		env := newTestEnv(t)
		task := mustTask(t, TypeWalletCreate, CreateWalletPayload{UserID: "missing"})

		err := env.processor.HandleWalletCreate(ctx, task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("held lock is retryable", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.locker.Acquire(ctx, "create_wallet:"+env.user.ID))

		task := mustTask(t, TypeWalletCreate, CreateWalletPayload{UserID: env.user.ID})
		err := env.processor.HandleWalletCreate(ctx, task)
		assert.ErrorIs(t, err, locks.ErrLockHeld)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("garbage payload does not retry", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.processor.HandleWalletCreate(ctx, asynq.NewTask(TypeWalletCreate, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestHandleWalletFund(t *testing.T) {
	ctx := context.Background()

	fundPayload := func(w *models.Wallet, reference string) FundWalletPayload {
		return FundWalletPayload{
			Event: wallet.WebhookEventChargeSuccess,
			Data: wallet.WebhookData{
				Reference: reference,
				Amount:    5000,
				Fees:      50,
				Authorization: wallet.WebhookAuthorization{
					ReceiverBankAccountNumber: w.Address,
				},
				Customer: wallet.WebhookCustomer{CustomerCode: "CUS_001"},
			},
		}
	}

	t.Run("credits net amount", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.createWallet(t)

		task := mustTask(t, TypeWalletFund, fundPayload(w, "gw_ref_1"))
		require.NoError(t, env.processor.HandleWalletFund(ctx, task))

		updated, err := env.store.Wallets().GetByID(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, "4950.00", updated.Balance)
		require.Len(t, env.notifier.funded, 1)
		assert.Equal(t, "gw_ref_1", env.notifier.funded[0])
	})

	t.Run("replayed delivery is acknowledged without double credit", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.createWallet(t)

		task := mustTask(t, TypeWalletFund, fundPayload(w, "gw_ref_2"))
		require.NoError(t, env.processor.HandleWalletFund(ctx, task))
		require.NoError(t, env.processor.HandleWalletFund(ctx, task))

		updated, err := env.store.Wallets().GetByID(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, "4950.00", updated.Balance)

		count, err := env.store.Ledger().CountByWallet(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("non-charge events are ignored", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.createWallet(t)

		payload := fundPayload(w, "gw_ref_3")
		payload.Event = wallet.WebhookEventTransferFailed
		require.NoError(t, env.processor.HandleWalletFund(ctx, mustTask(t, TypeWalletFund, payload)))

		updated, err := env.store.Wallets().GetByID(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, "0.00", updated.Balance)
	})

	t.Run("unknown receiver does not retry", func(t *testing.T) {
		env := newTestEnv(t)
		payload := FundWalletPayload{
			Event: wallet.WebhookEventChargeSuccess,
			Data: wallet.WebhookData{
				Reference: "gw_ref_4",
				Amount:    100,
				Authorization: wallet.WebhookAuthorization{
					ReceiverBankAccountNumber: "0000000000",
				},
			},
		}
		err := env.processor.HandleWalletFund(ctx, mustTask(t, TypeWalletFund, payload))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestHandleWalletCredit(t *testing.T) {
	ctx := context.Background()

	t.Run("applies credit", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.createWallet(t)

		task := mustTask(t, TypeWalletCredit, CreditWalletPayload{
			Address: w.Address,
			Amount:  "200.50",
			Fees:    "0.50",
		})
		require.NoError(t, env.processor.HandleWalletCredit(ctx, task))

		updated, err := env.store.Wallets().GetByID(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, "200.00", updated.Balance)
	})

	t.Run("replayed task with the same reference is acknowledged", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.createWallet(t)

		task := mustTask(t, TypeWalletCredit, CreditWalletPayload{
			Address:   w.Address,
			Amount:    "200",
			Fees:      "0",
			Reference: "credit_ref_1",
		})
		require.NoError(t, env.processor.HandleWalletCredit(ctx, task))
		require.NoError(t, env.processor.HandleWalletCredit(ctx, task))

		updated, err := env.store.Wallets().GetByID(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, "200.00", updated.Balance)

		count, err := env.store.Ledger().CountByWallet(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("unparsable amount does not retry", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.createWallet(t)

		task := mustTask(t, TypeWalletCredit, CreditWalletPayload{
			Address: w.Address,
			Amount:  "not-money",
			Fees:    "0",
		})
		err := env.processor.HandleWalletCredit(ctx, task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("lock is released after the task", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.createWallet(t)

		task := mustTask(t, TypeWalletCredit, CreditWalletPayload{
			Address: w.Address,
			Amount:  "10",
			Fees:    "0",
		})
		require.NoError(t, env.processor.HandleWalletCredit(ctx, task))

		// The key must be free again for the next job.
		assert.NoError(t, env.locker.Acquire(ctx, "credit_wallet:"+w.Address))
	})
}
