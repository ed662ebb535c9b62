package transaction_test

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sabiflow/internal/models"
	"sabiflow/internal/repositories/memory"
	"sabiflow/internal/services/transaction"
)

func TestCreateTransactions(t *testing.T) {
	ctx := context.Background()
	svc := transaction.NewService()

	tests := []struct {
		name   string
		create func(context.Context, *memory.Store, transaction.Params) (*models.WalletTransaction, error)
		txType models.TransactionType
		flow   models.TransactionFlow
	}{
		{
			name: "deposit",
			create: func(ctx context.Context, s *memory.Store, p transaction.Params) (*models.WalletTransaction, error) {
				return svc.CreateDeposit(ctx, s.Transactions(), p)
			},
			txType: models.TransactionTypeDeposit,
			flow:   models.FlowInflow,
		},
		{
			name: "withdrawal",
			create: func(ctx context.Context, s *memory.Store, p transaction.Params) (*models.WalletTransaction, error) {
				return svc.CreateWithdrawal(ctx, s.Transactions(), p)
			},
			txType: models.TransactionTypeWithdrawal,
			flow:   models.FlowOutflow,
		},
		{
			name: "transfer",
			create: func(ctx context.Context, s *memory.Store, p transaction.Params) (*models.WalletTransaction, error) {
				return svc.CreateTransfer(ctx, s.Transactions(), p)
			},
			txType: models.TransactionTypeTransfer,
			flow:   models.FlowOutflow,
		},
		{
			name: "reversal",
			create: func(ctx context.Context, s *memory.Store, p transaction.Params) (*models.WalletTransaction, error) {
				return svc.CreateReversal(ctx, s.Transactions(), p)
			},
			txType: models.TransactionTypeReversal,
			flow:   models.FlowInflow,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.NewStore()
			txn, err := tc.create(ctx, store, transaction.Params{
				WalletID: "wallet-1",
				Amount:   decimal.RequireFromString("1000"),
				Fees:     decimal.RequireFromString("25"),
			})
			require.NoError(t, err)

			assert.Equal(t, tc.txType, txn.Type)
			assert.Equal(t, tc.flow, txn.Flow)
			assert.Equal(t, models.TransactionStatusPending, txn.Status)
			assert.True(t, txn.NetAmount.Equal(decimal.RequireFromString("975")))
			assert.Nil(t, txn.ProcessedAt)
			assert.False(t, txn.TransactionAt.IsZero())
		})
	}
}

func TestGeneratedReference(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := transaction.NewService()

	txn, err := svc.CreateDeposit(ctx, store.Transactions(), transaction.Params{
		WalletID: "wallet-1",
		Amount:   decimal.RequireFromString("10"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(txn.Reference, "TXN"))
	assert.Len(t, txn.Reference, len("TXN")+16)
	for _, c := range txn.Reference[len("TXN"):] {
		assert.True(t, c >= '0' && c <= '9', "reference suffix must be digits")
	}
}

func TestCallerReferenceIsKept(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := transaction.NewService()

	txn, err := svc.CreateDeposit(ctx, store.Transactions(), transaction.Params{
		WalletID:  "wallet-1",
		Amount:    decimal.RequireFromString("10"),
		Reference: "gw_ref_42",
	})
	require.NoError(t, err)
	assert.Equal(t, "gw_ref_42", txn.Reference)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := transaction.NewService()

	txn, err := svc.CreateDeposit(ctx, store.Transactions(), transaction.Params{
		WalletID: "wallet-1",
		Amount:   decimal.RequireFromString("10"),
	})
	require.NoError(t, err)

	t.Run("success stamps processedAt", func(t *testing.T) {
		require.NoError(t, svc.UpdateStatus(ctx, store.Transactions(), txn.ID, models.TransactionStatusSuccess))
		got, err := store.Transactions().GetByID(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusSuccess, got.Status)
		require.NotNil(t, got.ProcessedAt)
	})

	t.Run("failed leaves processedAt unset", func(t *testing.T) {
		failed, err := svc.CreateDeposit(ctx, store.Transactions(), transaction.Params{
			WalletID: "wallet-1",
			Amount:   decimal.RequireFromString("20"),
		})
		require.NoError(t, err)

		require.NoError(t, svc.UpdateStatus(ctx, store.Transactions(), failed.ID, models.TransactionStatusFailed))
		got, err := store.Transactions().GetByID(ctx, failed.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionStatusFailed, got.Status)
		assert.Nil(t, got.ProcessedAt)
	})

	t.Run("pending is not a terminal status", func(t *testing.T) {
		err := svc.UpdateStatus(ctx, store.Transactions(), txn.ID, models.TransactionStatusPending)
		assert.ErrorIs(t, err, transaction.ErrInvalidStatus)
	})
}

func TestAmountsAreNormalized(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := transaction.NewService()

	txn, err := svc.CreateDeposit(ctx, store.Transactions(), transaction.Params{
		WalletID: "wallet-1",
		Amount:   decimal.RequireFromString("10.005"),
		Fees:     decimal.RequireFromString("0.004"),
	})
	require.NoError(t, err)

	assert.Equal(t, "10.01", txn.Amount.StringFixed(2))
	assert.Equal(t, "0.00", txn.Fees.StringFixed(2))
	assert.Equal(t, "10.01", txn.NetAmount.StringFixed(2))
}
