// Package notification delivers user-facing notices for wallet events.
// Delivery is best effort; a failed notice never fails the wallet
// operation that produced it.
package notification

import (
	"context"

	"go.uber.org/zap"

	"sabiflow/internal/models"
	"sabiflow/internal/services/wallet"
)

// Notifier is the outbound notification port.
type Notifier interface {
	WalletCreated(ctx context.Context, user *models.User, w *models.Wallet) error
	WalletFunded(ctx context.Context, result *wallet.FundingResult) error
}

// LogNotifier writes notices to the application log. It stands in for a
// mail or push channel in environments that have none configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		panic("logger is required")
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) WalletCreated(ctx context.Context, user *models.User, w *models.Wallet) error {
	n.logger.Info("notify: wallet created",
		zap.String("email", user.Email),
		zap.String("wallet_address", w.Address),
	)
	return nil
}

func (n *LogNotifier) WalletFunded(ctx context.Context, result *wallet.FundingResult) error {
	n.logger.Info("notify: wallet funded",
		zap.String("email", result.User.Email),
		zap.String("reference", result.Transaction.Reference),
		zap.String("net_amount", result.Transaction.NetAmount.String()),
	)
	return nil
}
