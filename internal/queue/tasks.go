// Package queue moves wallet work through asynq. Every mutation enters
// the system as a task so that retries, backoff, and per-key locking
// happen in one place instead of in each caller.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"sabiflow/internal/services/wallet"
)

// Task type names. The prefix doubles as the queue routing namespace.
const (
	TypeWalletCreate = "wallet:create"
	TypeWalletFund   = "wallet:fund"
	TypeWalletCredit = "wallet:credit"
)

// WalletQueue is the asynq queue all wallet tasks run on.
const WalletQueue = "wallet"

// Concurrency is the worker pool size for the wallet queue.
const Concurrency = 5

// MaxRetry bounds redeliveries for transient failures; terminal
// failures skip retry entirely.
const MaxRetry = 5

// CreateWalletPayload provisions a wallet for a registered user.
type CreateWalletPayload struct {
	UserID string `json:"userId"`
}

// FundWalletPayload carries a verified gateway funding event.
type FundWalletPayload struct {
	Event string             `json:"event"`
	Data  wallet.WebhookData `json:"data"`
}

// CreditWalletPayload applies a direct credit to a wallet address.
type CreditWalletPayload struct {
	Address   string `json:"address"`
	Amount    string `json:"amount"`
	Fees      string `json:"fees"`
	Reference string `json:"reference,omitempty"`
	Desc      string `json:"desc,omitempty"`
}

func newTask(taskType string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, data), nil
}
