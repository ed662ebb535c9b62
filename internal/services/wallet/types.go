package wallet

import (
	"sabiflow/internal/models"
)

// Webhook event names the wallet flow cares about. Anything else in the
// gateway payload is opaque passthrough.
const (
	WebhookEventChargeSuccess    = "charge.success"
	WebhookEventTransferSuccess  = "transfer.success"
	WebhookEventTransferFailed   = "transfer.failed"
	WebhookEventTransferReversed = "transfer.reversed"
)

// WebhookPayload is the payment gateway's event envelope.
type WebhookPayload struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

// WebhookData carries the fields the core extracts: wallet address (via
// authorization), gross amount, fees, and the gateway reference.
type WebhookData struct {
	ID            int64                `json:"id"`
	Reference     string               `json:"reference"`
	Amount        float64              `json:"amount"`
	Fees          float64              `json:"fees"`
	Currency      string               `json:"currency"`
	Channel       string               `json:"channel"`
	PaidAt        string               `json:"paid_at"`
	Authorization WebhookAuthorization `json:"authorization"`
	Customer      WebhookCustomer      `json:"customer"`
}

type WebhookAuthorization struct {
	SenderName                string `json:"sender_name"`
	SenderBank                string `json:"sender_bank"`
	SenderBankAccountNumber   string `json:"sender_bank_account_number"`
	Narration                 string `json:"narration"`
	ReceiverBankAccountNumber string `json:"receiver_bank_account_number"`
	ReceiverBank              string `json:"receiver_bank"`
}

type WebhookCustomer struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	CustomerCode string `json:"customer_code"`
	Phone        string `json:"phone"`
}

// CreationResult is what wallet provisioning yields: the wallet and
// its owner, whether the wallet was just created or already existed.
type CreationResult struct {
	Wallet *models.Wallet
	User   *models.User
}

// FundingResult is what a processed funding event yields: the mutated
// wallet, its owner, and the finalized transaction.
type FundingResult struct {
	Wallet      *models.Wallet
	User        *models.User
	Transaction *models.WalletTransaction
}

// AccountHolder identifies the user for virtual account provisioning.
type AccountHolder struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// VirtualAccount is the routing identity returned by the provisioning
// collaborator.
type VirtualAccount struct {
	AccountNumber string
	AccountName   string
	BankName      string
	BankCode      string
}
