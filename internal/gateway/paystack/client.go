// Package paystack is the payment gateway client. It provisions the
// dedicated virtual account behind every wallet and verifies inbound
// webhook signatures.
package paystack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"sabiflow/internal/services/wallet"
)

const defaultBaseURL = "https://api.paystack.co"

// ErrGatewayRequest wraps any non-2xx or status=false gateway response.
var ErrGatewayRequest = errors.New("gateway request failed")

type Config struct {
	SecretKey     string
	BaseURL       string // defaults to the live API
	PreferredBank string // slug of the bank that issues virtual accounts
	Timeout       time.Duration
}

// Client talks to the Paystack REST API. It implements
// wallet.AccountProvider.
type Client struct {
	http          *resty.Client
	secretKey     string
	preferredBank string
	logger        *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("paystack secret key is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	preferredBank := cfg.PreferredBank
	if preferredBank == "" {
		preferredBank = "wema-bank"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(cfg.SecretKey).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &Client{
		http:          http,
		secretKey:     cfg.SecretKey,
		preferredBank: preferredBank,
		logger:        logger,
	}, nil
}

type apiEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

type customerResponse struct {
	apiEnvelope
	Data Customer `json:"data"`
}

// Customer is the gateway-side identity of a user.
type Customer struct {
	ID           int64  `json:"id"`
	CustomerCode string `json:"customer_code"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
}

type dedicatedAccountResponse struct {
	apiEnvelope
	Data DedicatedAccount `json:"data"`
}

// DedicatedAccount is a bank account number permanently routed to one
// customer.
type DedicatedAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	Bank          struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
		ID   int64  `json:"id"`
	} `json:"bank"`
}

// CreateCustomer registers the user with the gateway. Paystack upserts
// by email, so re-invocation returns the same customer.
func (c *Client) CreateCustomer(ctx context.Context, holder wallet.AccountHolder) (*Customer, error) {
	var result customerResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"email":      holder.Email,
			"first_name": holder.FirstName,
			"last_name":  holder.LastName,
			"phone":      holder.Phone,
		}).
		SetResult(&result).
		Post("/customer")
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	if resp.IsError() || !result.Status {
		return nil, fmt.Errorf("%w: create customer: %s (%d)", ErrGatewayRequest, result.Message, resp.StatusCode())
	}
	return &result.Data, nil
}

// CreateDedicatedAccount requests a virtual account number for the
// customer at the preferred bank.
func (c *Client) CreateDedicatedAccount(ctx context.Context, customerCode string) (*DedicatedAccount, error) {
	var result dedicatedAccountResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"customer":       customerCode,
			"preferred_bank": c.preferredBank,
		}).
		SetResult(&result).
		Post("/dedicated_account")
	if err != nil {
		return nil, fmt.Errorf("create dedicated account: %w", err)
	}
	if resp.IsError() || !result.Status {
		return nil, fmt.Errorf("%w: create dedicated account: %s (%d)", ErrGatewayRequest, result.Message, resp.StatusCode())
	}
	return &result.Data, nil
}

// GenerateWalletAddress satisfies wallet.AccountProvider: customer
// first, then the dedicated account that becomes the wallet address.
func (c *Client) GenerateWalletAddress(ctx context.Context, holder wallet.AccountHolder) (*wallet.VirtualAccount, error) {
	customer, err := c.CreateCustomer(ctx, holder)
	if err != nil {
		return nil, err
	}

	account, err := c.CreateDedicatedAccount(ctx, customer.CustomerCode)
	if err != nil {
		return nil, err
	}

	c.logger.Info("virtual account provisioned",
		zap.String("customer_code", customer.CustomerCode),
		zap.String("account_number", account.AccountNumber),
		zap.String("bank", account.Bank.Name),
	)

	return &wallet.VirtualAccount{
		AccountNumber: account.AccountNumber,
		AccountName:   account.AccountName,
		BankName:      account.Bank.Name,
		BankCode:      account.Bank.Slug,
	}, nil
}
