package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sabiflow/internal/gateway/paystack"
	"sabiflow/internal/models"
	"sabiflow/internal/queue"
	"sabiflow/internal/repositories/memory"
	"sabiflow/internal/services/ledger"
	"sabiflow/internal/services/transaction"
	"sabiflow/internal/services/wallet"
)

const testSecret = "sk_test_secret"

type recordingEmitter struct {
	created []queue.CreateWalletPayload
	funded  []queue.FundWalletPayload
}

func (e *recordingEmitter) EmitWalletCreate(ctx context.Context, payload queue.CreateWalletPayload) error {
	e.created = append(e.created, payload)
	return nil
}

func (e *recordingEmitter) EmitWalletFund(ctx context.Context, payload queue.FundWalletPayload) error {
	e.funded = append(e.funded, payload)
	return nil
}

type staticProvider struct{ n int }

func (p *staticProvider) GenerateWalletAddress(ctx context.Context, holder wallet.AccountHolder) (*wallet.VirtualAccount, error) {
	p.n++
	return &wallet.VirtualAccount{
		AccountNumber: fmt.Sprintf("77665544%04d", p.n),
		AccountName:   holder.FirstName + " " + holder.LastName,
		BankName:      "Test Bank",
		BankCode:      "058",
	}, nil
}

type verifierFunc func(body []byte, signature string) bool

func (f verifierFunc) VerifySignature(body []byte, signature string) bool { return f(body, signature) }

func newTestApp(t *testing.T) (*fiber.App, *memory.Store, *recordingEmitter, wallet.Service) {
	t.Helper()
	store := memory.NewStore()
	svc := wallet.NewService(
		store,
		ledger.NewRecorder(zap.NewNop()),
		transaction.NewService(),
		&staticProvider{},
		zap.NewNop(),
		nil,
	)
	emitter := &recordingEmitter{}

	app := fiber.New()
	walletHandler := NewWalletHandler(svc, emitter, zap.NewNop())
	webhookHandler := NewWebhookHandler(
		verifierFunc(func(body []byte, signature string) bool {
			return paystack.VerifySignature(testSecret, body, signature)
		}),
		emitter,
		zap.NewNop(),
	)

	app.Post("/webhook/paystack", webhookHandler.HandlePaystack)
	api := app.Group("/api")
	api.Post("/wallet", walletHandler.CreateWallet)
	api.Get("/wallet/:userId", walletHandler.GetWallet)
	api.Get("/wallet/:userId/balance", walletHandler.GetBalance)

	return app, store, emitter, svc
}

func sign(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestWebhookSignatureGuard(t *testing.T) {
	app, _, emitter, _ := newTestApp(t)

	body := []byte(`{"event":"charge.success","data":{"reference":"gw_ref_1","amount":5000}}`)

	t.Run("missing signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook/paystack", bytes.NewReader(body))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Empty(t, emitter.funded)
	})

	t.Run("tampered body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook/paystack", bytes.NewReader([]byte(`{"event":"x"}`)))
		req.Header.Set("x-paystack-signature", sign(body))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid signature is queued", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook/paystack", bytes.NewReader(body))
		req.Header.Set("x-paystack-signature", sign(body))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, emitter.funded, 1)
		assert.Equal(t, "gw_ref_1", emitter.funded[0].Data.Reference)
	})

	t.Run("irrelevant event is acknowledged but not queued", func(t *testing.T) {
		ignored := []byte(`{"event":"transfer.success","data":{"reference":"gw_ref_2"}}`)
		req := httptest.NewRequest(http.MethodPost, "/webhook/paystack", bytes.NewReader(ignored))
		req.Header.Set("x-paystack-signature", sign(ignored))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, emitter.funded, 1, "only the earlier charge.success should be queued")
	})
}

func TestCreateWalletEndpoint(t *testing.T) {
	app, _, emitter, _ := newTestApp(t)

	t.Run("queues creation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/wallet", bytes.NewReader([]byte(`{"userId":"user-1"}`)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		require.Len(t, emitter.created, 1)
		assert.Equal(t, "user-1", emitter.created[0].UserID)
	})

	t.Run("rejects missing userId", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/wallet", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestWalletReadEndpoints(t *testing.T) {
	app, store, _, svc := newTestApp(t)
	ctx := context.Background()

	user := &models.User{Email: "ada@example.com", FirstName: "Ada", LastName: "Obi"}
	require.NoError(t, store.Users().Create(ctx, user))
	created, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)
	w := created.Wallet
	_, err = svc.Credit(ctx, w.Address, transaction.Params{
		Amount: decimal.RequireFromString("150"),
		Fees:   decimal.RequireFromString("1.50"),
	})
	require.NoError(t, err)

	t.Run("get wallet", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/wallet/"+user.ID, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("get balance", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/wallet/"+user.ID+"/balance", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "148.50", body["balance"])
	})

	t.Run("unknown user is 404", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/wallet/nobody", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
