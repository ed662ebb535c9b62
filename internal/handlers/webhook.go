package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"sabiflow/internal/queue"
	"sabiflow/internal/services/wallet"
	"sabiflow/internal/utils"
)

// SignatureVerifier checks a raw webhook body against its signature
// header.
type SignatureVerifier interface {
	VerifySignature(body []byte, signature string) bool
}

type WebhookHandler struct {
	verifier SignatureVerifier
	emitter  TaskEmitter
	logger   *zap.Logger
}

func NewWebhookHandler(verifier SignatureVerifier, emitter TaskEmitter, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		emitter:  emitter,
		logger:   logger,
	}
}

// HandlePaystack receives gateway events. The signature is checked
// against the raw body before anything is parsed; valid events are
// acknowledged immediately and processed by the queue.
func (h *WebhookHandler) HandlePaystack(c *fiber.Ctx) error {
	body := c.Body()

	if !h.verifier.VerifySignature(body, c.Get("x-paystack-signature")) {
		h.logger.Warn("webhook signature rejected", zap.String("ip", c.IP()))
		return utils.Unauthorized(c, "invalid signature")
	}

	var payload wallet.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return utils.BadRequest(c, "Invalid payload")
	}

	if payload.Event != wallet.WebhookEventChargeSuccess {
		h.logger.Info("webhook event ignored", zap.String("event", payload.Event))
		return utils.Success(c, fiber.Map{"message": "ignored"})
	}

	if err := h.emitter.EmitWalletFund(c.Context(), queue.FundWalletPayload{
		Event: payload.Event,
		Data:  payload.Data,
	}); err != nil {
		h.logger.Error("failed to enqueue funding", zap.Error(err))
		return utils.InternalError(c, "Failed to queue event")
	}

	return utils.Success(c, fiber.Map{"message": "queued"})
}
