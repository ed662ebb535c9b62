package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"sabiflow/internal/queue"
	"sabiflow/internal/services/wallet"
	"sabiflow/internal/utils"
)

// TaskEmitter hands wallet work to the queue.
type TaskEmitter interface {
	EmitWalletCreate(ctx context.Context, payload queue.CreateWalletPayload) error
	EmitWalletFund(ctx context.Context, payload queue.FundWalletPayload) error
}

type WalletHandler struct {
	walletService wallet.Service
	emitter       TaskEmitter
	logger        *zap.Logger
}

func NewWalletHandler(walletService wallet.Service, emitter TaskEmitter, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		emitter:       emitter,
		logger:        logger,
	}
}

// CreateWallet enqueues wallet provisioning for a user. The wallet is
// created asynchronously; polling GetWallet shows when it lands.
func (h *WalletHandler) CreateWallet(c *fiber.Ctx) error {
	var input struct {
		UserID string `json:"userId"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	if input.UserID == "" {
		return utils.BadRequest(c, "userId is required")
	}

	if err := h.emitter.EmitWalletCreate(c.Context(), queue.CreateWalletPayload{UserID: input.UserID}); err != nil {
		h.logger.Error("failed to enqueue wallet create", zap.Error(err))
		return utils.InternalError(c, "Failed to queue wallet creation")
	}

	return utils.Accepted(c, fiber.Map{"message": "wallet creation queued"})
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return utils.BadRequest(c, "userId is required")
	}

	w, err := h.walletService.FindByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "Wallet not found")
		}
		h.logger.Error("failed to get wallet", zap.Error(err))
		return utils.InternalError(c, "Failed to get wallet")
	}

	return utils.Success(c, fiber.Map{"wallet": w})
}

func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if userID == "" {
		return utils.BadRequest(c, "userId is required")
	}

	w, err := h.walletService.FindByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "Wallet not found")
		}
		h.logger.Error("failed to get wallet", zap.Error(err))
		return utils.InternalError(c, "Failed to get balance")
	}

	balance, err := h.walletService.GetBalance(c.Context(), w.ID)
	if err != nil {
		h.logger.Error("failed to read balance", zap.Error(err))
		return utils.InternalError(c, "Failed to get balance")
	}

	return utils.Success(c, fiber.Map{
		"walletId": w.ID,
		"address":  w.Address,
		"balance":  balance.StringFixed(2),
	})
}
