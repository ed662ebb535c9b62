package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes mounts the HTTP surface: a webhook intake, a thin wallet
// API, and health.
func SetupRoutes(app *fiber.App, walletHandler *WalletHandler, webhookHandler *WebhookHandler, healthHandler *HealthHandler) {
	app.Get("/health", healthHandler.Check)

	app.Post("/webhook/paystack", webhookHandler.HandlePaystack)

	api := app.Group("/api")
	api.Post("/wallet", walletHandler.CreateWallet)
	api.Get("/wallet/:userId", walletHandler.GetWallet)
	api.Get("/wallet/:userId/balance", walletHandler.GetBalance)
}
