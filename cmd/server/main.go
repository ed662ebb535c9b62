// Package main wires the wallet service: postgres, redis, the payment
// gateway, the asynq worker pool, and the HTTP surface, all in one
// process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sabiflow/internal/config"
	"sabiflow/internal/encryption"
	"sabiflow/internal/gateway/paystack"
	"sabiflow/internal/handlers"
	"sabiflow/internal/locks"
	"sabiflow/internal/queue"
	"sabiflow/internal/repositories"
	"sabiflow/internal/services/ledger"
	"sabiflow/internal/services/notification"
	"sabiflow/internal/services/transaction"
	"sabiflow/internal/services/wallet"
)

func main() {
	config.LoadEnv()

	logger := newLogger()
	defer logger.Sync()

	db, err := repositories.InitDB(repositories.DefaultDBConfig)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("redis unreachable", zap.Error(err))
	}

	cipher, err := encryption.NewCipher(config.GetEnv("BALANCE_ENCRYPTION_KEY", ""))
	if err != nil {
		logger.Fatal("balance cipher init failed", zap.Error(err))
	}

	gateway, err := paystack.NewClient(paystack.Config{
		SecretKey:     config.GetEnv("PAYSTACK_SECRET_KEY", ""),
		BaseURL:       config.GetEnv("PAYSTACK_BASE_URL", ""),
		PreferredBank: config.GetEnv("PAYSTACK_PREFERRED_BANK", ""),
	}, logger)
	if err != nil {
		logger.Fatal("gateway init failed", zap.Error(err))
	}

	store := repositories.NewStore(db, cipher)
	walletService := wallet.NewService(
		store,
		ledger.NewRecorder(logger),
		transaction.NewService(),
		gateway,
		logger,
		nil,
	)

	locker := locks.NewRedisLocker(redisClient, config.GetDurationEnv("LOCK_TTL", locks.DefaultTTL))
	notifier := notification.NewLogNotifier(logger)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.RedisAddr(),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
	})
	defer asynqClient.Close()
	emitter := queue.NewEmitter(asynqClient, logger)

	// Worker pool.
	processor := queue.NewProcessor(walletService, locker, notifier, logger)
	mux := asynq.NewServeMux()
	processor.Register(mux)
	worker := queue.NewServer(config.RedisAddr(), config.GetEnv("REDIS_PASSWORD", ""))
	if err := worker.Start(mux); err != nil {
		logger.Fatal("worker start failed", zap.Error(err))
	}

	// HTTP surface.
	app := fiber.New(fiber.Config{
		AppName:      "sabiflow",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	handlers.SetupRoutes(app,
		handlers.NewWalletHandler(walletService, emitter, logger),
		handlers.NewWebhookHandler(gateway, emitter, logger),
		handlers.NewHealthHandler(db, redisClient),
	)

	go func() {
		addr := ":" + config.GetEnv("PORT", "8080")
		if err := app.Listen(addr); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	worker.Shutdown()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	redisClient.Close()
}

func newLogger() *zap.Logger {
	if config.IsProduction() {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}
