package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Emitter enqueues wallet tasks. Funding tasks use the gateway
// reference as the task id, so a webhook delivered twice enqueues once.
type Emitter struct {
	client *asynq.Client
	logger *zap.Logger
}

func NewEmitter(client *asynq.Client, logger *zap.Logger) *Emitter {
	if client == nil {
		panic("asynq client is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Emitter{client: client, logger: logger}
}

func (e *Emitter) EmitWalletCreate(ctx context.Context, payload CreateWalletPayload) error {
	task, err := newTask(TypeWalletCreate, payload)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task, asynq.TaskID(TypeWalletCreate+":"+payload.UserID))
}

func (e *Emitter) EmitWalletFund(ctx context.Context, payload FundWalletPayload) error {
	task, err := newTask(TypeWalletFund, payload)
	if err != nil {
		return err
	}
	return e.enqueue(ctx, task, asynq.TaskID(TypeWalletFund+":"+payload.Data.Reference))
}

func (e *Emitter) EmitWalletCredit(ctx context.Context, payload CreditWalletPayload) error {
	task, err := newTask(TypeWalletCredit, payload)
	if err != nil {
		return err
	}
	opts := []asynq.Option{}
	if payload.Reference != "" {
		opts = append(opts, asynq.TaskID(TypeWalletCredit+":"+payload.Reference))
	}
	return e.enqueue(ctx, task, opts...)
}

func (e *Emitter) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	opts = append(opts, asynq.Queue(WalletQueue), asynq.MaxRetry(MaxRetry))

	info, err := e.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			e.logger.Info("task already enqueued", zap.String("type", task.Type()))
			return nil
		}
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}

	e.logger.Info("task enqueued",
		zap.String("type", task.Type()),
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
	)
	return nil
}
