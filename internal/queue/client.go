package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/promptrelay/internal/config"
	"github.com/nikhilbhutani/promptrelay/internal/inference"
)

// Enqueuer is the subset of *asynq.Client the queue client needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type Client struct {
	client Enqueuer
}

func NewClient(cfg config.RedisConfig) *Client {
	return NewClientWith(asynq.NewClient(RedisOpt(cfg)))
}

func NewClientWith(e Enqueuer) *Client {
	return &Client{client: e}
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// RecordAttempts hands a resolution trace to the worker. The task id is the
// resolution id so a retried enqueue cannot duplicate it.
func (c *Client) RecordAttempts(ctx context.Context, promptID int64, res inference.Resolution) error {
	if len(res.Attempts) == 0 {
		return nil
	}
	payload := NewAttemptsPayload(promptID, res)
	return c.enqueue(ctx, TypeAttemptsRecord, payload,
		asynq.TaskID(payload.ResolutionID),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
		asynq.Queue("low"),
	)
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
