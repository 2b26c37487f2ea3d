package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client. No connection is made until the
// first enqueue.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueFollowUpsDueScan enqueues a due-scan over the given window.
func (c *Client) EnqueueFollowUpsDueScan(ctx context.Context, lookahead time.Duration) (*asynq.TaskInfo, error) {
	task, err := NewFollowUpsDueScanTask(lookahead)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
}

// Enqueue submits a known task type by name.
func (c *Client) Enqueue(ctx context.Context, taskType string, lookahead time.Duration) (*asynq.TaskInfo, error) {
	switch taskType {
	case TaskFollowUpsDueScan:
		return c.EnqueueFollowUpsDueScan(ctx, lookahead)
	default:
		return nil, fmt.Errorf("jobs: unknown task type %q", taskType)
	}
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
