package pipeline

import (
	"context"
	"crypto/tls"
	"fmt"

	"mediavault_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues pipeline stage tasks. The assets service uses it to kick
// off the pipeline after an upload completes; the worker uses it to chain
// stages; self-healing uses it to re-enqueue recovered assets.
type Client struct {
	client      *asynq.Client
	queue       string
	maxAttempts int
}

// Enqueuer is the narrow enqueue interface consumed by other modules.
type Enqueuer interface {
	EnqueueStage(ctx context.Context, stage string, assetID, organizationID uuid.UUID) error
}

// NewClient creates a pipeline enqueue client from the queue configuration.
func NewClient(cfg config.QueueConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	maxAttempts := cfg.GetPipelineMaxAttempts()
	if maxAttempts < 1 {
		maxAttempts = 5
	}

	return &Client{
		client:      asynq.NewClient(opt),
		queue:       queue,
		maxAttempts: maxAttempts,
	}, nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueStage enqueues the task for one pipeline stage of an asset.
func (c *Client) EnqueueStage(ctx context.Context, stage string, assetID, organizationID uuid.UUID) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("pipeline client not initialized")
	}

	task, err := NewStageTask(stage, StagePayload{
		AssetID:        assetID.String(),
		OrganizationID: organizationID.String(),
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.MaxRetry(c.maxAttempts))
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
