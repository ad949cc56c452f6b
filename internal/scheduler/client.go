package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"clinic_marketing_backend/internal/email"
	"clinic_marketing_backend/platform/config"
)

const (
	hotLeadAlertRetries = 5
	hotLeadAlertTimeout = 30 * time.Second
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueHotLeadAlert hands a hot lead alert to the worker for delivery.
func (c *Client) EnqueueHotLeadAlert(ctx context.Context, alert email.HotLeadAlert) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewHotLeadAlertTask(hotLeadAlertPayload(alert))
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(hotLeadAlertRetries),
		asynq.Timeout(hotLeadAlertTimeout),
	)
	return err
}

// EnqueueRollup asks the worker to rebuild one day's analytics row.
func (c *Client) EnqueueRollup(ctx context.Context, date string) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewRollupTask(RollupPayload{Date: date})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

// EnqueueReport asks the worker to build and mail a report now.
func (c *Client) EnqueueReport(ctx context.Context, kind string) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewReportTask(ReportPayload{Kind: kind})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return "default"
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
