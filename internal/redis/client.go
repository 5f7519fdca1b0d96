package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// SessionEventsChannel is the pub/sub channel session lifecycle events are
// fanned out on, namespaced per service instance name.
func SessionEventsChannel(service string) string {
	return fmt.Sprintf("session-events:%s", service)
}

// RateLimitKey namespaces rate limiter buckets per service and client.
func RateLimitKey(service, clientKey string) string {
	return fmt.Sprintf("ratelimit:%s:%s", service, clientKey)
}
