package notify

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"github.com/robalyx/warden/pkg/utils"
)

// DefaultChannel is the pub/sub channel staff tooling subscribes to.
const DefaultChannel = "warden:alerts"

// RedisNotifier publishes alerts as JSON on a Redis pub/sub channel.
type RedisNotifier struct {
	client  rueidis.Client
	channel string
	retry   utils.RetryOptions
}

// NewRedisNotifier creates a RedisNotifier.
func NewRedisNotifier(client rueidis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel, retry: utils.GetDeliveryRetryOptions()}
}

// Notify publishes the alert, retrying transient publish failures.
func (n *RedisNotifier) Notify(ctx context.Context, alert Alert) error {
	payload, err := sonic.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	// Built commands are recycled by Do, so each attempt builds its own
	err = utils.WithRetry(ctx, func() error {
		cmd := n.client.B().Publish().Channel(n.channel).Message(string(payload)).Build()
		return n.client.Do(ctx, cmd).Error()
	}, n.retry)
	if err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}

	return nil
}
