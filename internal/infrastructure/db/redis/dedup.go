package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const deliveryTTL = time.Hour

// DeliveryDedup guards against redelivered transport messages. Chat transports
// retry delivery when an acknowledgment is lost, so the same claim message can
// arrive more than once; keys expire after deliveryTTL since redeliveries only
// happen within a short window.
// Key format: delivery:<message_id>
type DeliveryDedup struct {
	client *redis.Client
}

// NewDeliveryDedup creates a DeliveryDedup wrapping the given Redis client.
func NewDeliveryDedup(client *redis.Client) *DeliveryDedup {
	return &DeliveryDedup{client: client}
}

// IsDuplicate reports whether this message id has already been processed.
func (d *DeliveryDedup) IsDuplicate(ctx context.Context, messageID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(messageID)).Result()
	if err != nil {
		return false, fmt.Errorf("delivery dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this message id has been processed.
func (d *DeliveryDedup) Mark(ctx context.Context, messageID string) error {
	return d.client.Set(ctx, d.key(messageID), "1", deliveryTTL).Err()
}

func (d *DeliveryDedup) key(messageID string) string {
	return fmt.Sprintf("delivery:%s", messageID)
}
