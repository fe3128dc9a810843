package invalidator

import (
	"context"

	"github.com/swimhub/reservation-service/pkg/rabbitmq"
)

// AMQP publishes invalidated cache keys for the statistics service to act
// on. Delivery is best effort; callers log and carry on when it fails.
type AMQP struct {
	pub *rabbitmq.Publisher
}

func NewAMQP(pub *rabbitmq.Publisher) *AMQP {
	return &AMQP{pub: pub}
}

func (a *AMQP) Invalidate(ctx context.Context, keys ...string) error {
	if a.pub == nil || len(keys) == 0 {
		return nil
	}
	return a.pub.Publish("cache.invalidate", map[string]any{"keys": keys})
}
