package broker

import (
	"context"
	"encoding/json"
)

// EventPublisher forwards a detection payload to the broker under a topic.
type EventPublisher interface {
	// Publish sends payload to topic with a single blocking attempt.
	// Failures are returned as *PublishError.
	Publish(ctx context.Context, topic string, payload json.RawMessage) error
	Close() error
}
