package mq

import (
	"context"

	"github.com/solacese/romo-robot/internal/event"
)

// UploadEventHandler is the business-logic callback injected into the consumer.
type UploadEventHandler interface {
	HandleUploadEvent(ctx context.Context, n *event.Notification) error
}

// NotificationConsumer abstracts the Kafka consumer for storage notifications.
type NotificationConsumer interface {
	Start(ctx context.Context) error
	Close() error
}
