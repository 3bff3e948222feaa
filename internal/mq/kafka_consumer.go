package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/solacese/romo-robot/internal/event"
	pkglog "github.com/solacese/romo-robot/pkg/log"
)

// ConsumerConfig configures the storage notification consumer.
type ConsumerConfig struct {
	Brokers string
	Topic   string
	GroupID string
	Filter  Filter
}

// KafkaConsumer reads bucket notifications from Kafka and hands every
// accepted upload to the handler.
type KafkaConsumer struct {
	consumer *kafka.Consumer
	topic    string
	handler  UploadEventHandler
	filter   Filter
	doneCh   chan struct{}
	started  bool
}

// NewKafkaConsumer creates a consumer subscribed to nothing until Start.
func NewKafkaConsumer(cfg ConsumerConfig, handler UploadEventHandler) (*KafkaConsumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  "latest",
		"enable.auto.commit": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &KafkaConsumer{
		consumer: c,
		topic:    cfg.Topic,
		handler:  handler,
		filter:   cfg.Filter,
		doneCh:   make(chan struct{}),
	}, nil
}

// Start subscribes and runs the consume loop in the background.
func (kc *KafkaConsumer) Start(ctx context.Context) error {
	if err := kc.consumer.Subscribe(kc.topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", kc.topic, err)
	}
	kc.started = true

	l := pkglog.L()
	l.Info().
		Str(pkglog.FieldTopic, kc.topic).
		Str("bucket_filter", kc.filter.Bucket).
		Str("prefix_filter", kc.filter.KeyPrefix).
		Msg("notification consumer started")

	go kc.consumeLoop(ctx)
	return nil
}

func (kc *KafkaConsumer) consumeLoop(ctx context.Context) {
	l := pkglog.L()
	defer close(kc.doneCh)

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("notification consumer shutting down")
			return
		default:
			msg, err := kc.consumer.ReadMessage(100 * time.Millisecond)
			if err != nil {
				var kerr kafka.Error
				if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				l.Error().Err(err).Msg("kafka consumer error")
				continue
			}
			// In-flight work finishes even after the shutdown signal.
			dispatch(context.WithoutCancel(ctx), msg.Value, kc.filter, kc.handler)
		}
	}
}

// dispatch decodes one message and forwards it when the filter allows.
// It reports whether the handler was invoked.
func dispatch(ctx context.Context, value []byte, filter Filter, handler UploadEventHandler) bool {
	l := pkglog.Ctx(ctx)

	n, err := event.Decode(value)
	if err != nil {
		l.Error().Err(err).Msg("dropping undecodable notification")
		return false
	}
	if !filter.Allows(n) {
		l.Debug().
			Str(pkglog.FieldBucket, n.Bucket).
			Str(pkglog.FieldKey, n.Key).
			Str(pkglog.FieldEventName, n.EventName).
			Msg("notification filtered out")
		return false
	}

	l.Info().
		Str(pkglog.FieldBucket, n.Bucket).
		Str(pkglog.FieldKey, n.Key).
		Int64("size", n.Size).
		Msg("received upload notification")

	// The handler logs its own failures.
	if err := handler.HandleUploadEvent(ctx, n); err != nil {
		l.Debug().Err(err).Str(pkglog.FieldKey, n.Key).Msg("upload notification not processed")
	}
	return true
}

// Close waits for the consume loop to drain, then closes the Kafka client.
// The context passed to Start must be cancelled first.
func (kc *KafkaConsumer) Close() error {
	if kc.started {
		<-kc.doneCh
	}
	if err := kc.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	return nil
}
