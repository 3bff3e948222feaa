package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	pkglog "github.com/solacese/romo-robot/pkg/log"
)

// ErrUnprocessable marks a payload that will never upload, however often it
// is retried. Such messages are committed and dropped.
var ErrUnprocessable = errors.New("unprocessable image payload")

// ImageHandler stores one captured image.
type ImageHandler interface {
	HandleImage(ctx context.Context, payload []byte) error
}

// ImageConsumerConfig configures the image ingest consumer.
type ImageConsumerConfig struct {
	Brokers      string
	Topic        string
	GroupID      string
	RetryBackoff time.Duration
}

type ingestAction int

const (
	actionCommit ingestAction = iota
	actionRetry
)

// ImageConsumer reads raw image captures from Kafka and hands each one to
// the handler. An offset is committed only after the handler succeeded, so a
// failed upload is read again.
type ImageConsumer struct {
	consumer *kafka.Consumer
	topic    string
	handler  ImageHandler
	backoff  time.Duration
	doneCh   chan struct{}
	started  bool
}

// NewImageConsumer creates a consumer subscribed to nothing until Start.
func NewImageConsumer(cfg ImageConsumerConfig, handler ImageHandler) (*ImageConsumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Brokers,
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	return &ImageConsumer{
		consumer: c,
		topic:    cfg.Topic,
		handler:  handler,
		backoff:  backoff,
		doneCh:   make(chan struct{}),
	}, nil
}

// Start subscribes and runs the consume loop in the background.
func (ic *ImageConsumer) Start(ctx context.Context) error {
	if err := ic.consumer.Subscribe(ic.topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", ic.topic, err)
	}
	ic.started = true

	l := pkglog.L()
	l.Info().Str(pkglog.FieldTopic, ic.topic).Msg("image consumer started")

	go ic.consumeLoop(ctx)
	return nil
}

func (ic *ImageConsumer) consumeLoop(ctx context.Context) {
	l := pkglog.L()
	defer close(ic.doneCh)

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("image consumer shutting down")
			return
		default:
			msg, err := ic.consumer.ReadMessage(100 * time.Millisecond)
			if err != nil {
				var kerr kafka.Error
				if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				l.Error().Err(err).Msg("kafka consumer error")
				continue
			}

			// In-flight uploads finish even after the shutdown signal.
			if ingest(context.WithoutCancel(ctx), msg.Value, ic.handler) == actionCommit {
				if _, err := ic.consumer.CommitMessage(msg); err != nil {
					l.Error().Err(err).Msg("failed to commit image offset")
				}
				continue
			}

			// Rewind so the same message is read again after the backoff.
			if err := ic.consumer.Seek(msg.TopicPartition, 0); err != nil {
				l.Error().Err(err).Msg("failed to rewind image offset")
			}
			select {
			case <-ctx.Done():
			case <-time.After(ic.backoff):
			}
		}
	}
}

// ingest hands one payload to the handler and decides whether its offset
// may be committed.
func ingest(ctx context.Context, value []byte, handler ImageHandler) ingestAction {
	l := pkglog.Ctx(ctx)

	if len(value) == 0 {
		l.Warn().Msg("dropping empty image message")
		return actionCommit
	}

	l.Info().Int("size", len(value)).Msg("received image")

	err := handler.HandleImage(ctx, value)
	switch {
	case err == nil:
		return actionCommit
	case errors.Is(err, ErrUnprocessable):
		l.Warn().Err(err).Msg("dropping unprocessable image")
		return actionCommit
	default:
		l.Error().Err(err).Msg("image upload failed, will retry")
		return actionRetry
	}
}

// Close waits for the consume loop to drain, then closes the Kafka client.
// The context passed to Start must be cancelled first.
func (ic *ImageConsumer) Close() error {
	if ic.started {
		<-ic.doneCh
	}
	if err := ic.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	return nil
}
