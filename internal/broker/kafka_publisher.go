package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	pkglog "github.com/solacese/romo-robot/pkg/log"
)

const (
	DriverKafka = "kafka"

	headerTopic = "topic"
)

// KafkaConfig holds settings for the Kafka publish driver.
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// KafkaPublisher implements EventPublisher using confluent-kafka-go. Broker
// topics are hierarchical, so every event goes to one Kafka topic with the
// broker topic as message key and header.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	doneCh   chan struct{}
}

// NewKafkaPublisher creates a new Kafka producer for detection events.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if err := ensureTopic(cfg.Brokers, cfg.Topic, 1); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Str(pkglog.FieldTopic, cfg.Topic).Msg("failed to ensure topic, may already exist")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kp := &KafkaPublisher{
		producer: p,
		topic:    cfg.Topic,
		doneCh:   make(chan struct{}),
	}

	go kp.eventHandler()

	return kp, nil
}

func ensureTopic(brokers, topic string, partitions int) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{
		{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		},
	})
	if err != nil {
		return err
	}

	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %v", result.Topic, result.Error)
		}
	}

	return nil
}

// eventHandler logs client-level errors. Delivery reports go to the
// per-message channel in Publish.
func (kp *KafkaPublisher) eventHandler() {
	l := pkglog.L()
	for e := range kp.producer.Events() {
		if ev, ok := e.(kafka.Error); ok {
			l.Error().Err(ev).Msg("kafka producer error")
		}
	}
	close(kp.doneCh)
}

// buildMessage wraps payload for the configured Kafka topic.
func buildMessage(kafkaTopic *string, topic string, payload json.RawMessage) *kafka.Message {
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     kafkaTopic,
			Partition: kafka.PartitionAny,
		},
		Key:     []byte(topic),
		Value:   payload,
		Headers: []kafka.Header{{Key: headerTopic, Value: []byte(topic)}},
	}
}

// Publish produces payload and blocks until the delivery report arrives or
// ctx is done.
func (kp *KafkaPublisher) Publish(ctx context.Context, topic string, payload json.RawMessage) error {
	deliveryCh := make(chan kafka.Event, 1)

	if err := kp.producer.Produce(buildMessage(&kp.topic, topic, payload), deliveryCh); err != nil {
		return &PublishError{Driver: DriverKafka, Topic: topic, Err: fmt.Errorf("failed to produce message: %w", err)}
	}

	select {
	case e := <-deliveryCh:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return &PublishError{Driver: DriverKafka, Topic: topic, Err: fmt.Errorf("unexpected delivery event %v", e)}
		}
		if msg.TopicPartition.Error != nil {
			return &PublishError{Driver: DriverKafka, Topic: topic, Err: msg.TopicPartition.Error}
		}
		return nil
	case <-ctx.Done():
		return &PublishError{Driver: DriverKafka, Topic: topic, Err: ctx.Err()}
	}
}

// Close flushes pending messages and releases producer resources.
func (kp *KafkaPublisher) Close() error {
	kp.producer.Flush(5000)
	kp.producer.Close()
	<-kp.doneCh
	return nil
}
