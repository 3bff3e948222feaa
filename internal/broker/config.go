package broker

import (
	"errors"
	"fmt"
)

// Config selects and configures the publish driver.
type Config struct {
	Driver string      `mapstructure:"driver"` // "rest" (default), "kafka", "redis"
	REST   RESTConfig  `mapstructure:"rest"`
	Kafka  KafkaConfig `mapstructure:"kafka"`
	Redis  RedisConfig `mapstructure:"redis"`
	SEMP   SEMPConfig  `mapstructure:"semp"`
}

// Validate checks that the selected driver has what it needs.
func (c Config) Validate() error {
	switch c.Driver {
	case "", DriverREST:
		var errs []error
		if c.REST.URI == "" {
			errs = append(errs, errors.New("broker.rest.uri is required"))
		}
		if c.REST.Port <= 0 {
			errs = append(errs, errors.New("broker.rest.port must be positive"))
		}
		if c.REST.Username == "" {
			errs = append(errs, errors.New("broker.rest.username is required"))
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}
	case DriverKafka:
		if c.Kafka.Brokers == "" || c.Kafka.Topic == "" {
			return errors.New("broker.kafka.brokers and broker.kafka.topic are required")
		}
	case DriverRedis:
		if c.Redis.Address == "" {
			return errors.New("broker.redis.address is required")
		}
	default:
		return fmt.Errorf("unknown broker driver %q", c.Driver)
	}

	if c.SEMP.Enabled && (c.SEMP.Endpoint == "" || c.SEMP.MsgVPN == "" || c.SEMP.Queue == "" || c.SEMP.Subscription == "") {
		return errors.New("broker.semp requires endpoint, msg_vpn, queue and subscription when enabled")
	}
	return nil
}

// NewPublisher creates the EventPublisher for cfg.Driver.
func NewPublisher(cfg Config) (EventPublisher, error) {
	switch cfg.Driver {
	case DriverKafka:
		p, err := NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		return p, nil
	case DriverRedis:
		p, err := NewRedisPublisher(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "", DriverREST:
		return NewRESTPublisher(cfg.REST, nil), nil
	default:
		return nil, fmt.Errorf("unknown broker driver %q", cfg.Driver)
	}
}
