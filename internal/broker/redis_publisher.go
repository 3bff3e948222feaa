package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const DriverRedis = "redis"

// RedisConfig holds Redis-specific configuration.
type RedisConfig struct {
	Address       string        `mapstructure:"address"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	PoolSize      int           `mapstructure:"pool_size"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	ChannelPrefix string        `mapstructure:"channel_prefix"`
}

// redisClient is the part of *redis.Client the publisher needs.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// RedisPublisher implements EventPublisher with Redis PUBLISH. The channel is
// {channel_prefix}/{topic}.
type RedisPublisher struct {
	client redisClient
	prefix string
}

// NewRedisPublisher connects to Redis and verifies the connection.
func NewRedisPublisher(cfg RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisPublisher(client, cfg.ChannelPrefix), nil
}

func newRedisPublisher(client redisClient, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: strings.Trim(prefix, "/")}
}

// Channel returns the Redis channel for a broker topic.
func (r *RedisPublisher) Channel(topic string) string {
	if r.prefix == "" {
		return topic
	}
	return r.prefix + "/" + topic
}

// Publish publishes payload on the topic's channel.
func (r *RedisPublisher) Publish(ctx context.Context, topic string, payload json.RawMessage) error {
	if err := r.client.Publish(ctx, r.Channel(topic), []byte(payload)).Err(); err != nil {
		return &PublishError{Driver: DriverRedis, Topic: topic, Err: err}
	}
	return nil
}

// Close closes the Redis client.
func (r *RedisPublisher) Close() error {
	return r.client.Close()
}
