package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/solacese/romo-robot/internal/broker"
	"github.com/solacese/romo-robot/internal/uploader"
	"github.com/solacese/romo-robot/internal/vision"
	pkgconfig "github.com/solacese/romo-robot/pkg/config"
	pkglog "github.com/solacese/romo-robot/pkg/log"
	"github.com/solacese/romo-robot/pkg/storage"
)

// DefaultEnvFile is loaded before the environment is read, when present.
const DefaultEnvFile = "env/dev.env"

type Config struct {
	Log      pkglog.Config   `mapstructure:"log"`
	Server   ServerConfig    `mapstructure:"server"`
	Vision   vision.Config   `mapstructure:"vision"`
	Broker   broker.Config   `mapstructure:"broker"`
	Consumer ConsumerConfig  `mapstructure:"consumer"`
	Webhook  WebhookConfig   `mapstructure:"webhook"`
	Storage  StorageConfig   `mapstructure:"storage"`
	Uploader uploader.Config `mapstructure:"uploader"`
	Ingest   IngestConfig    `mapstructure:"ingest"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type ConsumerConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	Brokers          string   `mapstructure:"brokers"`
	Topic            string   `mapstructure:"topic"`
	GroupID          string   `mapstructure:"group_id"`
	BucketFilter     string   `mapstructure:"bucket_filter"`
	PrefixFilter     string   `mapstructure:"prefix_filter"`
	EventNameFilters []string `mapstructure:"event_name_filters"`
}

// IngestConfig is the Kafka topic the uploader reads raw image captures from.
type IngestConfig struct {
	Brokers      string        `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	GroupID      string        `mapstructure:"group_id"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

type WebhookConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// StorageConfig mirrors the nested structure used by other services.
type StorageConfig struct {
	Type  string              `mapstructure:"type"`
	S3    storage.S3Config    `mapstructure:"s3"`
	Local storage.LocalConfig `mapstructure:"local"`
}

// Load reads ENV_FILE (default env/dev.env), then ./config/config.yaml, then
// the environment.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := pkgconfig.LoadEnvFiles(envFile); err != nil {
		return nil, err
	}
	return load("./config")
}

func load(configPath string) (*Config, error) {
	v, err := pkgconfig.Load(configPath, "config")
	if err != nil {
		return nil, err
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("vision.region", "us-east-1")
	v.SetDefault("broker.driver", broker.DriverREST)
	v.SetDefault("broker.rest.timeout", "0s")
	v.SetDefault("broker.rest.require_success", false)
	v.SetDefault("broker.kafka.brokers", "localhost:9092")
	v.SetDefault("broker.kafka.topic", "face-detections")
	v.SetDefault("broker.redis.address", "localhost:6379")
	v.SetDefault("broker.redis.pool_size", 10)
	v.SetDefault("broker.semp.enabled", false)
	v.SetDefault("broker.semp.timeout", "10s")
	v.SetDefault("consumer.enabled", false)
	v.SetDefault("consumer.brokers", "localhost:9092")
	v.SetDefault("consumer.topic", "minio-events")
	v.SetDefault("consumer.group_id", "romo-face-service")
	v.SetDefault("consumer.event_name_filters", []string{"s3:ObjectCreated:*"})
	v.SetDefault("webhook.enabled", true)
	v.SetDefault("storage.type", "s3")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.local.base_path", "./data/uploads")
	v.SetDefault("uploader.key_prefix", "romo")
	v.SetDefault("uploader.jpeg_quality", 85)
	v.SetDefault("uploader.url_expiry", "1h")
	v.SetDefault("ingest.brokers", "localhost:9092")
	v.SetDefault("ingest.topic", "romo-images")
	v.SetDefault("ingest.group_id", "romo-image-uploader")
	v.SetDefault("ingest.retry_backoff", "1s")

	// Env bindings. AWS credentials come from the SDK default chain.
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("server.host", "SERVER_HOST")
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("vision.region", "AWS_REGION")
	v.BindEnv("vision.endpoint", "REKOGNITION_ENDPOINT")
	v.BindEnv("broker.driver", "BROKER_DRIVER")
	v.BindEnv("broker.rest.uri", "SOLACE_URI")
	v.BindEnv("broker.rest.port", "SOLACE_PORT")
	v.BindEnv("broker.rest.username", "SOLACE_USER")
	v.BindEnv("broker.rest.password", "SOLACE_PASSWORD")
	v.BindEnv("broker.rest.topic_prefix", "ROMO_EMOTION_CONTROLLER_PREFIX")
	v.BindEnv("broker.rest.timeout", "SOLACE_TIMEOUT")
	v.BindEnv("broker.rest.require_success", "SOLACE_REQUIRE_SUCCESS")
	v.BindEnv("broker.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("broker.kafka.topic", "KAFKA_PRODUCER_TOPIC")
	v.BindEnv("broker.redis.address", "REDIS_ADDRESS")
	v.BindEnv("broker.redis.password", "REDIS_PASSWORD")
	v.BindEnv("broker.redis.db", "REDIS_DB")
	v.BindEnv("broker.redis.channel_prefix", "REDIS_CHANNEL_PREFIX")
	v.BindEnv("broker.semp.enabled", "SEMP_ENABLED")
	v.BindEnv("broker.semp.endpoint", "SEMP_ENDPOINT")
	v.BindEnv("broker.semp.username", "SEMP_USERNAME")
	v.BindEnv("broker.semp.password", "SEMP_PASSWORD")
	v.BindEnv("broker.semp.msg_vpn", "SEMP_MSG_VPN")
	v.BindEnv("broker.semp.queue", "SEMP_QUEUE")
	v.BindEnv("broker.semp.subscription", "SEMP_SUBSCRIPTION")
	v.BindEnv("consumer.enabled", "CONSUMER_ENABLED")
	v.BindEnv("consumer.brokers", "CONSUMER_BROKERS")
	v.BindEnv("consumer.topic", "CONSUMER_TOPIC")
	v.BindEnv("consumer.group_id", "CONSUMER_GROUP_ID")
	v.BindEnv("consumer.bucket_filter", "CONSUMER_BUCKET_FILTER")
	v.BindEnv("consumer.prefix_filter", "CONSUMER_PREFIX_FILTER")
	v.BindEnv("consumer.event_name_filters", "CONSUMER_EVENT_NAME_FILTERS")
	v.BindEnv("webhook.enabled", "WEBHOOK_ENABLED")
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.region", "S3_REGION")
	v.BindEnv("storage.s3.bucket", "AWS_S3_BUCKET")
	v.BindEnv("storage.s3.use_path_style", "S3_USE_PATH_STYLE")
	v.BindEnv("storage.s3.public_url", "S3_PUBLIC_URL")
	v.BindEnv("storage.local.base_path", "STORAGE_LOCAL_PATH")
	v.BindEnv("uploader.key_prefix", "S3_KEY_PREFIX")
	v.BindEnv("uploader.jpeg_quality", "UPLOADER_JPEG_QUALITY")
	v.BindEnv("uploader.max_width", "UPLOADER_MAX_WIDTH")
	v.BindEnv("ingest.brokers", "INGEST_BROKERS")
	v.BindEnv("ingest.topic", "INGEST_TOPIC")
	v.BindEnv("ingest.group_id", "INGEST_GROUP_ID")
	v.BindEnv("ingest.retry_backoff", "INGEST_RETRY_BACKOFF")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Comma-separated env values arrive as a single element.
	if len(cfg.Consumer.EventNameFilters) == 1 && strings.Contains(cfg.Consumer.EventNameFilters[0], ",") {
		cfg.Consumer.EventNameFilters = splitList(cfg.Consumer.EventNameFilters[0])
	}

	return &cfg, nil
}

// ValidateService checks what the face service needs at startup.
func (c *Config) ValidateService() error {
	if err := c.Broker.Validate(); err != nil {
		return fmt.Errorf("invalid broker config: %w", err)
	}
	if c.Consumer.Enabled && (c.Consumer.Brokers == "" || c.Consumer.Topic == "" || c.Consumer.GroupID == "") {
		return errors.New("consumer requires brokers, topic and group_id when enabled")
	}
	if c.Server.Port <= 0 {
		return errors.New("server.port must be positive")
	}
	return nil
}

// ValidateUploader checks what the uploader needs.
func (c *Config) ValidateUploader() error {
	switch c.Storage.Type {
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket (AWS_S3_BUCKET) is required")
		}
	case "local":
		if c.Storage.Local.BasePath == "" {
			return errors.New("storage.local.base_path is required")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	return nil
}

// ValidateIngest checks the uploader settings plus the ingest topic.
func (c *Config) ValidateIngest() error {
	if err := c.ValidateUploader(); err != nil {
		return err
	}
	if c.Ingest.Brokers == "" || c.Ingest.Topic == "" || c.Ingest.GroupID == "" {
		return errors.New("ingest requires brokers, topic and group_id")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
