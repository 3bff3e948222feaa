package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "0.0.0.0:8090", cfg.Server.Addr())
	assert.Equal(t, "rest", cfg.Broker.Driver)
	assert.Zero(t, cfg.Broker.REST.Timeout)
	assert.False(t, cfg.Broker.REST.RequireSuccess)
	assert.Equal(t, []string{"s3:ObjectCreated:*"}, cfg.Consumer.EventNameFilters)
	assert.True(t, cfg.Webhook.Enabled)
	assert.Equal(t, "romo", cfg.Uploader.KeyPrefix)
	assert.Equal(t, 85, cfg.Uploader.JPEGQuality)
	assert.Equal(t, time.Hour, cfg.Uploader.URLExpiry)
}

func TestLoadBrokerFromEnv(t *testing.T) {
	t.Setenv("SOLACE_URI", "https://broker")
	t.Setenv("SOLACE_PORT", "9443")
	t.Setenv("SOLACE_USER", "user")
	t.Setenv("SOLACE_PASSWORD", "pass")
	t.Setenv("ROMO_EMOTION_CONTROLLER_PREFIX", "prefix")
	t.Setenv("SOLACE_TIMEOUT", "5s")
	t.Setenv("CONSUMER_EVENT_NAME_FILTERS", "s3:ObjectCreated:Put,s3:ObjectCreated:Post")

	cfg, err := load(t.TempDir())
	require.NoError(t, err)

	rest := cfg.Broker.REST
	assert.Equal(t, "https://broker", rest.URI)
	assert.Equal(t, 9443, rest.Port)
	assert.Equal(t, "user", rest.Username)
	assert.Equal(t, "pass", rest.Password)
	assert.Equal(t, "prefix", rest.TopicPrefix)
	assert.Equal(t, 5*time.Second, rest.Timeout)
	assert.Equal(t, []string{"s3:ObjectCreated:Put", "s3:ObjectCreated:Post"}, cfg.Consumer.EventNameFilters)
	assert.NoError(t, cfg.ValidateService())
}

func TestLoadYAMLThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := "broker:\n  driver: redis\n  redis:\n    address: cache:6379\n    channel_prefix: faces\nserver:\n  port: 9000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := load(dir)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Broker.Driver)
	assert.Equal(t, "cache:6379", cfg.Broker.Redis.Address)
	assert.Equal(t, "faces", cfg.Broker.Redis.ChannelPrefix)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.NoError(t, cfg.ValidateService())
}

func TestValidateServiceRejectsMissingBroker(t *testing.T) {
	cfg, err := load(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, cfg.ValidateService())
}

func TestValidateUploader(t *testing.T) {
	cfg, err := load(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, cfg.ValidateUploader())

	cfg.Storage.S3.Bucket = "imgs"
	assert.NoError(t, cfg.ValidateUploader())

	cfg.Storage.Type = "ftp"
	assert.Error(t, cfg.ValidateUploader())
}

func TestLoadLeavesAWSCredentialsToDefaultChain(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "ASIAROLEKEY")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "role-secret")
	t.Setenv("AWS_SESSION_TOKEN", "lambda-role-session-token")

	cfg, err := load(t.TempDir())
	require.NoError(t, err)

	// Copying only the key pair into static config would drop the session token.
	assert.Empty(t, cfg.Vision.AccessKeyID)
	assert.Empty(t, cfg.Vision.SecretAccessKey)
	assert.Empty(t, cfg.Storage.S3.AccessKeyID)
	assert.Empty(t, cfg.Storage.S3.SecretAccessKey)
}

func TestLoadStaticAWSKeysFromYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := "vision:\n  access_key_id: AKIA\n  secret_access_key: s\n  session_token: tok\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := load(dir)
	require.NoError(t, err)
	assert.Equal(t, "AKIA", cfg.Vision.AccessKeyID)
	assert.Equal(t, "tok", cfg.Vision.SessionToken)
}

func TestLoadIngest(t *testing.T) {
	cfg, err := load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "localhost:9092", cfg.Ingest.Brokers)
	assert.Equal(t, "romo-images", cfg.Ingest.Topic)
	assert.Equal(t, "romo-image-uploader", cfg.Ingest.GroupID)
	assert.Equal(t, time.Second, cfg.Ingest.RetryBackoff)

	t.Setenv("INGEST_TOPIC", "camera-frames")
	t.Setenv("INGEST_RETRY_BACKOFF", "250ms")
	cfg, err = load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "camera-frames", cfg.Ingest.Topic)
	assert.Equal(t, 250*time.Millisecond, cfg.Ingest.RetryBackoff)
}

func TestValidateIngest(t *testing.T) {
	cfg, err := load(t.TempDir())
	require.NoError(t, err)
	cfg.Storage.Type = "local"
	assert.NoError(t, cfg.ValidateIngest())

	cfg.Ingest.Topic = ""
	assert.Error(t, cfg.ValidateIngest())

	cfg.Ingest.Topic = "romo-images"
	cfg.Storage.Type = "ftp"
	assert.Error(t, cfg.ValidateIngest())
}
