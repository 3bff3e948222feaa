package vision

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roleEnv sets the variables a Lambda or ECS task role exposes and hides any
// shared config on the test host.
func roleEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "ASIAROLEKEY")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "role-secret")
	t.Setenv("AWS_SESSION_TOKEN", "lambda-role-session-token")
}

func TestLoadAWSConfigKeepsRoleSessionToken(t *testing.T) {
	roleEnv(t)
	ctx := context.Background()

	awsCfg, err := loadAWSConfig(ctx, Config{Region: "eu-west-1"})
	require.NoError(t, err)

	creds, err := awsCfg.Credentials.Retrieve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ASIAROLEKEY", creds.AccessKeyID)
	assert.Equal(t, "lambda-role-session-token", creds.SessionToken)
	assert.Equal(t, "eu-west-1", awsCfg.Region)
	assert.Equal(t, 1, awsCfg.RetryMaxAttempts)
}

func TestLoadAWSConfigStaticKeysCarrySessionToken(t *testing.T) {
	roleEnv(t)
	ctx := context.Background()

	awsCfg, err := loadAWSConfig(ctx, Config{
		AccessKeyID:     "AKIASTATIC",
		SecretAccessKey: "static-secret",
		SessionToken:    "static-token",
	})
	require.NoError(t, err)

	creds, err := awsCfg.Credentials.Retrieve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AKIASTATIC", creds.AccessKeyID)
	assert.Equal(t, "static-token", creds.SessionToken)
	assert.Equal(t, "us-east-1", awsCfg.Region)
}
