package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SLACKBASE_DATABASE_URL", "postgres://localhost/slackbase")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 1536, cfg.EmbeddingDimensions)
	assert.Equal(t, "slackbase-transcripts", cfg.S3Bucket)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, 5*time.Minute, cfg.ReembedInterval)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("SLACKBASE_DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestConfig_FeatureProbes(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.HasSlack())
	assert.False(t, cfg.HasOpenAI())
	assert.False(t, cfg.HasS3())

	cfg.SlackBotToken = "xoxb-test"
	assert.False(t, cfg.HasSlack(), "bot token alone is not enough for Socket Mode")
	cfg.SlackAppToken = "xapp-test"
	assert.True(t, cfg.HasSlack())

	cfg.OpenAIAPIKey = "sk-test"
	assert.True(t, cfg.HasOpenAI())

	cfg.S3Endpoint = "http://localhost:9000"
	cfg.S3AccessKey = "key"
	cfg.S3SecretKey = "secret"
	assert.True(t, cfg.HasS3())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SLACKBASE_DATABASE_URL", "postgres://localhost/slackbase")
	t.Setenv("SLACKBASE_PORT", "9090")
	t.Setenv("SLACKBASE_EMBEDDING_DIMENSIONS", "3072")
	t.Setenv("SLACKBASE_REEMBED_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3072, cfg.EmbeddingDimensions)
	assert.Equal(t, 30*time.Second, cfg.ReembedInterval)
}
