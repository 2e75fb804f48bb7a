package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConfigLoad replaces configLoadFunc for the duration of the test and
// returns the load options the session applied.
func stubConfigLoad(t *testing.T) *config.LoadOptions {
	t.Helper()
	original := configLoadFunc
	t.Cleanup(func() { configLoadFunc = original })

	captured := &config.LoadOptions{}
	configLoadFunc = func(_ context.Context, opts ...func(*config.LoadOptions) error) (aws.Config, error) {
		for _, opt := range opts {
			if err := opt(captured); err != nil {
				return aws.Config{}, err
			}
		}
		return aws.Config{Region: captured.Region, Credentials: captured.Credentials}, nil
	}
	return captured
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultRegion, cfg.Region)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.Empty(t, cfg.Endpoint)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "empty", cfg: Config{}},
		{name: "static keys", cfg: Config{AccessKeyID: "AKID", SecretAccessKey: "secret"}},
		{name: "key without secret", cfg: Config{AccessKeyID: "AKID"}, wantErr: true},
		{name: "secret without key", cfg: Config{SecretAccessKey: "secret"}, wantErr: true},
		{name: "token without keys", cfg: Config{SessionToken: "token"}, wantErr: true},
		{name: "external id without role", cfg: Config{ExternalID: "ext"}, wantErr: true},
		{name: "role with external id", cfg: Config{RoleARN: "arn:aws:iam::123456789012:role/reader", ExternalID: "ext"}},
		{name: "malformed role", cfg: Config{RoleARN: "reader"}, wantErr: true},
		{name: "endpoint url", cfg: Config{Endpoint: "http://localhost:8000"}},
		{name: "endpoint not a url", cfg: Config{Endpoint: "localhost"}, wantErr: true},
		{name: "negative retries", cfg: Config{MaxRetries: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid session config")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseConfig(t *testing.T) {
	t.Run("fields and defaults", func(t *testing.T) {
		cfg, err := ParseConfig([]byte(`
endpoint: http://localhost:8000
role_arn: arn:aws:iam::123456789012:role/reader
external_id: ext-1
session_duration: 15m
max_retries: 5
`))
		require.NoError(t, err)

		assert.Equal(t, DefaultRegion, cfg.Region)
		assert.Equal(t, "http://localhost:8000", cfg.Endpoint)
		assert.Equal(t, "arn:aws:iam::123456789012:role/reader", cfg.RoleARN)
		assert.Equal(t, "ext-1", cfg.ExternalID)
		assert.Equal(t, 15*time.Minute, cfg.SessionDuration)
		assert.Equal(t, 5, cfg.MaxRetries)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseConfig([]byte("region: [unterminated"))
		assert.ErrorContains(t, err, "failed to parse session config")
	})

	t.Run("invalid combination", func(t *testing.T) {
		_, err := ParseConfig([]byte("access_key_id: AKID\n"))
		assert.ErrorContains(t, err, "invalid session config")
	})
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("region: eu-west-1\n"), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)

	_, err = LoadConfigFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read session config")
}

func TestNewSession(t *testing.T) {
	ctx := context.Background()

	t.Run("nil config uses defaults", func(t *testing.T) {
		captured := stubConfigLoad(t)

		sess, err := NewSession(ctx, nil)
		require.NoError(t, err)

		assert.Equal(t, DefaultRegion, captured.Region)
		assert.Equal(t, DefaultMaxRetries, captured.RetryMaxAttempts)
		assert.Equal(t, aws.RetryModeStandard, captured.RetryMode)
		assert.Equal(t, DefaultConfig(), sess.Config())
	})

	t.Run("static credentials", func(t *testing.T) {
		captured := stubConfigLoad(t)

		_, err := NewSession(ctx, &Config{
			Region:          "us-west-2",
			AccessKeyID:     "AKID",
			SecretAccessKey: "secret",
			SessionToken:    "token",
		})
		require.NoError(t, err)
		require.NotNil(t, captured.Credentials)

		creds, err := captured.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "AKID", creds.AccessKeyID)
		assert.Equal(t, "secret", creds.SecretAccessKey)
		assert.Equal(t, "token", creds.SessionToken)
	})

	t.Run("explicit provider wins over static keys", func(t *testing.T) {
		captured := stubConfigLoad(t)
		provider := aws.AnonymousCredentials{}

		_, err := NewSession(ctx, &Config{
			CredentialsProvider: provider,
			AccessKeyID:         "AKID",
			SecretAccessKey:     "secret",
		})
		require.NoError(t, err)
		assert.Equal(t, provider, captured.Credentials)
	})

	t.Run("assume role wraps credentials", func(t *testing.T) {
		stubConfigLoad(t)

		sess, err := NewSession(ctx, &Config{
			Region:     "us-east-1",
			RoleARN:    "arn:aws:iam::123456789012:role/reader",
			ExternalID: "ext-1",
		})
		require.NoError(t, err)
		assert.IsType(t, &aws.CredentialsCache{}, sess.AWSConfig().Credentials)
	})

	t.Run("invalid config is rejected before loading", func(t *testing.T) {
		called := false
		original := configLoadFunc
		t.Cleanup(func() { configLoadFunc = original })
		configLoadFunc = func(context.Context, ...func(*config.LoadOptions) error) (aws.Config, error) {
			called = true
			return aws.Config{}, nil
		}

		sess, err := NewSession(ctx, &Config{AccessKeyID: "AKID"})
		assert.Error(t, err)
		assert.Nil(t, sess)
		assert.False(t, called)
	})

	t.Run("AWS config load error", func(t *testing.T) {
		original := configLoadFunc
		t.Cleanup(func() { configLoadFunc = original })
		expectedErr := errors.New("config load failed")
		configLoadFunc = func(context.Context, ...func(*config.LoadOptions) error) (aws.Config, error) {
			return aws.Config{}, expectedErr
		}

		sess, err := NewSession(ctx, &Config{})
		assert.ErrorIs(t, err, expectedErr)
		assert.Nil(t, sess)
		assert.Contains(t, err.Error(), "failed to load AWS config")
	})

	t.Run("custom options are applied", func(t *testing.T) {
		stubConfigLoad(t)

		awsOptionCalled := false
		var endpoint string
		cfg := &Config{
			Region:   "us-west-2",
			Endpoint: "http://localhost:8000",
			AWSConfigOptions: []func(*config.LoadOptions) error{
				func(*config.LoadOptions) error {
					awsOptionCalled = true
					return nil
				},
			},
			DynamoDBOptions: []func(*dynamodb.Options){
				func(o *dynamodb.Options) {
					endpoint = aws.ToString(o.BaseEndpoint)
				},
			},
		}

		sess, err := NewSession(ctx, cfg)
		require.NoError(t, err)
		assert.True(t, awsOptionCalled)
		assert.Equal(t, "http://localhost:8000", endpoint)
		assert.Equal(t, "us-west-2", sess.AWSConfig().Region)
	})
}

func TestSessionGetters(t *testing.T) {
	stubConfigLoad(t)

	cfg := &Config{Region: "test-region"}
	sess, err := NewSession(context.Background(), cfg)
	require.NoError(t, err)

	client, err := sess.Client()
	require.NoError(t, err)
	assert.IsType(t, &dynamodb.Client{}, client)
	assert.Same(t, cfg, sess.Config())
	assert.Equal(t, "test-region", sess.AWSConfig().Region)

	var nilSession *Session
	_, err = nilSession.Client()
	assert.ErrorContains(t, err, "session is nil")

	_, err = (&Session{}).Client()
	assert.ErrorContains(t, err, "DynamoDB client is nil")
}
