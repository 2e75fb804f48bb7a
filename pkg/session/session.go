// Package session provides AWS configuration and DynamoDB client construction
package session

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// configLoadFunc is a variable to allow mocking config.LoadDefaultConfig in tests
var configLoadFunc = config.LoadDefaultConfig

// Defaults applied when the corresponding Config field is zero
const (
	DefaultRegion          = "us-east-1"
	DefaultMaxRetries      = 3
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultSessionDuration = time.Hour
	DefaultRoleSessionName = "tablequery"
)

// Config holds the AWS settings used to build the DynamoDB client
type Config struct {
	CredentialsProvider aws.CredentialsProvider            `yaml:"-"`
	AWSConfigOptions    []func(*config.LoadOptions) error `yaml:"-"`
	DynamoDBOptions     []func(*dynamodb.Options)         `yaml:"-"`
	Region              string                            `yaml:"region"`
	Endpoint            string                            `yaml:"endpoint" validate:"omitempty,url"`
	AccessKeyID         string                            `yaml:"access_key_id" validate:"required_with=SecretAccessKey"`
	SecretAccessKey     string                            `yaml:"secret_access_key" validate:"required_with=AccessKeyID"`
	SessionToken        string                            `yaml:"session_token" validate:"excluded_without=AccessKeyID"`
	RoleARN             string                            `yaml:"role_arn" validate:"omitempty,startswith=arn:"`
	ExternalID          string                            `yaml:"external_id" validate:"excluded_without=RoleARN"`
	RoleSessionName     string                            `yaml:"role_session_name"`
	SessionDuration     time.Duration                     `yaml:"session_duration" validate:"gte=0"`
	HTTPTimeout         time.Duration                     `yaml:"http_timeout" validate:"gte=0"`
	MaxRetries          int                               `yaml:"max_retries" validate:"gte=0,lte=20"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Region:     DefaultRegion,
		MaxRetries: DefaultMaxRetries,
	}
}

// Validate checks field combinations, e.g. that static keys come in pairs
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid session config: %w", err)
	}
	return nil
}

// ParseConfig decodes a YAML document into a Config on top of the defaults
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse session config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML session config from path
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caller-provided config path
	if err != nil {
		return nil, fmt.Errorf("failed to read session config: %w", err)
	}
	return ParseConfig(data)
}

// Session manages the AWS configuration and DynamoDB client
type Session struct {
	config    *Config
	client    *dynamodb.Client
	awsConfig aws.Config
}

// NewSession creates a new session with the given configuration
func NewSession(ctx context.Context, cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Build AWS config options
	options := make([]func(*config.LoadOptions) error, 0, len(cfg.AWSConfigOptions)+5)

	if cfg.Region != "" {
		options = append(options, config.WithRegion(cfg.Region))
	}

	switch {
	case cfg.CredentialsProvider != nil:
		options = append(options, config.WithCredentialsProvider(cfg.CredentialsProvider))
	case cfg.AccessKeyID != "":
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	// Retry configuration
	maxAttempts := cfg.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxRetries
	}
	options = append(options, config.WithRetryMode(aws.RetryModeStandard))
	options = append(options, config.WithRetryMaxAttempts(maxAttempts))

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	httpClient := &http.Client{Timeout: timeout}
	options = append(options, config.WithHTTPClient(httpClient))

	options = append(options, cfg.AWSConfigOptions...)

	awsConfig, err := configLoadFunc(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if awsConfig.Retryer == nil {
		awsConfig.Retryer = func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = maxAttempts
			})
		}
	}

	if cfg.RoleARN != "" {
		awsConfig.Credentials = assumeRoleCredentials(awsConfig, cfg)
	}

	clientOptions := make([]func(*dynamodb.Options), 0, 1+len(cfg.DynamoDBOptions))
	clientOptions = append(clientOptions, func(o *dynamodb.Options) {
		o.Region = awsConfig.Region

		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if o.Retryer == nil {
			o.Retryer = awsConfig.Retryer()
		}
		if o.HTTPClient == nil {
			o.HTTPClient = httpClient
		}
	})
	clientOptions = append(clientOptions, cfg.DynamoDBOptions...)

	return &Session{
		config:    cfg,
		awsConfig: awsConfig,
		client:    dynamodb.NewFromConfig(awsConfig, clientOptions...),
	}, nil
}

// assumeRoleCredentials wraps the loaded credentials in an STS assume-role provider
func assumeRoleCredentials(base aws.Config, cfg *Config) aws.CredentialsProvider {
	duration := cfg.SessionDuration
	if duration == 0 {
		duration = DefaultSessionDuration
	}
	sessionName := cfg.RoleSessionName
	if sessionName == "" {
		sessionName = DefaultRoleSessionName
	}

	stsClient := sts.NewFromConfig(base)
	provider := stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN, func(o *stscreds.AssumeRoleOptions) {
		if cfg.ExternalID != "" {
			o.ExternalID = aws.String(cfg.ExternalID)
		}
		o.RoleSessionName = sessionName
		o.Duration = duration
	})
	return aws.NewCredentialsCache(provider)
}

// Client returns the DynamoDB client
func (s *Session) Client() (*dynamodb.Client, error) {
	if s == nil {
		return nil, fmt.Errorf("session is nil")
	}
	if s.client == nil {
		return nil, fmt.Errorf("DynamoDB client is nil")
	}
	return s.client, nil
}

// Config returns the session configuration
func (s *Session) Config() *Config {
	return s.config
}

// AWSConfig returns the AWS configuration
func (s *Session) AWSConfig() aws.Config {
	return s.awsConfig
}
