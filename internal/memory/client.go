package memory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcorecontrol"

	memexErrors "github.com/cadre-oss/memex/internal/errors"
)

// ClientConfig holds the AWS connection settings for the AgentCore clients.
type ClientConfig struct {
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Endpoint overrides the data plane endpoint; ControlEndpoint the
	// control plane one. Both are optional.
	Endpoint        string
	ControlEndpoint string
}

// LoadAWSConfig resolves an aws.Config from the standard credential chain
// plus any explicit settings in cfg. SDK-level retries are disabled because
// RetryService owns the retry policy.
func LoadAWSConfig(ctx context.Context, cfg ClientConfig) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRetryMaxAttempts(1),
	}

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			cfg.SessionToken,
		)
		opts = append(opts, config.WithCredentialsProvider(creds))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, memexErrors.Wrap(memexErrors.CodeConfigInvalid, "failed to load AWS config", err).
			WithSuggestion("Check AWS_PROFILE and ~/.aws/config")
	}
	if awsCfg.Region == "" {
		return aws.Config{}, memexErrors.New(memexErrors.CodeConfigInvalid, "no AWS region configured").
			WithSuggestion("Pass --region, set aws.region in memex.yaml, or export AWS_REGION")
	}

	return awsCfg, nil
}

// NewAgentCoreService builds an AgentCoreService from cfg.
func NewAgentCoreService(ctx context.Context, cfg ClientConfig) (*AgentCoreService, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var controlOpts []func(*bedrockagentcorecontrol.Options)
	if cfg.ControlEndpoint != "" {
		controlOpts = append(controlOpts, func(o *bedrockagentcorecontrol.Options) {
			o.BaseEndpoint = aws.String(cfg.ControlEndpoint)
		})
	}

	var dataOpts []func(*bedrockagentcore.Options)
	if cfg.Endpoint != "" {
		dataOpts = append(dataOpts, func(o *bedrockagentcore.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	svc := NewAgentCoreServiceFromClients(
		bedrockagentcorecontrol.NewFromConfig(awsCfg, controlOpts...),
		bedrockagentcore.NewFromConfig(awsCfg, dataOpts...),
	)
	svc.region = awsCfg.Region
	return svc, nil
}

// CheckCredentials retrieves credentials once so that a missing or expired
// credential chain is reported before any API call.
func CheckCredentials(ctx context.Context, awsCfg aws.Config) (aws.Credentials, error) {
	if awsCfg.Credentials == nil {
		return aws.Credentials{}, memexErrors.New(memexErrors.CodeCredentialsMissing, "no AWS credential provider configured").
			WithSuggestion("Run 'aws configure' or set AWS_PROFILE / AWS_ACCESS_KEY_ID")
	}
	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil {
		return aws.Credentials{}, memexErrors.Wrap(memexErrors.CodeCredentialsMissing, "failed to retrieve AWS credentials", err).
			WithSuggestion("Run 'aws configure' or set AWS_PROFILE / AWS_ACCESS_KEY_ID")
	}
	if !creds.HasKeys() {
		return creds, memexErrors.New(memexErrors.CodeCredentialsMissing,
			fmt.Sprintf("credential provider %q returned no keys", creds.Source))
	}
	return creds, nil
}
