package storage

import (
	"context"
	"fmt"

	appconfig "s3put/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewFromConfig returns the store selected by cfg.Backend. localRoot is only
// used by the local backend.
func NewFromConfig(ctx context.Context, cfg appconfig.S3Config, localRoot string) (API, error) {
	if cfg.Backend == appconfig.BackendLocal {
		if localRoot == "" {
			return nil, fmt.Errorf("local store root is required")
		}
		return NewLocalClient(localRoot), nil
	}
	return NewS3Client(ctx, cfg)
}

// NewS3Client builds an SDK client from explicit settings. Region, endpoint,
// profile and static keys come from cfg; anything left unset falls through to
// the SDK's default chain.
func NewS3Client(ctx context.Context, cfg appconfig.S3Config) (*s3.Client, error) {
	if cfg.Backend == "" {
		cfg.Backend = appconfig.BackendS3
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.HasStaticCredentials() {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, s3Options(cfg)...), nil
}

func s3Options(cfg appconfig.S3Config) []func(*s3.Options) {
	opts := make([]func(*s3.Options), 0, 2)
	if cfg.UsePathStyle {
		opts = append(opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	return opts
}
