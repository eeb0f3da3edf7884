// Package awscfg loads the shared AWS SDK configuration.
package awscfg

import (
	"context"
	"fmt"

	"payment-broker/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// Load resolves credentials through the default chain (env, shared files,
// instance role) for the configured region.
func Load(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// Endpoint returns cfg.EndpointOverride as an SDK base endpoint, or nil.
func Endpoint(cfg config.AWSConfig) *string {
	if cfg.EndpointOverride == "" {
		return nil
	}
	return aws.String(cfg.EndpointOverride)
}
