package mainconfig

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/clubvoice/clubvoice/internal/config"
)

// LoadAWSConfig centralizes AWS SDK initialization so both binaries share
// the same wiring. Credentials come from the default chain (env, shared
// config, instance role).
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(cfg.AWSRegion))
}

// NewSESClient builds the SES client used when EMAIL_PROVIDER=ses.
func NewSESClient(ctx context.Context, cfg *appconfig.Config) (*sesv2.Client, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return sesv2.NewFromConfig(awsCfg), nil
}
