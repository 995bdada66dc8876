package providers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/samber/do/v2"

	"github.com/brainvault/brainvault-server/internal/config"
)

// ProvideAWSConfig loads the shared AWS configuration. Static keys from the
// app config take precedence over the default credential chain.
func ProvideAWSConfig(i do.Injector) (aws.Config, error) {
	cfg := do.MustInvoke[*config.Config](i)

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.Region),
	}
	if cfg.AWS.AccessKeyID != "" && cfg.AWS.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// ProvideS3Client provides the S3 client used for audio archiving.
func ProvideS3Client(i do.Injector) (*s3.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	awsCfg := do.MustInvoke[aws.Config](i)

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AWS.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
