package s3svc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/sgaunet/s3-nocheck-resource/pkg/config"
)

// GetAwsConfig returns an aws.Config scoped to region.
// Static keys from the source take precedence over the default credential
// chain; a role ARN is then assumed on top of whichever credentials resolved.
func GetAwsConfig(ctx context.Context, src config.Source, region string, log *slog.Logger) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if src.AccessKeyID != "" {
		log.Debug("Use static credentials from source")
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(src.AccessKeyID, src.SecretAccessKey, src.SessionToken),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		log.Error("Error loading default config", slog.String("error", err.Error()))
		return cfg, fmt.Errorf("error loading default config: %w", err)
	}

	if src.AwsRoleArn != "" {
		log.Debug("Assume role", slog.String("role", src.AwsRoleArn))
		stsClient := sts.NewFromConfig(cfg)
		cfg.Credentials = aws.NewCredentialsCache(stscreds.NewAssumeRoleProvider(stsClient, src.AwsRoleArn))
	}
	return cfg, nil
}

// NewClient builds an S3 client from cfg, honouring a custom endpoint.
func NewClient(cfg aws.Config, src config.Source) *s3.Client {
	// https://pkg.go.dev/github.com/aws/aws-sdk-go-v2/service/s3
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if src.Endpoint != "" {
			o.BaseEndpoint = aws.String(EndpointURL(src))
			o.UsePathStyle = true
		}
	})
}

// EndpointURL returns the source endpoint with a scheme.
func EndpointURL(src config.Source) string {
	if strings.HasPrefix(src.Endpoint, "http://") || strings.HasPrefix(src.Endpoint, "https://") {
		return src.Endpoint
	}
	if src.DisableSSL {
		return "http://" + src.Endpoint
	}
	return "https://" + src.Endpoint
}
