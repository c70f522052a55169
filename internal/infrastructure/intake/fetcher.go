// Package intake fetches inbound EDI documents from object storage and
// normalizes them for parsing.
package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	infraconfig "github.com/tradeflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// S3DocumentFetcher retrieves raw documents from an S3-compatible
// bucket. Feeds deliver files to a bucket path and hand this service
// the key.
type S3DocumentFetcher struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// S3DocumentFetcherOption is a functional option for configuring the fetcher
type S3DocumentFetcherOption func(*S3DocumentFetcher)

// WithLogger sets a custom logger for the fetcher
func WithLogger(logger *zap.Logger) S3DocumentFetcherOption {
	return func(f *S3DocumentFetcher) {
		f.logger = logger
	}
}

// NewS3DocumentFetcher creates a fetcher from configuration. It works
// against AWS S3 or any S3-compatible store (MinIO, RustFS).
func NewS3DocumentFetcher(cfg *infraconfig.IntakeConfig, opts ...S3DocumentFetcherOption) (*S3DocumentFetcher, error) {
	if cfg == nil {
		return nil, errors.New("intake configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("intake bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			endpoint := cfg.Endpoint
			if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
				endpoint = "https://" + endpoint
			}
			if _, err := url.Parse(endpoint); err == nil {
				o.BaseEndpoint = aws.String(endpoint)
				o.UsePathStyle = true
			}
		}
	})

	fetcher := &S3DocumentFetcher{
		client: client,
		bucket: cfg.Bucket,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher, nil
}

// Fetch downloads one document by key and returns its raw bytes
func (f *S3DocumentFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document %s: %w", key, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", key, err)
	}

	f.logger.Debug("fetched inbound document",
		zap.String("bucket", f.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(raw)),
	)
	return raw, nil
}
