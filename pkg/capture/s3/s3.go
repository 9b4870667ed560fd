// Package s3 stores capture records as JSON objects in Amazon S3 or an
// S3-compatible service.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/nfs4probe/pkg/capture"
)

const (
	recordExt = ".json"

	// DefaultMaxRetries is used when Config.MaxRetries is zero.
	DefaultMaxRetries = 10
)

// API is the subset of the S3 client the store uses.
type API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config configures the S3 capture store.
type Config struct {
	Region          string `mapstructure:"region" validate:"required"`
	Bucket          string `mapstructure:"bucket" validate:"required"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	MaxRetries      int    `mapstructure:"max_retries" validate:"omitempty,min=1"`
}

// NewClient builds an S3 client from cfg.
//
// A custom endpoint (MinIO, Localstack, ...) switches the client to
// path-style addressing. Without static keys the default credential chain
// is used.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(cfg.Region))

	if cfg.Endpoint != "" {
		//nolint:staticcheck // BaseEndpoint does not cover HostnameImmutable
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(resolver))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		provider := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(provider))
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	}), nil
}

// Store writes each record to <prefix><id>.json.
type Store struct {
	client    API
	bucket    string
	keyPrefix string
}

// New verifies bucket access and returns a store. The bucket must exist.
func New(ctx context.Context, client API, bucket, keyPrefix string) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("S3 client is required")
	}
	if bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", bucket, err)
	}

	return &Store{client: client, bucket: bucket, keyPrefix: keyPrefix}, nil
}

func (s *Store) key(id string) string {
	return s.keyPrefix + id + recordExt
}

// Save uploads the record as a JSON object.
func (s *Store) Save(ctx context.Context, rec *capture.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := capture.ValidateRecord(rec); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal capture %s: %w", rec.ID, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(rec.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put capture %s: %w", rec.ID, err)
	}
	return nil
}

// Get downloads the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (*capture.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := capture.ValidateID(id); err != nil {
		return nil, err
	}
	return s.fetch(ctx, s.key(id), id)
}

// List downloads every record under the key prefix, oldest first.
func (s *Store) List(ctx context.Context) ([]*capture.Record, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	var out []*capture.Record
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list captures: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			id := strings.TrimSuffix(strings.TrimPrefix(key, s.keyPrefix), recordExt)
			if !strings.HasSuffix(key, recordExt) || capture.ValidateID(id) != nil {
				continue
			}

			rec, err := s.fetch(ctx, key, id)
			if err != nil {
				if errors.Is(err, capture.ErrNotFound) {
					continue
				}
				return nil, err
			}
			out = append(out, rec)
		}
	}

	capture.SortByTime(out)
	return out, nil
}

// Close is a no-op; the S3 client holds no per-store resources.
func (s *Store) Close() error {
	return nil
}

func (s *Store) fetch(ctx context.Context, key, id string) (*capture.Record, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, capture.NotFound(id)
		}
		return nil, fmt.Errorf("failed to get capture %s: %w", id, err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture %s: %w", id, err)
	}

	var rec capture.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode capture %s: %w", id, err)
	}
	return &rec, nil
}
