// Package s3archive keeps full audit records as JSON objects in S3.
package s3archive

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"payment-broker/config"
	"payment-broker/internal/adapter/storage/awscfg"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// API is the subset of *s3.Client used by the store.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Store implements ports.ArchiveAuditStore.
type Store struct {
	api    API
	bucket string
	region string
}

// NewClient builds an S3 client. Path-style addressing is forced when an
// endpoint override is configured.
func NewClient(ctx context.Context, cfg config.AWSConfig) (*s3.Client, error) {
	awsCfg, err := awscfg.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep := awscfg.Endpoint(cfg); ep != nil {
			o.BaseEndpoint = ep
			o.UsePathStyle = true
		}
	}), nil
}

// NewStore creates an archive store writing to bucket.
func NewStore(api API, bucket, region string) *Store {
	return &Store{api: api, bucket: bucket, region: region}
}

// PutArchive uploads blob as application/json at path.
func (s *Store) PutArchive(ctx context.Context, path string, blob []byte) error {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(blob),
		ContentLength: aws.Int64(int64(len(blob))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", path, err)
	}
	return nil
}

// URL points at the object in the S3 console.
func (s *Store) URL(path string) string {
	return fmt.Sprintf(
		"https://%s.console.aws.amazon.com/s3/object/%s?region=%s&bucketType=general&prefix=%s",
		s.region, s.bucket, s.region, url.QueryEscape(path),
	)
}

// HealthCheck implements ports.HealthChecker for the archive bucket.
type HealthCheck struct {
	api    API
	bucket string
}

// NewHealthCheck creates an S3 health checker.
func NewHealthCheck(api API, bucket string) *HealthCheck {
	return &HealthCheck{api: api, bucket: bucket}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	_, err := h.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(h.bucket)})
	return err
}

func (h *HealthCheck) Name() string {
	return "s3"
}
