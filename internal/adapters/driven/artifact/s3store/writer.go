// Package s3store uploads run artifacts to an S3 bucket.
package s3store

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/custodia-labs/bioqa-cli/internal/adapters/driven/artifact"
	"github.com/custodia-labs/bioqa-cli/internal/core/domain"
	"github.com/custodia-labs/bioqa-cli/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.ArtifactWriter = (*Writer)(nil)

// Config holds S3 connection settings.
type Config struct {
	Bucket string
	Region string

	// Prefix is prepended to every object key, e.g. "bioasq/runs".
	Prefix string

	// AccessKey and SecretKey select static credentials. When empty the
	// default AWS chain (environment, shared config, IAM role) is used.
	AccessKey string
	SecretKey string

	// Endpoint targets an S3-compatible service such as MinIO.
	Endpoint string
}

// putObjectAPI is the subset of the S3 client used by Writer.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Writer uploads artifacts as JSON objects.
type Writer struct {
	client putObjectAPI
	bucket string
	prefix string
}

// NewWriter loads AWS configuration and creates a writer for the bucket.
func NewWriter(ctx context.Context, cfg Config) (*Writer, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket: %w", domain.ErrConfigInvalid)
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newWriter(client, cfg.Bucket, cfg.Prefix), nil
}

func newWriter(client putObjectAPI, bucket, prefix string) *Writer {
	return &Writer{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Key returns the object key for an artifact name.
func (w *Writer) Key(name string) string {
	if w.prefix == "" {
		return name
	}
	return path.Join(w.prefix, name)
}

// Write uploads the run and returns its s3:// URL.
func (w *Writer) Write(ctx context.Context, name string, run *domain.Run) (string, error) {
	if name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("artifact name %q: %w", name, domain.ErrInvalidInput)
	}

	data, err := artifact.Encode(run)
	if err != nil {
		return "", err
	}

	key := w.Key(name)
	_, err = w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(artifact.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload artifact to s3: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", w.bucket, key), nil
}
