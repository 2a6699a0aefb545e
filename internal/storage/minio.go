package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Faultbox/wmhtool/internal/config"
)

// ContentType is the MIME type set on uploaded objects.
const ContentType = "application/octet-stream"

// MinIOSink uploads objects to one bucket of an S3-compatible backend
// (MinIO, AWS S3, etc.). It is safe for concurrent use.
type MinIOSink struct {
	client *minio.Client
	bucket string
}

// NewMinIO creates an S3-compatible sink backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if missing).
func NewMinIO(ctx context.Context, cfg config.MinIOConfig) (*MinIOSink, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &MinIOSink{client: cli, bucket: cfg.Bucket}, nil
}

// Put uploads r as a single object. S3 never exposes a partially written
// object, so a failed upload leaves the key untouched.
func (s *MinIOSink) Put(ctx context.Context, key string, r io.Reader, size int64) (ObjectInfo, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: ContentType,
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("%w: s3://%s/%s: %w", ErrWriteFailed, s.bucket, key, err)
	}
	return ObjectInfo{
		Location: Destination{Bucket: s.bucket, Key: key}.String(),
		Size:     info.Size,
		ETag:     info.ETag,
	}, nil
}
