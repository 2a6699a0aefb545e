// Package storage persists encoded files to the local filesystem or to
// S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/wmhtool/internal/config"
)

// Storage errors.
var (
	ErrWriteFailed        = errors.New("write failed")
	ErrInvalidDestination = errors.New("invalid destination")
)

// S3Scheme prefixes object storage destinations: s3://bucket/key.
const S3Scheme = "s3://"

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Location string // file path or s3://bucket/key
	Size     int64
	ETag     string // object storage only
}

// Sink stores one object per call. A failed Put leaves nothing behind at
// the destination.
type Sink interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) (ObjectInfo, error)
}

// Destination is a parsed output location.
type Destination struct {
	Bucket string // empty for local files
	Key    string // file path, or object key within Bucket
}

// IsRemote reports whether the destination is in object storage.
func (d Destination) IsRemote() bool {
	return d.Bucket != ""
}

// String returns the destination in the form it was given.
func (d Destination) String() string {
	if d.IsRemote() {
		return S3Scheme + d.Bucket + "/" + d.Key
	}
	return d.Key
}

// WithExtension returns d with ext appended to the key unless the key
// already ends with it (case-insensitive).
func (d Destination) WithExtension(ext string) Destination {
	if !strings.HasSuffix(strings.ToLower(d.Key), strings.ToLower(ext)) {
		d.Key += ext
	}
	return d
}

// ParseDestination parses a local path or an s3://bucket/key URL.
// "s3:///key" uses defaultBucket.
func ParseDestination(dest, defaultBucket string) (Destination, error) {
	if dest == "" {
		return Destination{}, fmt.Errorf("%w: empty", ErrInvalidDestination)
	}
	if !strings.HasPrefix(dest, S3Scheme) {
		return Destination{Key: dest}, nil
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(dest, S3Scheme), "/")
	if bucket == "" {
		bucket = defaultBucket
	}
	key = strings.TrimLeft(key, "/")
	if !ok || bucket == "" || key == "" {
		return Destination{}, fmt.Errorf("%w: %q needs a bucket and an object key", ErrInvalidDestination, dest)
	}
	return Destination{Bucket: bucket, Key: key}, nil
}

// Open returns the sink that serves d. Object storage sinks are configured
// from cfg with d's bucket.
func Open(ctx context.Context, d Destination, cfg config.MinIOConfig) (Sink, error) {
	if !d.IsRemote() {
		return NewFileSink(), nil
	}
	cfg.Bucket = d.Bucket
	return NewMinIO(ctx, cfg)
}
