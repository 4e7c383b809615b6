package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioOptions configures a MinioBackend.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	TTL       time.Duration
}

// MinioBackend implements Backend on a private bucket of any S3-compatible provider
// reached through the MinIO client. Download links are presigned GET URLs.
type MinioBackend struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

// NewMinioBackend creates a MinIO client, ensures the bucket exists, and returns a
// ready-to-use MinioBackend.
func NewMinioBackend(ctx context.Context, opts MinioOptions, log *zap.Logger) (*MinioBackend, error) {
	b, err := newMinioBackend(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", b.bucket, err)
		}
		log.Info("storage: created bucket", zap.String("bucket", b.bucket))
	}

	return b, nil
}

// newMinioBackend builds the client without touching the network. Setting the
// region up front lets presigning skip the bucket-location lookup.
func newMinioBackend(opts MinioOptions) (*MinioBackend, error) {
	if opts.Endpoint == "" || opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioBackend{
		client: client,
		bucket: opts.Bucket,
		ttl:    ttlOrDefault(opts.TTL, DefaultTTL),
	}, nil
}

// Name implements Backend.
func (b *MinioBackend) Name() string { return "minio" }

// Upload puts data into the bucket and returns a presigned link to it.
func (b *MinioBackend) Upload(ctx context.Context, data []byte, originalName, contentType string) (Object, error) {
	key := extKey(originalName)
	_, err := b.client.PutObject(ctx, b.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Object{}, uploadErr("put object", key, err)
	}

	u, err := b.DownloadURL(ctx, key, b.ttl)
	if err != nil {
		return Object{}, uploadErr("sign url", key, err)
	}
	return Object{Key: key, URL: u}, nil
}

// DownloadURL presigns a GET for key valid for ttl.
func (b *MinioBackend) DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := b.client.PresignedGetObject(ctx, b.bucket, key, ttlOrDefault(ttl, b.ttl), nil)
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", key, err)
	}
	return u.String(), nil
}

// Delete removes the object at key from the bucket.
func (b *MinioBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}
