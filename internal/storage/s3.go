package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3Options configures an S3Backend.
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	TTL       time.Duration
}

// S3Backend implements Backend with the AWS SDK. It works against AWS itself or any
// S3-compatible endpoint using path-style addressing.
type S3Backend struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	region  string
	ttl     time.Duration
}

// NewS3Backend builds the client, ensures the bucket exists, and returns a
// ready-to-use S3Backend.
func NewS3Backend(ctx context.Context, opts S3Options, log *zap.Logger) (*S3Backend, error) {
	b, err := newS3Backend(ctx, opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err = b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucket)})
	if err == nil {
		return b, nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}

	in := &s3.CreateBucketInput{Bucket: aws.String(b.bucket)}
	if b.region != "" && b.region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.region),
		}
	}
	if _, err := b.client.CreateBucket(ctx, in); err != nil {
		return nil, fmt.Errorf("create bucket %q: %w", b.bucket, err)
	}
	log.Info("storage: created bucket", zap.String("bucket", b.bucket))
	return b, nil
}

func newS3Backend(ctx context.Context, opts S3Options) (*S3Backend, error) {
	if opts.Endpoint == "" || opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, ErrNotConfigured
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpointURL(opts.Endpoint, opts.UseSSL))
		o.UsePathStyle = true
	})

	return &S3Backend{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  opts.Bucket,
		region:  opts.Region,
		ttl:     ttlOrDefault(opts.TTL, DefaultTTL),
	}, nil
}

// endpointURL accepts either a bare host:port (MinIO style) or a full URL.
func endpointURL(endpoint string, useSSL bool) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return strings.TrimRight(endpoint, "/")
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

// Name implements Backend.
func (b *S3Backend) Name() string { return "s3" }

// Upload puts data into the bucket and returns a presigned link to it.
func (b *S3Backend) Upload(ctx context.Context, data []byte, originalName, contentType string) (Object, error) {
	key := extKey(originalName)
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
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
func (b *S3Backend) DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := b.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttlOrDefault(ttl, b.ttl)))
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", key, err)
	}
	return req.URL, nil
}

// Delete removes the object at key from the bucket.
func (b *S3Backend) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}
