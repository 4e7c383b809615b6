// Package storage defines the interface for object storage operations.
// Implementations are chosen once at startup from configuration and injected:
// the local filesystem backend, or a managed S3-compatible bucket reached
// through either the MinIO client or the AWS SDK.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/photodrop/service/internal/config"
)

// DefaultTTL is the validity window reported for download links.
const DefaultTTL = time.Hour

// keyPrefix groups every uploaded object under one logical folder.
const keyPrefix = "uploads/"

// ErrUploadFailed wraps every failure to write an object.
var ErrUploadFailed = errors.New("upload failed")

// ErrNotConfigured is returned when a managed backend is requested without credentials.
var ErrNotConfigured = errors.New("storage backend not configured")

// Object identifies a freshly stored object.
type Object struct {
	Key string
	URL string
}

// Backend is the interface for storing uploaded files and issuing download links.
type Backend interface {
	// Name identifies the implementation in logs.
	Name() string
	// Upload stores data under a newly generated unique key and returns the key
	// together with a download URL valid for the backend's default TTL.
	Upload(ctx context.Context, data []byte, originalName, contentType string) (Object, error)
	// DownloadURL returns a link for key. Managed backends sign it for ttl;
	// the local backend returns a stable path and treats ttl as advisory.
	DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Delete removes an object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the backend selected by cfg: managed storage when its credentials are
// present, the local filesystem otherwise.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (Backend, error) {
	if !cfg.ManagedStorage() {
		log.Info("storage: using local filesystem backend", zap.String("dir", cfg.UploadDir))
		return NewLocalBackend(cfg.UploadDir, cfg.BaseURL, cfg.DownloadURLTTL)
	}

	switch cfg.StorageDriver {
	case config.DriverS3:
		log.Info("storage: using managed backend via aws sdk",
			zap.String("endpoint", cfg.StorageEndpoint), zap.String("bucket", cfg.StorageBucket))
		return NewS3Backend(ctx, S3Options{
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			Region:    cfg.StorageRegion,
			UseSSL:    cfg.StorageUseSSL,
			TTL:       cfg.DownloadURLTTL,
		}, log)
	case config.DriverMinio, "":
		log.Info("storage: using managed backend via minio",
			zap.String("endpoint", cfg.StorageEndpoint), zap.String("bucket", cfg.StorageBucket))
		return NewMinioBackend(ctx, MinioOptions{
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			Region:    cfg.StorageRegion,
			UseSSL:    cfg.StorageUseSSL,
			TTL:       cfg.DownloadURLTTL,
		}, log)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeName reduces a client-supplied filename to a safe single path segment.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}

// nameKey returns "uploads/<uuid>-<name>".
func nameKey(originalName string) string {
	return keyPrefix + uuid.NewString() + "-" + sanitizeName(originalName)
}

// extKey returns "uploads/<uuid>.<ext>", dropping the extension if there is none.
func extKey(originalName string) string {
	ext := strings.ToLower(path.Ext(sanitizeName(originalName)))
	return keyPrefix + uuid.NewString() + ext
}

// BaseName returns the final segment of a key, used as the display filename.
func BaseName(key string) string {
	return path.Base(key)
}

func uploadErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %q: %w", ErrUploadFailed, op, key, err)
}

func ttlOrDefault(ttl, fallback time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultTTL
}
