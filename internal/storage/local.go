package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const privateDirMode = 0o750

// LocalBackend stores objects as files in a directory served under BASE_URL/uploads/.
// Links never expire; the TTL handed back to callers is advisory only.
type LocalBackend struct {
	dir     string
	baseURL string
	ttl     time.Duration
}

// NewLocalBackend creates dir if needed and returns a ready-to-use LocalBackend.
func NewLocalBackend(dir, baseURL string, ttl time.Duration) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, privateDirMode); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	return &LocalBackend{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttlOrDefault(ttl, DefaultTTL),
	}, nil
}

// Name implements Backend.
func (b *LocalBackend) Name() string { return "local" }

// Dir is the directory files are written to.
func (b *LocalBackend) Dir() string { return b.dir }

// Upload writes data to a new file. It fails rather than overwrite an existing one.
func (b *LocalBackend) Upload(ctx context.Context, data []byte, originalName, contentType string) (Object, error) {
	key := nameKey(originalName)
	if err := ctx.Err(); err != nil {
		return Object{}, uploadErr("write file", key, err)
	}

	p := b.path(key)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return Object{}, uploadErr("create file", key, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return Object{}, uploadErr("write file", key, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return Object{}, uploadErr("close file", key, err)
	}

	return Object{Key: key, URL: b.link(key)}, nil
}

// DownloadURL returns the stable public link for key.
func (b *LocalBackend) DownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return b.link(key), nil
}

// Delete removes the file behind key.
func (b *LocalBackend) Delete(_ context.Context, key string) error {
	if err := os.Remove(b.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

func (b *LocalBackend) path(key string) string {
	return filepath.Join(b.dir, BaseName(key))
}

func (b *LocalBackend) link(key string) string {
	return b.baseURL + "/uploads/" + url.PathEscape(BaseName(key))
}
