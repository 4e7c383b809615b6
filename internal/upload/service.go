package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-units"
	"go.uber.org/zap"

	"github.com/photodrop/service/internal/qr"
	"github.com/photodrop/service/internal/storage"
)

// RecentLimit is how many uploads the listing returns.
const RecentLimit = 10

// Store is the persistence used by Service.
type Store interface {
	Create(ctx context.Context, in NewUpload) (*Upload, error)
	Recent(ctx context.Context, limit int) ([]Upload, error)
	GetByID(ctx context.Context, id int64) (*Upload, error)
}

// Photo is a validated file ready to be stored.
type Photo struct {
	Name        string
	ContentType string
	Data        []byte
}

// Link is a freshly derived download URL and its QR code.
type Link struct {
	DownloadURL      string `json:"download_url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
	QRCode           string `json:"qr_code"`
}

// Stored is returned after a successful upload.
type Stored struct {
	Filename string `json:"filename"`
	Link
}

// Entry is one item of the recent uploads listing.
type Entry struct {
	Upload
	Link
}

// Service contains the business logic for uploads.
type Service struct {
	store   Store
	backend storage.Backend
	qr      *qr.Generator
	ttl     time.Duration
	log     *zap.Logger
}

// NewService creates a new upload Service. ttl is the validity requested for
// every download link.
func NewService(store Store, backend storage.Backend, gen *qr.Generator, ttl time.Duration, log *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = storage.DefaultTTL
	}
	return &Service{store: store, backend: backend, qr: gen, ttl: ttl, log: log}
}

// Upload stores p, records it, and returns its link. If the row cannot be written
// the stored object is deleted again.
func (s *Service) Upload(ctx context.Context, p Photo, ip string) (*Stored, error) {
	obj, err := s.backend.Upload(ctx, p.Data, p.Name, p.ContentType)
	if err != nil {
		return nil, err
	}

	var ipPtr *string
	if ip != "" {
		ipPtr = &ip
	}
	rec, err := s.store.Create(ctx, NewUpload{
		StorageKey:       obj.Key,
		OriginalFilename: p.Name,
		Filename:         storage.BaseName(obj.Key),
		FileSize:         FormatSize(int64(len(p.Data))),
		IP:               ipPtr,
	})
	if err != nil {
		s.discard(ctx, obj.Key)
		return nil, err
	}

	code, err := s.qr.Generate(obj.URL)
	if err != nil {
		return nil, fmt.Errorf("qr for upload %d: %w", rec.ID, err)
	}

	s.log.Info("upload stored",
		zap.Int64("id", rec.ID),
		zap.String("key", obj.Key),
		zap.String("backend", s.backend.Name()),
		zap.String("size", rec.FileSize),
	)
	return &Stored{
		Filename: rec.Filename,
		Link:     Link{DownloadURL: obj.URL, ExpiresInSeconds: s.expiresIn(), QRCode: code},
	}, nil
}

func (s *Service) discard(ctx context.Context, key string) {
	if err := s.backend.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.log.Error("orphaned object left in storage", zap.String("key", key), zap.Error(err))
		return
	}
	s.log.Warn("removed object after failed insert", zap.String("key", key))
}

// Recent returns the newest uploads with freshly derived links.
func (s *Service) Recent(ctx context.Context) ([]Entry, error) {
	rows, err := s.store.Recent(ctx, RecentLimit)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(rows))
	for _, u := range rows {
		link, err := s.link(ctx, &u)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Upload: u, Link: *link})
	}
	return out, nil
}

// LinkFor re-derives the download URL and QR code for one upload.
func (s *Service) LinkFor(ctx context.Context, id int64) (*Link, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.link(ctx, u)
}

func (s *Service) link(ctx context.Context, u *Upload) (*Link, error) {
	url, err := s.backend.DownloadURL(ctx, u.StorageKey, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("download url for upload %d: %w", u.ID, err)
	}
	code, err := s.qr.Generate(url)
	if err != nil {
		return nil, fmt.Errorf("qr for upload %d: %w", u.ID, err)
	}
	return &Link{DownloadURL: url, ExpiresInSeconds: s.expiresIn(), QRCode: code}, nil
}

func (s *Service) expiresIn() int {
	return int(s.ttl / time.Second)
}

// FormatSize renders n bytes as megabytes with two decimals, e.g. "1.00 MB".
func FormatSize(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/units.MiB)
}
