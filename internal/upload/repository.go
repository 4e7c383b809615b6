// Package upload stores PNG photos and hands out download links with QR codes.
package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/photodrop/service/internal/db"
)

// ErrNotFound is returned when an upload does not exist.
var ErrNotFound = errors.New("upload not found")

// Upload is one stored photo.
type Upload struct {
	ID               int64     `json:"id"`
	StorageKey       string    `json:"-"`
	OriginalFilename string    `json:"original_filename"`
	Filename         string    `json:"filename"`
	FileSize         string    `json:"file_size"`
	UploadTime       time.Time `json:"upload_time"`
	IP               *string   `json:"-"`
}

// NewUpload holds the fields written when a photo is stored.
type NewUpload struct {
	StorageKey       string
	OriginalFilename string
	Filename         string
	FileSize         string
	IP               *string
}

const uploadColumns = `id, storage_key, original_filename, filename, file_size, upload_time, ip`

// Repository handles all upload database operations.
type Repository struct {
	db db.DBTX
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db db.DBTX) *Repository {
	return &Repository{db: db}
}

// Create inserts an upload row and returns the stored record.
func (r *Repository) Create(ctx context.Context, in NewUpload) (*Upload, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO uploads (storage_key, original_filename, filename, file_size, ip)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+uploadColumns,
		in.StorageKey, in.OriginalFilename, in.Filename, in.FileSize, in.IP,
	)
	u, err := scanUpload(row)
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	return u, nil
}

// Recent returns up to limit uploads, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Upload, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+uploadColumns+`
		 FROM uploads
		 ORDER BY upload_time DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var out []Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return out, nil
}

// GetByID fetches an upload by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Upload, error) {
	u, err := scanUpload(r.db.QueryRow(ctx,
		`SELECT `+uploadColumns+` FROM uploads WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get upload by id: %w", err)
	}
	return u, nil
}

func scanUpload(row pgx.Row) (*Upload, error) {
	u := &Upload{}
	err := row.Scan(&u.ID, &u.StorageKey, &u.OriginalFilename, &u.Filename, &u.FileSize, &u.UploadTime, &u.IP)
	if err != nil {
		return nil, err
	}
	return u, nil
}
