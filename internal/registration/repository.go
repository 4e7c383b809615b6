// Package registration captures sign-up details and exports them as CSV.
package registration

import (
	"context"
	"fmt"
	"time"

	"github.com/photodrop/service/internal/db"
)

// Registration is one stored sign-up. Rows are append-only.
type Registration struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	IP        *string   `json:"ip,omitempty"`
	UserAgent *string   `json:"user_agent,omitempty"`
}

// NewRegistration carries the validated fields of a sign-up plus request metadata.
type NewRegistration struct {
	Name      string
	Email     string
	Phone     string
	IP        *string
	UserAgent *string
}

// Repository handles all registration database operations.
type Repository struct {
	db db.DBTX
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db db.DBTX) *Repository {
	return &Repository{db: db}
}

// Create inserts a registration and returns its id.
func (r *Repository) Create(ctx context.Context, in NewRegistration) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO registrations (name, email, phone, ip, user_agent)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		in.Name, in.Email, in.Phone, in.IP, in.UserAgent,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create registration: %w", err)
	}
	return id, nil
}

// Each streams every registration in creation order to fn. Iteration stops at the
// first error returned by fn, and that error is returned unchanged.
func (r *Repository) Each(ctx context.Context, fn func(Registration) error) error {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, phone, created_at, ip, user_agent
		 FROM registrations
		 ORDER BY created_at, id`)
	if err != nil {
		return fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var reg Registration
		if err := rows.Scan(&reg.ID, &reg.Name, &reg.Email, &reg.Phone, &reg.CreatedAt, &reg.IP, &reg.UserAgent); err != nil {
			return fmt.Errorf("scan registration: %w", err)
		}
		if err := fn(reg); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate registrations: %w", err)
	}
	return nil
}
