package registration

import (
	"context"
	"fmt"
	"strings"

	emailverifier "github.com/AfterShip/email-verifier"
)

// Input is the raw registration request.
type Input struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return "invalid registration: " + strings.Join(names, ", ")
}

// Store is the persistence used by Service.
type Store interface {
	Create(ctx context.Context, in NewRegistration) (int64, error)
	Each(ctx context.Context, fn func(Registration) error) error
}

// Service contains business logic for registrations.
type Service struct {
	store    Store
	verifier *emailverifier.Verifier
}

// NewService creates a new registration Service.
func NewService(store Store) *Service {
	return &Service{store: store, verifier: emailverifier.NewVerifier()}
}

// Validate trims in and reports every missing or malformed field.
func (s *Service) Validate(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	var fields []FieldError
	if in.Name == "" {
		fields = append(fields, FieldError{Field: "name", Message: "Name is required"})
	}
	switch {
	case in.Email == "":
		fields = append(fields, FieldError{Field: "email", Message: "Email is required"})
	case !s.verifier.ParseAddress(in.Email).Valid:
		fields = append(fields, FieldError{Field: "email", Message: "Email must be a valid email address"})
	}
	if in.Phone == "" {
		fields = append(fields, FieldError{Field: "phone", Message: "Phone is required"})
	}

	if len(fields) > 0 {
		return in, &ValidationError{Fields: fields}
	}
	return in, nil
}

// Register validates in and stores it with the optional request metadata.
// Duplicate emails are accepted.
func (s *Service) Register(ctx context.Context, in Input, ip, userAgent string) (int64, error) {
	in, err := s.Validate(in)
	if err != nil {
		return 0, err
	}

	id, err := s.store.Create(ctx, NewRegistration{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		IP:        optional(ip),
		UserAgent: optional(userAgent),
	})
	if err != nil {
		return 0, fmt.Errorf("register: %w", err)
	}
	return id, nil
}

// Export streams all registrations in creation order.
func (s *Service) Export(ctx context.Context, fn func(Registration) error) error {
	return s.store.Each(ctx, fn)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
