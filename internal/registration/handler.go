package registration

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/photodrop/service/internal/middleware"
	"github.com/photodrop/service/internal/response"
)

const maxBodyBytes = 64 << 10

var csvHeader = []string{"id", "name", "email", "phone", "created_at", "ip", "user_agent"}

// Handler holds HTTP handlers for registration endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new registration Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// SuccessResponse is returned after a registration is stored.
type SuccessResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	UserID      int64  `json:"user_id"`
	RedirectURL string `json:"redirect_url"`
}

// Register godoc
//
//	@Summary		Register
//	@Description	Stores name, email and phone. Duplicate emails are accepted.
//	@Tags			registration
//	@Accept			json
//	@Produce		json
//	@Param			body	body		Input	true	"Registration details"
//	@Success		200		{object}	SuccessResponse
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		429		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/api/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		response.Invalid(w, "Invalid registration data", []FieldError{
			{Field: "body", Message: "Request body must be a JSON object"},
		})
		return
	}

	id, err := h.svc.Register(r.Context(), in, middleware.ClientIP(r), r.UserAgent())
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			response.Invalid(w, "Invalid registration data", verr.Fields)
			return
		}
		h.log.Error("registration failed", zap.Error(err))
		response.InternalError(w, "Registration failed", response.CodeRegistrationFail)
		return
	}

	response.OK(w, SuccessResponse{
		Success:     true,
		Message:     "Registration successful",
		UserID:      id,
		RedirectURL: "/confirmation",
	})
}

// ExportCSV godoc
//
//	@Summary		Export registrations
//	@Description	Streams every registration as CSV in creation order.
//	@Tags			registration
//	@Produce		text/csv
//	@Param			key	query		string	true	"Report secret"
//	@Success		200	{string}	string	"CSV document"
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		429	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/report.csv [get]
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var (
		cw   *csv.Writer
		rows int
	)
	// Headers are committed on the first row, so a failure before any data can
	// still be answered with a JSON error.
	begin := func() error {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="registrations.csv"`)
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		cw = csv.NewWriter(w)
		return cw.Write(csvHeader)
	}

	err := h.svc.Export(r.Context(), func(reg Registration) error {
		if cw == nil {
			if err := begin(); err != nil {
				return err
			}
		}
		rows++
		return cw.Write(record(reg))
	})
	if err != nil {
		if cw == nil {
			h.log.Error("csv export failed", zap.Error(err))
			response.InternalError(w, "Failed to export registrations", response.CodeInternal)
			return
		}
		h.log.Error("csv export aborted mid-stream", zap.Int("rows_written", rows), zap.Error(err))
		cw.Flush()
		return
	}

	if cw == nil {
		if err := begin(); err != nil {
			h.log.Error("csv export write failed", zap.Error(err))
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.log.Error("csv export write failed", zap.Int("rows_written", rows), zap.Error(err))
	}
}

func record(reg Registration) []string {
	return []string{
		strconv.FormatInt(reg.ID, 10),
		reg.Name,
		reg.Email,
		reg.Phone,
		reg.CreatedAt.UTC().Format(time.RFC3339),
		deref(reg.IP),
		deref(reg.UserAgent),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
