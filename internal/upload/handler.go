package upload

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/photodrop/service/internal/middleware"
	"github.com/photodrop/service/internal/response"
)

// Handler holds HTTP handlers for upload endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new upload Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// UploadPhoto godoc
//
//	@Summary		Upload a photo
//	@Description	Stores one PNG (max 5 MiB) and returns a download link with its QR code.
//	@Tags			uploads
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			photo	formData	file	true	"PNG image"
//	@Success		200		{object}	Stored
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		429		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/api/upload-photo [post]
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	photo, err := readPhoto(w, r)
	if err != nil {
		var rej *rejection
		if errors.As(err, &rej) {
			response.BadRequest(w, rej.message, rej.code)
			return
		}
		response.BadRequest(w, errNoFile.message, errNoFile.code)
		return
	}

	stored, err := h.svc.Upload(r.Context(), *photo, middleware.ClientIP(r))
	if err != nil {
		h.log.Error("upload failed", zap.String("original_name", photo.Name), zap.Error(err))
		response.InternalError(w, "Failed to upload file", response.CodeUploadError)
		return
	}
	response.OK(w, stored)
}

// List godoc
//
//	@Summary		Recent uploads
//	@Description	Returns the 10 newest uploads, each with a freshly signed link and QR code.
//	@Tags			uploads
//	@Produce		json
//	@Success		200	{array}		Entry
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/api/uploads [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Recent(r.Context())
	if err != nil {
		h.log.Error("list uploads failed", zap.Error(err))
		response.InternalError(w, "Failed to list uploads", response.CodeInternal)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	response.OK(w, entries)
}

// QR godoc
//
//	@Summary		QR code for an upload
//	@Description	Re-derives the download link and QR code for one upload.
//	@Tags			uploads
//	@Produce		json
//	@Param			id	path		int	true	"Upload ID"
//	@Success		200	{object}	Link
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/api/uploads/{id}/qr [get]
func (h *Handler) QR(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.NotFound(w, "Upload not found")
		return
	}

	link, err := h.svc.LinkFor(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Upload not found")
			return
		}
		h.log.Error("qr lookup failed", zap.Int64("id", id), zap.Error(err))
		response.InternalError(w, "Failed to generate QR code", response.CodeInternal)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	response.OK(w, link)
}
