// Package video serves the static demo video link.
package video

import (
	"net/http"
	"time"

	"github.com/photodrop/service/internal/response"
)

// linkValidity is the advisory lifetime reported for the demo link.
const linkValidity = 24 * time.Hour

// Link is the /api/video payload.
type Link struct {
	VideoURL         string `json:"video_url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// Handler serves the configured video URL.
type Handler struct {
	url string
}

// NewHandler creates a new video Handler.
func NewHandler(url string) *Handler {
	return &Handler{url: url}
}

// Get godoc
//
//	@Summary	Demo video link
//	@Tags		video
//	@Produce	json
//	@Success	200	{object}	Link
//	@Router		/api/video [get]
func (h *Handler) Get(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, Link{VideoURL: h.url, ExpiresInSeconds: int(linkValidity / time.Second)})
}
