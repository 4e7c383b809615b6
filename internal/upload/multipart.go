package upload

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/docker/go-units"
	"github.com/gabriel-vasile/mimetype"

	"github.com/photodrop/service/internal/response"
)

const (
	// FieldName is the only multipart field that may carry a file.
	FieldName = "photo"
	// MaxFileSize caps a single photo.
	MaxFileSize = 5 * units.MiB
	// AllowedType is the only accepted media type.
	AllowedType = "image/png"

	// maxRequestSize leaves room for multipart framing and small text fields.
	maxRequestSize = MaxFileSize + units.MiB
)

// rejection is a client error detected while reading the form.
type rejection struct {
	code    string
	message string
}

func (r *rejection) Error() string { return r.message }

var (
	errNoFile         = &rejection{response.CodeNoFile, "No file uploaded"}
	errUnexpectedFile = &rejection{response.CodeUnexpectedFile, "Unexpected file field"}
	errInvalidType    = &rejection{response.CodeInvalidFileType, "Only PNG files are allowed"}
	errTooLarge       = &rejection{response.CodeFileTooLarge, "File too large. Maximum size is 5MB"}
)

// readPhoto streams the multipart body and returns the single PNG carried in
// the photo field. Checks run in order: field name, declared type, size, then
// the sniffed content.
func readPhoto(w http.ResponseWriter, r *http.Request) (*Photo, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, errNoFile
	}

	var photo *Photo
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, classifyReadErr(err)
		}

		if part.FileName() == "" {
			if _, err := io.Copy(io.Discard, part); err != nil {
				return nil, classifyReadErr(err)
			}
			continue
		}
		if part.FormName() != FieldName || photo != nil {
			return nil, errUnexpectedFile
		}
		if !isPNGHeader(part.Header.Get("Content-Type")) {
			return nil, errInvalidType
		}

		data, err := io.ReadAll(io.LimitReader(part, MaxFileSize+1))
		if err != nil {
			return nil, classifyReadErr(err)
		}
		if len(data) > MaxFileSize {
			return nil, errTooLarge
		}
		if !mimetype.Detect(data).Is(AllowedType) {
			return nil, errInvalidType
		}
		photo = &Photo{Name: part.FileName(), ContentType: AllowedType, Data: data}
	}

	if photo == nil {
		return nil, errNoFile
	}
	return photo, nil
}

func classifyReadErr(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return errTooLarge
	}
	return errNoFile
}

func isPNGHeader(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && strings.EqualFold(mediaType, AllowedType)
}
