package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/photodrop/service/internal/qr"
	"github.com/photodrop/service/internal/ratelimit"
	"github.com/photodrop/service/internal/registration"
	"github.com/photodrop/service/internal/storage"
	"github.com/photodrop/service/internal/upload"
	"github.com/photodrop/service/internal/video"
)

type uploadStore struct {
	mu   sync.Mutex
	rows []upload.Upload
}

func (s *uploadStore) Create(_ context.Context, in upload.NewUpload) (*upload.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := upload.Upload{
		ID: int64(len(s.rows) + 1), StorageKey: in.StorageKey, OriginalFilename: in.OriginalFilename,
		Filename: in.Filename, FileSize: in.FileSize, UploadTime: time.Now(), IP: in.IP,
	}
	s.rows = append(s.rows, u)
	return &u, nil
}

func (s *uploadStore) Recent(context.Context, int) ([]upload.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]upload.Upload(nil), s.rows...), nil
}

func (s *uploadStore) GetByID(_ context.Context, id int64) (*upload.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.rows {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, upload.ErrNotFound
}

type registrationStore struct {
	mu   sync.Mutex
	rows []registration.Registration
}

func (s *registrationStore) Create(_ context.Context, in registration.NewRegistration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := int64(len(s.rows) + 1)
	s.rows = append(s.rows, registration.Registration{
		ID: id, Name: in.Name, Email: in.Email, Phone: in.Phone,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, int(id), 0, time.UTC), IP: in.IP, UserAgent: in.UserAgent,
	})
	return id, nil
}

func (s *registrationStore) Each(_ context.Context, fn func(registration.Registration) error) error {
	s.mu.Lock()
	rows := append([]registration.Registration(nil), s.rows...)
	s.mu.Unlock()
	for _, r := range rows {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, *uploadStore, *registrationStore) {
	t.Helper()
	log := zap.NewNop()
	local, err := storage.NewLocalBackend(t.TempDir(), "http://localhost:5000", time.Hour)
	require.NoError(t, err)

	us := &uploadStore{}
	rs := &registrationStore{}
	h := newRouter(routerDeps{
		log:          log,
		limiter:      ratelimit.NewMemoryLimiter(),
		reportSecret: "s3cret",
		uploadDir:    local.Dir(),
		registration: registration.NewHandler(registration.NewService(rs), log),
		upload: upload.NewHandler(
			upload.NewService(us, local, qr.NewGenerator(qr.DefaultOptions()), time.Hour, log), log),
		video: video.NewHandler("https://cdn.example.com/demo.mp4"),
	})
	return h, us, rs
}

func photoRequest(t *testing.T, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="photo"; filename="a.png"`)
	h.Set("Content-Type", "image/png")
	w, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.RemoteAddr = "203.0.113.5:40000"
	return req
}

func pngBytes(n int) []byte {
	b := make([]byte, n)
	copy(b, "\x89PNG\r\n\x1a\n")
	return b
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h, _, _ := newTestRouter(t)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_EleventhUploadIsRateLimited(t *testing.T) {
	h, us, _ := newTestRouter(t)

	for i := 0; i < uploadLimit; i++ {
		rec := serve(h, photoRequest(t, pngBytes(256)))
		require.Equal(t, http.StatusOK, rec.Code, "upload %d: %s", i+1, rec.Body.String())
	}

	rec := serve(h, photoRequest(t, pngBytes(256)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"RATE_LIMITED"`)
	assert.Len(t, us.rows, uploadLimit)
}

func TestRouter_ServesLocalUploads(t *testing.T) {
	h, _, _ := newTestRouter(t)
	data := pngBytes(512)

	rec := serve(h, photoRequest(t, data))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		DownloadURL string `json:"download_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	u, err := url.Parse(body.DownloadURL)
	require.NoError(t, err)

	rec = serve(h, httptest.NewRequest(http.MethodGet, u.Path, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, data, rec.Body.Bytes())

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/uploads/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ReportCSV(t *testing.T) {
	h, _, rs := newTestRouter(t)

	for _, name := range []string{"Ada", "Lin"} {
		req := httptest.NewRequest(http.MethodPost, "/api/register",
			bytes.NewBufferString(`{"name":"`+name+`","email":"`+name+`@example.com","phone":"+1"}`))
		rec := serve(h, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	require.Len(t, rs.rows, 2)

	report := func(target, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.RemoteAddr = ip + ":1000"
		return serve(h, req)
	}

	rec := report("/report.csv?key=wrong", "198.51.100.1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Ada")

	rec = report("/report.csv?key=s3cret", "198.51.100.2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id,name,email,phone,created_at,ip,user_agent\n"+
		"1,Ada,Ada@example.com,+1,2026-01-01T00:00:01Z,192.0.2.1,\n"+
		"2,Lin,Lin@example.com,+1,2026-01-01T00:00:02Z,192.0.2.1,\n", rec.Body.String())

	rec = report("/report.csv?key=s3cret", "198.51.100.2")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = report("/report.csv?key=s3cret", "198.51.100.2")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRouter_RegisterRateLimit(t *testing.T) {
	h, _, _ := newTestRouter(t)
	for i := 0; i < registerLimit; i++ {
		rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/register",
			bytes.NewBufferString(`{"name":"A","email":"a@example.com","phone":"1"}`)))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/register",
		bytes.NewBufferString(`{"name":"A","email":"a@example.com","phone":"1"}`)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRouter_Video(t *testing.T) {
	h, _, _ := newTestRouter(t)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/video", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"expires_in_seconds":86400`)
}
