package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	appMiddleware "github.com/photodrop/service/internal/middleware"
	"github.com/photodrop/service/internal/ratelimit"
	"github.com/photodrop/service/internal/registration"
	"github.com/photodrop/service/internal/upload"
	"github.com/photodrop/service/internal/video"
)

// Per-client request budgets.
const (
	rateWindow    = time.Minute
	registerLimit = 5
	uploadLimit   = 10
	reportLimit   = 2
)

type routerDeps struct {
	log          *zap.Logger
	limiter      ratelimit.Limiter
	reportSecret string
	// uploadDir is served under /uploads/ when the local backend is active.
	uploadDir string

	registration *registration.Handler
	upload       *upload.Handler
	video        *video.Handler
}

func newRouter(d routerDeps) http.Handler {
	limit := func(name string, n int) func(http.Handler) http.Handler {
		return appMiddleware.RateLimit(d.limiter, name, n, rateWindow, d.log)
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(d.log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition", "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		r.With(limit("register", registerLimit)).Post("/register", d.registration.Register)
		r.With(limit("upload", uploadLimit)).Post("/upload-photo", d.upload.UploadPhoto)
		r.Get("/uploads", d.upload.List)
		r.Get("/uploads/{id}/qr", d.upload.QR)
		r.Get("/video", d.video.Get)
	})

	r.With(
		limit("report", reportLimit),
		appMiddleware.RequireSecret(d.reportSecret),
	).Get("/report.csv", d.registration.ExportCSV)

	if d.uploadDir != "" {
		fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.uploadDir)))
		r.Get("/uploads/*", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			fs.ServeHTTP(w, r)
		})
	}

	return r
}
