package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"testgen-backend/internal/handlers"
	"testgen-backend/internal/middleware"
)

func New(
	systemHandler *handlers.SystemHandler,
	catalogHandler *handlers.CatalogHandler,
	testBankHandler *handlers.TestBankHandler,
	filesHandler *handlers.FilesHandler,
	frontendURL string,
	rateLimitPerMin int,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Generation is expensive; limit it per IP.
	generateLimiter := middleware.NewRateLimiter(rateLimitPerMin, time.Minute)

	r.Get("/", systemHandler.Root)
	r.Get("/health", systemHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/titles/", catalogHandler.Titles)
		r.Get("/chapters/", catalogHandler.Chapters)
		r.Get("/files/", filesHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(generateLimiter.Middleware)
			r.Post("/test-bank/generate/", testBankHandler.Generate)
		})
	})

	return r
}
