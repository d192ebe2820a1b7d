package app

import (
	"log"
	"net/http"
	"time"

	"cadetquiz/internal/app/apiresp"
	"cadetquiz/internal/exam"
	"cadetquiz/internal/report"
	"cadetquiz/internal/visitor"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg Config, svc *Services) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(visitor.Middleware(cfg.IsProduction()))
	r.Use(svc.Metrics.Middleware)

	examHandler := exam.NewHandler(svc.Exam)
	reportHandler := report.NewHandler(svc.Report)
	startLimiter := NewIPRateLimiter(cfg.StartRateLimitPerMin, time.Minute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", svc.Metrics.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(CSRFMiddleware(cfg.CSRFEnforced, cfg.IsProduction()))

		api.Get("/catalog", func(w http.ResponseWriter, r *http.Request) {
			cats, err := svc.Catalog.List(r.Context())
			if err != nil {
				log.Printf("list catalog: %v", err)
				apiresp.WriteError(w, r, http.StatusInternalServerError, "failed to list tests")
				return
			}
			apiresp.WriteOK(w, r, http.StatusOK, cats)
		})

		api.With(RateLimitMiddleware(startLimiter)).Post("/sessions", examHandler.Start)
		api.Get("/sessions/{id}", examHandler.Get)
		api.Post("/sessions/{id}/events", examHandler.Event)
		api.Post("/sessions/{id}/submit", examHandler.Submit)
		api.Post("/sessions/{id}/restart", examHandler.Restart)

		api.Get("/results", reportHandler.Results)
		api.Get("/results/export", reportHandler.Export)
		api.Post("/results/share", reportHandler.Share)
		api.Get("/shared", reportHandler.Shared)
	})

	if svc.TestFiles != nil {
		r.Handle("/test/*", testFileServer(svc.TestFiles))
	}

	return r
}
