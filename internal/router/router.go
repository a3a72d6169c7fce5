package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"psychinsights-backend/internal/handlers"
	"psychinsights-backend/internal/middleware"
)

func New(
	functionsHandler *handlers.FunctionsHandler,
	classHandler *handlers.ClassHandler,
	studentHandler *handlers.StudentHandler,
	labHandler *handlers.LabHandler,
	functionLimiter *middleware.RateLimiter,
	allowOrigin string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(allowOrigin))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// ──── Analysis functions ────
	r.Route("/functions/v1", func(r chi.Router) {
		if functionLimiter != nil {
			r.Use(functionLimiter.Middleware)
		}
		r.Post("/{kind}", functionsHandler.Invoke)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireDevice(middleware.WriteAPIError))

		// ──── Class Routes ────
		r.Route("/classes", func(r chi.Router) {
			r.Get("/", classHandler.List)
			r.Post("/", classHandler.Create)
			r.Get("/{id}", classHandler.Get)
			r.Put("/{id}/summary", classHandler.UpdateSummary)
			r.Delete("/{id}", classHandler.Delete)
			r.Get("/{id}/students", classHandler.ListStudents)
			r.Post("/{id}/students", classHandler.AddStudent)
		})

		// ──── Student Routes ────
		r.Route("/students", func(r chi.Router) {
			r.Get("/{id}", studentHandler.Get)
			r.Put("/{id}/notes", studentHandler.UpdateNotes)
			r.Put("/{id}/analysis", studentHandler.SaveAnalysis)
			r.Delete("/{id}", studentHandler.Delete)
		})

		// ──── Lab Routes ────
		r.Route("/lab", func(r chi.Router) {
			r.Get("/state", labHandler.Get)
			r.Put("/state", labHandler.Put)
		})
	})

	return r
}
