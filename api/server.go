/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend
  5. httprate:   Per-IP rate limiting

AUTHORIZATION:
  Administrative routes sit behind h.RequireAdmin, which checks the session
  cookie opened by POST /api/session. Everything else is open; employees are
  identified by the bootstrap flow, not by credentials.

SEE ALSO:
  - handlers.go: handler implementations
  - session.go: admin session middleware
  - cmd/server/main.go: server startup
*/
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// NewRouter creates a new router with all routes configured. ratePerMinute
// bounds requests per client IP; zero disables limiting (tests).
func NewRouter(h *Handler, ratePerMinute int) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))
	if ratePerMinute > 0 {
		r.Use(httprate.LimitByIP(ratePerMinute, time.Minute))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", h.Login)
		r.Delete("/session", h.Logout)

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Get("/{id}", h.GetEmployee)
			r.Post("/bootstrap", h.Bootstrap)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireAdmin)
				r.Post("/", h.CreateEmployee)
				r.Put("/{id}", h.UpdateEmployee)
				r.Delete("/{id}", h.DeleteEmployee)
			})
		})

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", h.ListApplications)
			r.Post("/", h.CreateApplication)
			r.Get("/next-code", h.NextApplicationCode)
			r.Put("/{id}", h.UpdateApplicationStatus)
			r.Delete("/{id}", h.DeleteApplication)
		})

		r.Route("/balances", func(r chi.Router) {
			r.Get("/", h.ListBalances)
			r.Get("/history", h.BalanceHistory)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireAdmin)
				r.Post("/reset", h.ResetBalances)
				r.Put("/{employee_id}", h.OverrideBalances)
			})
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireAdmin)
				r.Post("/", h.CreateHoliday)
				r.Delete("/{id}", h.DeleteHoliday)
			})
		})

		r.Get("/approved-leaves", h.ListApprovedLeaves)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Post("/", h.CreateNotification)
			r.Delete("/{id}", h.DeleteNotification)
		})
	})

	return r
}
