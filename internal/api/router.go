package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/inihikam/ngobrol/internal/api/middleware"
	"github.com/inihikam/ngobrol/internal/handlers"
)

// NewRouter creates and configures the HTTP router. Every route under
// the authenticated group passes through the auth gateway before its
// handler runs.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, auth *middleware.AuthMiddleware) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)

	// Authenticated routes (require a valid bearer token)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Get("/api/auth/me", h.Me)
		r.Post("/api/auth/logout", h.Logout)
		r.Put("/api/users/me", h.UpdateProfile)

		r.Get("/api/rooms", h.ListRooms)
		r.Post("/api/rooms", h.CreateRoom)
		r.Get("/api/rooms/{id}", h.GetRoom)
		r.Put("/api/rooms/{id}", h.UpdateRoom)
		r.Delete("/api/rooms/{id}", h.DeleteRoom)
		r.Post("/api/rooms/{id}/join", h.JoinRoom)
		r.Post("/api/rooms/{id}/leave", h.LeaveRoom)
		r.Get("/api/rooms/{id}/members", h.RoomMembers)
	})

	return r
}
