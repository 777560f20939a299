package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Router bundles the handlers served by the API
type Router struct {
	Middleware  *Middleware
	Auth        *AuthHandler
	Members     *MemberHandler
	Workouts    *WorkoutHandler
	Completions *CompletionHandler
	DB          Pinger
	Logger      *slog.Logger
}

// Handler builds the chi route tree
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(rt.Middleware.Logging)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", rt.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(rt.Middleware.OptionalAuth).Post("/register", rt.Auth.Register)
			r.Post("/login", rt.Auth.Login)
			r.Post("/qr-login", rt.Auth.QRLogin)
			r.With(rt.Middleware.RequireAuth).Post("/logout", rt.Auth.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.Middleware.RequireAuth)

			r.With(rt.Middleware.RequireStaff).Post("/members", rt.Members.Register)
			r.Get("/members/{id}", rt.Members.Get)
			r.With(rt.Middleware.RequireStaff).Post("/members/{id}/payments", rt.Members.RecordPayment)
			r.With(rt.Middleware.RequireStaff).Put("/members/{id}/regular-payment", rt.Members.SetRegularPayment)
			r.Put("/members/{id}/photo", rt.Members.SetPhoto)

			r.With(rt.Middleware.RequireStaff).Post("/workout-sessions", rt.Workouts.Create)
			r.Get("/workout-sessions", rt.Workouts.List)
			r.Get("/workout-sessions/{id}", rt.Workouts.Get)

			r.Post("/completions", rt.Completions.Record)
			r.Get("/clients/{id}/completions", rt.Completions.List)
		})
	})

	return r
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := rt.DB.PingContext(ctx); err != nil {
		respondWithError(rt.Logger, w, http.StatusServiceUnavailable, "Database unavailable", "health check failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
