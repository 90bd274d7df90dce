package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/auth"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
)

// SetupRoutes configures all routes. Every protected group runs the same
// authenticate middleware; admin-only routes add RequireRole after it.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if h.health != nil {
		r.Get("/health", h.health.HandleHealth)
		r.Get("/health/live", h.health.HandleLiveness)
		r.Get("/health/ready", h.health.HandleReadiness)
	}

	r.Post("/auth/login", h.Login)

	if h.notifications != nil {
		r.Handle("/ws", h.notifications)
	}

	if h.photosDir != "" {
		r.Handle("/fotos/*", http.StripPrefix("/fotos/", http.FileServer(http.Dir(h.photosDir))))
	}

	r.Route("/visitantes", func(r chi.Router) {
		r.Use(h.authn.Middleware)

		r.Post("/", h.CreateVisitor)
		r.Get("/", h.ListVisitors)
		r.Put("/{id}", h.UpdateVisitor)
		r.Delete("/{id}", h.DeleteVisitor)
		r.With(auth.RequireRole(domain.RoleAdmin)).Patch("/{id}/status", h.UpdateVisitorStatus)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/gfs", h.ListGroups)
		r.Get("/testar-conexao", h.TestConnection)

		r.Route("/usuarios", func(r chi.Router) {
			r.Use(h.authn.Middleware)

			r.Get("/", h.ListAccounts)
			r.Get("/{id}", h.GetAccount)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(domain.RoleAdmin))
				r.Post("/", h.CreateAccount)
				r.Put("/{id}", h.UpdateAccount)
				r.Delete("/{id}", h.DeleteAccount)
			})
		})
	})

	return r
}
