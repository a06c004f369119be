package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/taskdeck-be/internal/api/handlers"
	"github.com/isdelr/taskdeck-be/internal/auth"
	"github.com/isdelr/taskdeck-be/internal/config"
	"github.com/isdelr/taskdeck-be/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg *config.Config, tokens *auth.TokenService, userService services.UserServiceProvider, taskService services.TaskServiceProvider) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.MockUserHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authn := auth.NewAuthenticator(tokens, cfg.Mode)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, tokens)
	taskHandler := handlers.NewTaskHandler(taskService)

	r.Get("/", statusHandler(cfg.Mode, "Taskdeck API is running!"))
	r.Get("/health", healthHandler(cfg.Mode))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/sign-up/email", authHandler.SignUp)
			r.Post("/sign-in/email", authHandler.SignIn)
			r.Post("/sign-out", authHandler.SignOut)
			r.With(authn.Middleware()).Get("/me", authHandler.Me)
		})

		r.Route("/{userID}/tasks", func(r chi.Router) {
			r.Use(authn.Middleware())
			r.Use(auth.RequireOwner(cfg.Mode))
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Route("/{taskID}", func(r chi.Router) {
				r.Get("/", taskHandler.Get)
				r.Put("/", taskHandler.Update)
				r.Delete("/", taskHandler.Delete)
				r.Patch("/complete", taskHandler.ToggleComplete)
			})
		})
	})

	return r
}

func statusHandler(mode config.Mode, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message":     message,
			"environment": string(mode),
		})
	}
}

func healthHandler(mode config.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":      "healthy",
			"environment": string(mode),
		})
	}
}
