package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rpineda/aichat-be/internal/api/handlers"
	"github.com/rpineda/aichat-be/internal/auth"
	"github.com/rpineda/aichat-be/internal/config"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg *config.Config, tokens *auth.TokenManager, userHandler *handlers.UserHandler, chatHandler *handlers.ChatHandler) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	// CORS with credentials so the browser sends the session cookie
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireAuth := tokens.Middleware()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/user", func(r chi.Router) {
		r.Post("/signup", userHandler.Signup)
		r.Post("/login", userHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", userHandler.List)
			r.Get("/auth-status", userHandler.AuthStatus)
			r.Get("/logout", userHandler.Logout)
		})
	})

	r.Route("/chat", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/new", chatHandler.New)
		r.Get("/all-chats", chatHandler.AllChats)
		r.Delete("/delete", chatHandler.Delete)
	})

	return r
}
