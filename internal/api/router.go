package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quizboard/quizboard/internal/api/handler"
	"github.com/quizboard/quizboard/internal/api/middleware"
	"github.com/quizboard/quizboard/internal/auth"
	"github.com/quizboard/quizboard/internal/game"
	"github.com/quizboard/quizboard/internal/play"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger       handler.Pinger
	Version        string
	OpenAPISpec    []byte
	AllowedOrigins []string
	PublicBaseURL  string
	MaxUploadBytes int64

	AuthService *auth.Service
	UserRepo    auth.UserRepository
	GameRepo    game.Repository
	Authoring   handler.Authoring
	Sessions    *play.Manager
	Hub         *play.Hub

	// Uploads serves locally stored images under /uploads/. Nil when images
	// live in external object storage.
	Uploads http.Handler
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	if deps.Uploads != nil {
		r.Method(http.MethodGet, "/uploads/*", deps.Uploads)
	}

	if deps.AuthService == nil {
		return r
	}

	authHandler := handler.NewAuthHandler(deps.AuthService)
	gameHandler := handler.NewGameHandler(deps.GameRepo, deps.Authoring)
	categoryHandler := handler.NewCategoryHandler(deps.Authoring)
	questionHandler := handler.NewQuestionHandler(deps.Authoring, deps.MaxUploadBytes)
	shareHandler := handler.NewShareHandler(deps.GameRepo, deps.PublicBaseURL)
	playHandler := handler.NewPlayHandler(deps.Authoring, deps.Sessions, deps.Hub)
	adminHandler := handler.NewAdminHandler(deps.UserRepo, deps.AuthService, deps.GameRepo, deps.Authoring)

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(deps.AuthService))

		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Anonymous visitors may browse and play public games.
		r.Get("/games", gameHandler.List)
		r.Get("/games/{id}", gameHandler.Get)
		r.Get("/games/{id}/qr", shareHandler.QR)
		r.Post("/games/{id}/play", playHandler.Start)

		r.Route("/play/{sid}", func(r chi.Router) {
			r.Get("/", playHandler.Get)
			r.Delete("/", playHandler.End)
			r.Get("/ws", playHandler.Stream)
			r.Post("/teams", playHandler.AddTeam)
			r.Delete("/teams/{tid}", playHandler.RemoveTeam)
			r.Post("/teams/{tid}/score", playHandler.AdjustScore)
			r.Post("/select", playHandler.Select)
			r.Post("/toggle", playHandler.Toggle)
			r.Post("/close", playHandler.Close)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/logout", authHandler.Logout)

			r.Post("/games", gameHandler.Create)
			r.Patch("/games/{id}", gameHandler.Update)
			r.Delete("/games/{id}", gameHandler.Delete)
			r.Post("/games/{id}/categories", categoryHandler.Create)

			r.Patch("/categories/{id}", categoryHandler.Rename)
			r.Delete("/categories/{id}", categoryHandler.Delete)
			r.Post("/categories/{id}/questions", questionHandler.Create)

			r.Patch("/questions/{id}", questionHandler.Update)
			r.Put("/questions/{id}/image", questionHandler.ReplaceImage)
			r.Delete("/questions/{id}", questionHandler.Delete)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin())

			r.Get("/users", adminHandler.ListUsers)
			r.Patch("/users/{id}/role", adminHandler.SetRole)
			r.Get("/games", adminHandler.ListGames)
			r.Patch("/games/{id}", adminHandler.UpdateGame)
		})
	})

	return r
}
