package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindfoldhq/mindfold/internal/api"
	"github.com/mindfoldhq/mindfold/internal/api/handlers"
	"github.com/mindfoldhq/mindfold/internal/api/middleware"
)

type RouterConfig struct {
	AuthValidator    middleware.AuthValidator
	DomainHandler    *handlers.DomainHandler
	KnowledgeHandler *handlers.KnowledgeHandler
	RoutingHandler   *handlers.RoutingHandler
	ActionHandler    *handlers.ActionHandler
	AuthHandler      *handlers.AuthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 48 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Route("/domains", func(r chi.Router) {
			r.Post("/", cfg.DomainHandler.Create)
			r.Get("/", cfg.DomainHandler.List)
			r.Get("/{id}", cfg.DomainHandler.Get)
			r.Put("/{id}", cfg.DomainHandler.Update)
			r.Delete("/{id}", cfg.DomainHandler.Delete)
		})

		r.Route("/knowledge", func(r chi.Router) {
			r.Post("/", cfg.KnowledgeHandler.Ingest)
			r.Get("/", cfg.KnowledgeHandler.ListByDomain)
			r.Get("/{id}", cfg.KnowledgeHandler.Get)
			r.Delete("/{id}", cfg.KnowledgeHandler.Delete)
			r.Post("/{id}/attach", cfg.KnowledgeHandler.AttachSource)
		})

		r.Route("/route", func(r chi.Router) {
			r.Post("/", cfg.RoutingHandler.Route)
			r.Post("/preview", cfg.RoutingHandler.Preview)
			r.Get("/history", cfg.RoutingHandler.History)
			r.Get("/{id}", cfg.RoutingHandler.Get)
			r.Post("/{id}/rating", cfg.RoutingHandler.Rate)
		})

		r.Route("/actions", func(r chi.Router) {
			r.Post("/", cfg.ActionHandler.Queue)
			r.Get("/", cfg.ActionHandler.History)
			r.Post("/execute", cfg.ActionHandler.Execute)
			r.Get("/{id}", cfg.ActionHandler.Get)
			r.Post("/{id}/cancel", cfg.ActionHandler.Cancel)
		})

		r.Post("/apikeys", cfg.AuthHandler.CreateAPIKey)
		r.Get("/apikeys", cfg.AuthHandler.ListAPIKeys)
		r.Delete("/apikeys/{id}", cfg.AuthHandler.RevokeAPIKey)
	})

	r.Post("/owners", cfg.AuthHandler.CreateOwner)

	return r
}
