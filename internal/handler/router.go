package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/optimistic-todo/internal/service"
)

type RouterConfig struct {
	Latency  time.Duration
	DocsPath string
}

// NewRouter wires the REST surface consumed by the todo client.
func NewRouter(srv *service.ItemService, cfg RouterConfig, logger *zap.Logger) http.Handler {
	items := NewItemHandler(srv, logger)
	metrics := NewMetrics()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	if cfg.DocsPath != "" {
		r.Method(http.MethodGet, "/docs", NewDocsHandler(cfg.DocsPath, logger))
	}

	r.Group(func(r chi.Router) {
		r.Use(Latency(cfg.Latency, logger))

		r.Route("/items", func(r chi.Router) {
			r.Get("/", items.List)
			r.Post("/", items.Create)
			r.Get("/active", items.Active)
			r.Get("/completed", items.Completed)
			r.Get("/{id}", items.Get)
			r.Patch("/{id}", items.Update)
			r.Delete("/{id}", items.Delete)
		})

		r.Get("/categories", items.Categories)
		r.Get("/priorities", items.Priorities)
		r.Get("/stats", items.Stats)
	})

	return r
}
