package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/internal/handler"
	"github.com/ezienecker/discogs-ctl/internal/logger"
	"github.com/ezienecker/discogs-ctl/internal/middleware"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler          *handler.Handler
	InventoryHandler *handler.InventoryHandler
	AdminHandler     *handler.AdminHandler
	Logger           *zap.Logger
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	log := logger.OrNop(cfg.Logger)

	r := chi.NewRouter()

	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.InventoryHandler != nil {
			r.Route("/inventory/{kind}/{owner}", func(r chi.Router) {
				r.Get("/", cfg.InventoryHandler.GetInventory)
				r.Post("/refresh", cfg.InventoryHandler.Refresh)
				r.Get("/release-ids", cfg.InventoryHandler.ReleaseIDs)
			})
			r.Get("/wantlist/{owner}/sellers", cfg.InventoryHandler.WantlistSellers)
			r.Post("/marketplace/sellers", cfg.InventoryHandler.MarketplaceSellers)
		}

		if cfg.AdminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Get("/stats", cfg.AdminHandler.GetStats)
				r.Post("/sweep", cfg.AdminHandler.Sweep)
			})
		}
	})

	return r
}
