package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/vardar-pos/api/internal/config"
	"github.com/vardar-pos/api/internal/handler"
	"github.com/vardar-pos/api/internal/ws"
)

// Pinger reports backend connectivity for the health endpoint. Satisfied by
// *pgxpool.Pool; nil when the server runs on in-memory collaborators only.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, svc handler.OrderServicer, gate handler.Authorizer, hub *ws.Hub, db Pinger, log *logrus.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				log.WithError(err).Warn("health check: database unreachable")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket route for order board terminals
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, log, w, r)
	})

	orderHandler := handler.NewOrderHandler(svc, hub, log)
	orderHandler.RegisterRoutes(r)

	adminHandler := handler.NewAdminHandler(gate, log)
	adminHandler.RegisterRoutes(r)

	log.Info("router initialized with all handlers")
	return r
}
