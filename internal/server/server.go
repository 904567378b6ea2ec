package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Tomlord1122/todo-api/internal/config"
	"github.com/Tomlord1122/todo-api/internal/database"
	"github.com/Tomlord1122/todo-api/internal/metrics"
	"github.com/Tomlord1122/todo-api/internal/service"
)

// Server holds the HTTP handlers' dependencies.
type Server struct {
	todos   service.Provider
	db      database.Service
	metrics *metrics.Metrics
	log     *slog.Logger
}

// New builds a Server. m may be nil, in which case /metrics is not mounted.
func New(todos service.Provider, db database.Service, m *metrics.Metrics, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{todos: todos, db: db, metrics: m, log: log}
}

// NewServer returns an http.Server listening on cfg.Port with the API routes.
func NewServer(cfg config.HTTPConfig, s *Server) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  cfg.IdleTimeout.Std(),
		ReadTimeout:  cfg.ReadTimeout.Std(),
		WriteTimeout: cfg.WriteTimeout.Std(),
		ErrorLog:     slog.NewLogLogger(s.log.Handler(), slog.LevelError),
	}
}
