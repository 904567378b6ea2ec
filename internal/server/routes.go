package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.log.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(securityHeaders)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Request-Id"},
		ExposedHeaders:   []string{"Link", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.healthHandler)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/test", func(r chi.Router) {
		r.Get("/", s.pingHandler)
		r.Get("/database", s.databaseCheckHandler)
		r.Get("/service", s.serviceCheckHandler)
	})

	r.Route("/api/todos", func(r chi.Router) {
		r.Get("/", s.getAllTodosHandler)
		r.Post("/", s.createTodoHandler)
		r.Get("/completed", s.getCompletedTodosHandler)
		r.Get("/pending", s.getPendingTodosHandler)
		r.Get("/search", s.searchTodosHandler)
		r.Get("/stats", s.statsHandler)
		r.Get("/priority/{priority}", s.getTodosByPriorityHandler)
		r.Get("/{id}", s.getTodoByIDHandler)
		r.Put("/{id}", s.updateTodoHandler)
		r.Delete("/{id}", s.deleteTodoHandler)
	})

	return r
}

// securityHeaders disables caching and framing for every API response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", time.Now().UTC().Format(http.TimeFormat))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := s.db.Health()
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}

func (s *Server) pingHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"message":   "API is working!",
		"timestamp": time.Now(),
	})
}

func (s *Server) databaseCheckHandler(w http.ResponseWriter, r *http.Request) {
	stats := s.db.Health()
	if stats["status"] == "down" {
		s.log.ErrorContext(r.Context(), "database check failed", "error", stats["error"])
		respondWithError(w, http.StatusInternalServerError, "Database test failed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"message":   "Database connection is healthy!",
		"dialect":   s.db.GetDB().Dialector.Name(),
		"timestamp": time.Now(),
	})
}

func (s *Server) serviceCheckHandler(w http.ResponseWriter, r *http.Request) {
	svc := s.todos()
	if _, err := svc.GetPendingCount(r.Context()); err != nil {
		s.log.ErrorContext(r.Context(), "service check failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Service test failed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"message":   "TodoService created successfully!",
		"timestamp": time.Now(),
	})
}
