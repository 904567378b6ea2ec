package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

func parseID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Server) getAllTodosHandler(w http.ResponseWriter, r *http.Request) {
	todos, err := s.todos().GetAll(r.Context())
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to retrieve todos")
		return
	}
	s.log.InfoContext(r.Context(), "returned todos", "count", len(todos))
	respondWithJSON(w, http.StatusOK, newTodoResponses(todos))
}

func (s *Server) getTodoByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid todo ID provided")
		return
	}

	todo, err := s.todos().GetByID(r.Context(), id)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to retrieve todo")
		return
	}
	if todo == nil {
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("todo item with id %d not found", id))
		return
	}
	respondWithJSON(w, http.StatusOK, newTodoResponse(*todo))
}

func (s *Server) getTodosByPriorityHandler(w http.ResponseWriter, r *http.Request) {
	priority, err := domain.ParsePriority(chi.URLParam(r, "priority"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid priority value")
		return
	}

	todos, err := s.todos().GetByPriority(r.Context(), priority)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to retrieve todos")
		return
	}
	respondWithJSON(w, http.StatusOK, newTodoResponses(todos))
}

func (s *Server) getCompletedTodosHandler(w http.ResponseWriter, r *http.Request) {
	todos, err := s.todos().GetCompleted(r.Context())
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to retrieve todos")
		return
	}
	respondWithJSON(w, http.StatusOK, newTodoResponses(todos))
}

func (s *Server) getPendingTodosHandler(w http.ResponseWriter, r *http.Request) {
	todos, err := s.todos().GetPending(r.Context())
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to retrieve todos")
		return
	}
	respondWithJSON(w, http.StatusOK, newTodoResponses(todos))
}

func (s *Server) searchTodosHandler(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if strings.TrimSpace(title) == "" {
		respondWithError(w, http.StatusBadRequest, "title query parameter is required")
		return
	}

	todos, err := s.todos().Search(r.Context(), title)
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to search todos")
		return
	}
	respondWithJSON(w, http.StatusOK, newTodoResponses(todos))
}

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateTodoRequest
	if code, msg, err := decodeJSON(r, &req); err != nil {
		if code == http.StatusInternalServerError {
			s.log.ErrorContext(r.Context(), "decode create todo request", "error", err)
		}
		respondWithError(w, code, msg)
		return
	}

	created, err := s.todos().Add(r.Context(), req.toEntity())
	if created == nil {
		s.respondWithServiceError(w, r, err, "Failed to create todo")
		return
	}
	if err != nil {
		// the todo is stored; only a notification failed
		s.log.WarnContext(r.Context(), "todo created with notification error", "id", created.ID, "error", err)
	}

	w.Header().Set("Location", fmt.Sprintf("/api/todos/%d", created.ID))
	respondWithJSON(w, http.StatusCreated, newTodoResponse(*created))
}

func (s *Server) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid todo ID provided")
		return
	}

	var req UpdateTodoRequest
	if code, msg, err := decodeJSON(r, &req); err != nil {
		if code == http.StatusInternalServerError {
			s.log.ErrorContext(r.Context(), "decode update todo request", "error", err)
		}
		respondWithError(w, code, msg)
		return
	}

	updated, err := s.todos().Update(r.Context(), req.toEntity(id))
	if updated == nil {
		s.respondWithServiceError(w, r, err, "Failed to update todo")
		return
	}
	if err != nil {
		s.log.WarnContext(r.Context(), "todo updated with notification error", "id", id, "error", err)
	}
	respondWithJSON(w, http.StatusOK, newTodoResponse(*updated))
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid todo ID provided")
		return
	}

	deleted, err := s.todos().Delete(r.Context(), id)
	if !deleted {
		if err != nil {
			s.respondWithServiceError(w, r, err, "Failed to delete todo")
			return
		}
		respondWithError(w, http.StatusNotFound, fmt.Sprintf("todo item with id %d not found", id))
		return
	}
	if err != nil {
		s.log.WarnContext(r.Context(), "todo deleted with notification error", "id", id, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.todos().GetStatistics(r.Context())
	if err != nil {
		s.respondWithServiceError(w, r, err, "Failed to compute statistics")
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
