package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
// The returned message is safe to show to clients; code is 0 on success.
func decodeJSON(r *http.Request, dst any) (code int, message string, err error) {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	err = decoder.Decode(dst)
	if err == nil {
		return 0, "", nil
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		return http.StatusBadRequest, fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset), err
	case errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, "Request body contains badly-formed JSON", err
	case errors.As(err, &unmarshalTypeError):
		return http.StatusBadRequest, fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset), err
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		return http.StatusBadRequest, fmt.Sprintf("Request body contains unknown field %s", fieldName), err
	case errors.Is(err, io.EOF):
		return http.StatusBadRequest, "Request body must not be empty", err
	default:
		return http.StatusInternalServerError, "Error processing request", err
	}
}

// respondWithServiceError maps domain errors onto status codes. Anything
// unexpected is logged and hidden behind fallback.
func (s *Server) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrValidationFailed):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	default:
		s.log.ErrorContext(r.Context(), fallback, "error", err, "method", r.Method, "path", r.URL.Path)
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
