package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/studyx/internal/shared"
	"github.com/go-playground/validator/v10"
)

// Global validator instance for reuse
var validate = validator.New()

// errorBody is the error shape the task client reads: {"detail": "..."}.
type errorBody struct {
	Detail string `json:"detail"`
}

// decodeJSON decodes the request body into v and validates it.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %v", shared.ErrInvalidInput, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

// queryTaskID reads the taskId query parameter.
func queryTaskID(r *http.Request) (int, error) {
	return parseTaskID(r.URL.Query().Get("taskId"))
}

// pathTaskID reads the {taskId} path segment.
func pathTaskID(r *http.Request) (int, error) {
	return parseTaskID(r.PathValue("taskId"))
}

func parseTaskID(raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: taskId", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: taskId must be a positive integer", shared.ErrInvalidArgument)
	}
	return id, nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("failed to encode JSON response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Detail: message})
}
