package handlers

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/bimakw/amm-gateway/internal/domain/entities"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// errorStatus maps the connector error taxonomy to an HTTP status and code
func errorStatus(err error) (int, string) {
	var cfgErr *entities.ConfigurationError
	switch {
	case errors.Is(err, entities.ErrUnsupportedTarget):
		return http.StatusBadRequest, "unsupported_target"
	case errors.Is(err, entities.ErrUnrecognizedToken):
		return http.StatusBadRequest, "unrecognized_token"
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest, "configuration_error"
	case errors.Is(err, entities.ErrPriceUnavailable):
		return http.StatusNotFound, "no_route"
	case errors.Is(err, entities.ErrDependencyUnavailable):
		return http.StatusServiceUnavailable, "dependency_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeErr(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	writeError(w, status, code, err.Error())
}
