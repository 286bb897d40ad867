package restapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mideind/straeto/internal/engine"
	"github.com/mideind/straeto/internal/models"
)

type errorBody struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

func (api *RestAPI) errorResponse(w http.ResponseWriter, r *http.Request, code int, text string) {
	response := errorBody{
		Code:        code,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        text,
		Version:     1,
	}

	setJSONResponseType(&w)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		api.logger(r).Error("failed to encode error response", "error", err, "code", code)
	}
}

// invalidAPIKeyResponse sends a 401 Unauthorized response with the required format
// for invalid API key errors
func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.errorResponse(w, r, http.StatusUnauthorized, "permission denied")
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.logger(r).Error("request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	api.errorResponse(w, r, http.StatusInternalServerError, "internal server error")
}

// serviceUnavailableResponse is sent while no feed has been loaded or an
// optional component is switched off.
func (api *RestAPI) serviceUnavailableResponse(w http.ResponseWriter, r *http.Request, text string) {
	w.Header().Set("Retry-After", "30")
	api.errorResponse(w, r, http.StatusServiceUnavailable, text)
}

// engineErrorResponse maps engine errors to responses.
func (api *RestAPI) engineErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		api.sendNotFound(w, r)
	case errors.Is(err, engine.ErrNoSnapshot):
		api.serviceUnavailableResponse(w, r, "schedule not loaded")
	default:
		api.serverErrorResponse(w, r, err)
	}
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	}

	setJSONResponseType(&w)
	w.WriteHeader(http.StatusBadRequest)
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		api.logger(r).Error("failed to encode validation error response", "error", err)
	}
}
