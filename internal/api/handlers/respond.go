package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/rpineda/aichat-be/internal/services"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError converts a service failure into the stable {message, cause}
// error body. Unclassified errors are logged and surfaced as a generic 500.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	cause := err.Error()
	if status == http.StatusInternalServerError && !errors.Is(err, services.ErrProvider) {
		log.Error().Err(err).Msg("Unhandled request error")
		cause = "something went wrong"
	}
	writeErrorStatus(w, status, cause)
}

func writeErrorStatus(w http.ResponseWriter, status int, cause string) {
	writeJSON(w, status, map[string]string{"message": "ERROR", "cause": cause})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateUser):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
