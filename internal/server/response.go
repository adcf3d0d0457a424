package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"warzone-tracker/internal/api"
	"warzone-tracker/internal/repository"
	"warzone-tracker/internal/stats"
)

// errorResponse is the wire shape of every error we return. The cause hint
// is for humans; internal detail stays in the logs.
type errorResponse struct {
	Message       string `json:"message"`
	PossibleCause string `json:"possibleCause,omitempty"`
	Code          int    `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, cause string) {
	writeJSON(w, status, errorResponse{Message: message, PossibleCause: cause, Code: status})
}

// writeClassifiedError maps classified errors to stable statuses and hints.
// The full error chain is logged, never returned.
func writeClassifiedError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	logger.Error().Err(err).Msg("request failed")

	switch {
	case errors.Is(err, api.ErrPlayerNotFound):
		writeError(w, http.StatusUnprocessableEntity,
			"Player search failed, entered data is incorrect.",
			"check the username and platform")
	case errors.Is(err, api.ErrPrivateAccount):
		writeError(w, http.StatusNotFound,
			"Player search failed, the account should be public.",
			"the player's Activision privacy settings block match data")
	case errors.Is(err, api.ErrSessionExpired):
		writeError(w, http.StatusServiceUnavailable,
			"Upstream session expired.",
			"the Activision session cookies need to be refreshed")
	case errors.Is(err, api.ErrInvalidMatchID):
		writeError(w, http.StatusUnprocessableEntity,
			"Invalid match ID.",
			"check the match ID")
	case errors.Is(err, stats.ErrUpstreamShape):
		writeError(w, http.StatusBadGateway,
			"Upstream payload could not be processed.",
			"the Activision API response shape may have changed")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found.", "")
	default:
		writeError(w, http.StatusInternalServerError,
			"An unknown error occurred, please try again.", "")
	}
}
