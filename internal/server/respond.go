package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Codesplay12/Taskify/internal/domain"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeDomainError maps the typed error taxonomy onto HTTP status codes.
// Anything unrecognized is a 500 with a generic body; the details stay in
// the logs, not the response.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		validation   *domain.ValidationError
		credential   *domain.InvalidCredentialError
		forbidden    *domain.ForbiddenError
		taskNotFound *domain.TaskNotFoundError
		userNotFound *domain.UserNotFoundError
		emailTaken   *domain.EmailTakenError
		unavailable  *domain.StoreUnavailableError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &credential):
		writeError(w, http.StatusUnauthorized, credential.Error())
	case errors.As(err, &forbidden):
		writeError(w, http.StatusForbidden, forbidden.Error())
	case errors.As(err, &taskNotFound):
		writeError(w, http.StatusNotFound, taskNotFound.Error())
	case errors.As(err, &userNotFound):
		writeError(w, http.StatusNotFound, userNotFound.Error())
	case errors.As(err, &emailTaken):
		writeError(w, http.StatusConflict, emailTaken.Error())
	case errors.As(err, &unavailable):
		writeError(w, http.StatusServiceUnavailable, "store temporarily unavailable")
	default:
		logger.Error("unhandled error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
