package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/koulibalyamadou10/afrilyft-bolt/internal/matcher"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/notify"
	"github.com/koulibalyamadou10/afrilyft-bolt/internal/rides"
)

// errorEnvelope is the uniform error body: {error, message?}.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errText string) {
	writeJSON(w, status, errorEnvelope{Error: errText})
}

// writeDomainError maps the sentinel error taxonomy onto HTTP statuses. Any
// unrecognized error is a store or infrastructure failure and becomes a 500
// without leaking internals beyond the message field.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rides.ErrValidation), errors.Is(err, matcher.ErrValidation), errors.Is(err, notify.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, rides.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, rides.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, rides.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, rides.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: "Internal server error", Message: err.Error()})
	}
}
