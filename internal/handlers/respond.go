package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/friendmap/plans-api/internal/membership"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

type rejectionResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}

// writeRejection maps the membership taxonomy onto HTTP. Logical rejections
// carry a machine-readable code so clients can distinguish terminal
// rejections from retryable ones; anything unexpected is a plain 500.
func writeRejection(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"

	switch {
	case errors.Is(err, membership.ErrBanned):
		status, code = http.StatusForbidden, "banned"
	case errors.Is(err, membership.ErrNotAuthorized):
		status, code = http.StatusForbidden, "not_authorized"
	case errors.Is(err, membership.ErrCapacityFull):
		status, code = http.StatusConflict, "capacity_full"
	case errors.Is(err, membership.ErrAlreadyMember):
		status, code = http.StatusConflict, "already_member"
	case errors.Is(err, membership.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, membership.ErrInvalidAction):
		status, code = http.StatusUnprocessableEntity, "invalid_action"
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, rejectionResponse{
		Error:     msg,
		Code:      code,
		Retryable: membership.IsRetryable(err),
	})
}
