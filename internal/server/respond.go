package server

import (
	"encoding/json"
	"net/http"

	"github.com/nuniesmith/fks-portfolio-go/internal/apperr"
)

// writeJSON encodes v as the response body with a 200 status.
func writeJSON(w http.ResponseWriter, v interface{}) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorEnvelope is the platform's uniform error response body.
type errorEnvelope struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeError maps err's apperr.Kind to an HTTP status and writes the
// standard error envelope. Unclassified errors map to 500, never leaking
// as a 200 with an ambiguous body.
func writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindUpstreamUnavailable:
		status = http.StatusBadGateway
	case apperr.KindDataInsufficient:
		status = http.StatusUnprocessableEntity
	case apperr.KindConstraintViolation:
		status = http.StatusUnprocessableEntity
	case apperr.KindInternal:
		status = http.StatusInternalServerError
	}

	writeJSONStatus(w, status, errorEnvelope{Error: err.Error(), Kind: string(kind)})
}
