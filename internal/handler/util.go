// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/giadat1599/echo-support-api/internal/apierror"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders a coded error envelope. Domain errors keep their code so
// the widget and dashboard can branch on it; anything else is a generic 500.
func writeError(w http.ResponseWriter, err error) {
	if e, ok := apierror.As(err); ok {
		writeJSON(w, statusFor(e.Code), e)
		return
	}
	writeJSON(w, http.StatusInternalServerError, &apierror.Error{
		Code:    "INTERNAL",
		Message: "internal error",
	})
}

// writeBadRequest renders a request-shape failure.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, apierror.BadRequest(message))
}

func statusFor(code apierror.Code) int {
	switch code {
	case apierror.CodeUnauthorized:
		return http.StatusUnauthorized
	case apierror.CodeNotFound:
		return http.StatusNotFound
	case apierror.CodeBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
