package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/bookreviews/internal/common"
)

type messageBody struct {
	Message string `json:"message"`
}

// errorBody is the 500 payload: the operation's message plus the raw cause.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageBody{Message: msg})
}

// statusFor maps an error kind to its HTTP status; zero means unknown.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	}
	return 0
}

// writeError answers with the status and message carried by err. Anything
// unclassified is logged and reported as 500 with fallback as the message.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if status := statusFor(err); status != 0 {
		writeMessage(w, status, common.Message(err, fallback))
		return
	}
	s.logger.Error(r.Context(), fallback, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Message: fallback, Error: err.Error()})
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.NewError(common.ErrorValidation, "Invalid request body")
	}
	return nil
}
