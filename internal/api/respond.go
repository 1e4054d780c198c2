package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/specialistvlad/sapmd/internal/sapm"
)

var errBadRequest = errors.New("bad request")

func badRequest(err error) error {
	return fmt.Errorf("%w: %w", errBadRequest, err)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest(err)
	}
	return nil
}

type errorJSON struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sapm.ErrUnknownControlBinding):
		return http.StatusNotFound
	case errors.Is(err, sapm.ErrInvalidControlValue), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, sapm.ErrRegisterWriteFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("API request failed.", "status", status, "error", err)
	}
	s.writeJSON(w, status, errorJSON{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode API response.", "error", err)
	}
}
