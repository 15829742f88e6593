package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/markb/bcon/internal/log"
	"github.com/markb/bcon/internal/store"
)

// errorResponse is the body of every error. Detail is a string, or a map of
// field name to message for validation failures.
type errorResponse struct {
	Detail interface{} `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

var errBadBody = errors.New("invalid request body")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

// decode reads a JSON body into v. Keys that v does not declare are ignored.
func decode(r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errBadBody
	}
	return nil
}

type validator interface {
	Validate() error
}

// bind decodes and validates a request body, writing the error response
// itself when it returns false.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, in validator) bool {
	if err := decode(r, in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := in.Validate(); err != nil {
		var fields validation.Errors
		if errors.As(err, &fields) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: fields})
			return false
		}
		s.internalError(w, r, err)
		return false
	}
	return true
}

// storeError maps store failures to responses. notFound is the detail used
// for store.ErrNotFound.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
		"request_id", middleware.GetReqID(r.Context()),
	)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
