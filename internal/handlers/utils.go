package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/swiftcourier/trackingserver/internal/validation"
)

const (
	msgInternalError   = "Internal server error"
	msgPackageNotFound = "Package not found"
)

// ErrorResponse is the error payload returned by every endpoint.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// MessageResponse acknowledges an action.
type MessageResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id,omitempty"`
}

// Healthz reports that the process is serving requests.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

func writeInvalid(w http.ResponseWriter, message string, result validation.Result) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: message, Errors: result.Messages()})
}

// writeInternalError logs err with the request context and answers with a
// generic 500.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error, action string) {
	log.WithError(err).WithFields(log.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": middleware.GetReqID(r.Context()),
	}).Error(action)
	writeError(w, http.StatusInternalServerError, msgInternalError)
}

func parseID(r *http.Request, param string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, param)))
	if err != nil {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}
