package web

// errors.go turns handler errors into responses.
//
//  1. Handler calls respondError(w, r, err, status)
//  2. err is mapped via core.MapError to a user-facing message and code
//  3. The technical error is logged with the request ID
//  4. API routes get JSON, pages get the dashboard error alert

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/trialstats/internal/core"
	"github.com/JonMunkholm/trialstats/internal/logging"
	"github.com/JonMunkholm/trialstats/internal/web/templates"
)

var (
	errRateLimited     = errors.New("rate limit exceeded")
	errNoFile          = errors.New("no file provided")
	errInvalidForm     = errors.New("invalid form")
	errFileTooLarge    = errors.New("file too large")
	errUnsupportedType = errors.New("unsupported file type")
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the user-facing response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if wantsJSON(r) {
		respondErrorJSON(w, msg, status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor picks the HTTP status for an analytics error. A missing default
// dataset is a server-side condition; a bad upload is the client's.
func statusFor(err error, upload bool) int {
	switch {
	case errors.Is(err, core.ErrSchema):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrDataUnavailable):
		if upload {
			return http.StatusBadRequest
		}
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNoFile), errors.Is(err, errInvalidForm), errors.Is(err, errUnsupportedType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON reports whether the client should get a JSON error.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
