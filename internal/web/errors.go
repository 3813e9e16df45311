package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err), which picks the status code
//  3. Error is mapped via core.MapError to get a user-friendly message
//  4. Technical error is logged with the request ID for correlation
//  5. User message is rendered as JSON for API clients, as the upload form
//     for rejected browser input, or as plain text for failed batches

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/CandleConvert/internal/core"
	"github.com/JonMunkholm/CandleConvert/internal/logging"
	"github.com/JonMunkholm/CandleConvert/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// failurePrefix starts the plain text body of a failed conversion.
const failurePrefix = "Failed to process CSV file: "

// statusFor picks the HTTP status for an error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrTooManyBatches):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrInvalidTimeframe),
		errors.Is(err, core.ErrInvalidRequest),
		errors.Is(err, core.ErrNoSource),
		errors.Is(err, core.ErrInvalidSource):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSourceTooLarge) && !errors.Is(err, core.ErrSourceUnavailable):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the technical error and writes a user-facing response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}

	switch {
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, status)
	case status == http.StatusBadRequest:
		s.renderForm(w, r, status, &templates.Alert{Message: userMsg.Message, Action: userMsg.Action, Code: userMsg.Code})
	default:
		respondErrorText(w, userMsg, status)
	}
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func respondErrorText(w http.ResponseWriter, msg core.UserMessage, status int) {
	http.Error(w, failurePrefix+msg.Message+" ("+msg.Code+")", status)
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
