// Package httpserver contains the JSON handlers and middleware of the career
// guide API.
package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fairyhunter13/ai-career-guide/internal/domain"
)

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type chatErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy to an HTTP status: bad input is 400,
// everything else is 500.
func statusFor(err error) int {
	if errors.Is(err, domain.ErrInvalidArgument) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func logFailure(r *http.Request, status int, err error) {
	lg := LoggerFrom(r)
	if status >= http.StatusInternalServerError {
		lg.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		return
	}
	lg.Warn("request rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
}

func writeError(w http.ResponseWriter, r *http.Request, err error, details any) {
	status := statusFor(err)
	logFailure(r, status, err)
	writeJSON(w, status, errorBody{Error: err.Error(), Details: details})
}

func writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logFailure(r, status, err)
	writeJSON(w, status, chatErrorBody{Status: "error", Message: err.Error()})
}
