// Package http provides the JSON API server and its handlers.
//
// This file implements JSON response writing and the mapping from domain
// errors to status codes.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"taskfin/internal/core"
	"taskfin/internal/log"
	"taskfin/internal/store"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	// Field names the offending input for validation errors.
	Field string `json:"field,omitempty"`
	// Notification is a user-facing message for failed saves.
	Notification string `json:"notification,omitempty"`
}

// BatchItem is one entry of a bulk response.
type BatchItem struct {
	ID    string     `json:"id"`
	OK    bool       `json:"ok"`
	Error string     `json:"error,omitempty"`
	Task  *core.Task `json:"task,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to its HTTP status and response body.
func statusFor(err error) (int, ErrorResponse) {
	var (
		reqErr *requestError
		valErr *core.ValidationError
	)
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, ErrorResponse{Error: reqErr.msg}
	case errors.As(err, &valErr):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: valErr.Error(), Field: valErr.Field}
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not found"}
	case errors.Is(err, store.ErrNothingToUndo):
		return http.StatusConflict, ErrorResponse{Error: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{
			Error:        err.Error(),
			Notification: "The storage backend did not answer in time. Nothing was changed.",
		}
	case errors.Is(err, context.Canceled):
		// nginx's convention for a client that went away.
		return 499, ErrorResponse{Error: "request canceled"}
	}
	return http.StatusBadGateway, ErrorResponse{
		Error:        err.Error(),
		Notification: "Could not save your changes. Please try again.",
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return log.ErrorTypeValidation
	case http.StatusNotFound:
		return log.ErrorTypeNotFound
	case http.StatusGatewayTimeout:
		return log.ErrorTypeTimeout
	case http.StatusBadGateway:
		return log.ErrorTypeDatabase
	}
	return log.ErrorTypeInternal
}

// writeError logs err with the request logger and writes the mapped
// response. Client errors are logged at debug.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	logger := log.FromContext(r.Context())
	fields := log.LogFields{
		log.FieldMethod: r.Method,
		log.FieldPath:   r.URL.Path,
	}
	fields = fields.WithErrorType(errorType(status))
	if status >= 500 {
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, log.ComponentHTTP, r.Method, fields)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", fields.WithError(err).ToSlice()...)
	}
	writeJSON(w, status, body)
}

func batchItems(results []store.BatchResult) []BatchItem {
	items := make([]BatchItem, 0, len(results))
	for _, res := range results {
		item := BatchItem{ID: res.ID, OK: res.OK(), Task: res.Task}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		items = append(items, item)
	}
	return items
}

// orEmpty makes nil slices encode as [].
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
