package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/divehq/dive/internal/canvas"
	"github.com/divehq/dive/internal/object"
	"github.com/divehq/dive/internal/plugin"
	"github.com/divehq/dive/internal/store"
	"github.com/divehq/dive/internal/workspace"
)

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor classifies err into an HTTP status.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, workspace.ErrInvalidInput),
		errors.Is(err, object.ErrInvalidID),
		errors.Is(err, object.ErrProviderNotFound),
		errors.Is(err, object.ErrInvalidContent),
		errors.Is(err, canvas.ErrInvalidDocument),
		errors.Is(err, plugin.ErrNoRenderer):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound),
		errors.Is(err, object.ErrNotFound),
		errors.Is(err, store.ErrObjectNotFound),
		errors.Is(err, store.ErrTagNotFound),
		errors.Is(err, store.ErrRelationNotFound):
		return http.StatusNotFound
	case errors.Is(err, object.ErrExists),
		errors.Is(err, store.ErrTagExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as {"error": "..."}. Internal errors are logged and
// reported without detail.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(ctx, "Handler error", "err", err)
		msg = "internal server error"
	} else {
		slog.DebugContext(ctx, "Request rejected", "err", err, "status", status)
	}
	writeJSON(ctx, w, status, errorResponse{Error: msg})
}
