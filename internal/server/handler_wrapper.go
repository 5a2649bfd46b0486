// Provides the adapter between typed handler functions and net/http.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// handlerFunc is a typed endpoint. The request is passed for path and query
// values; the JSON body, if any, is already decoded into in.
type handlerFunc[In, Out any] func(ctx context.Context, r *http.Request, in *In) (*Out, error)

// none is the input of endpoints without a body.
type none struct{}

// success is the output of endpoints with nothing else to report.
type success struct {
	Success bool `json:"success"`
}

var okResponse = &success{Success: true}

// wrap adapts fn to http.Handler, writing status on success.
func wrap[In, Out any](s *Server, status int, fn handlerFunc[In, Out]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		input := new(In)
		if err := s.decodeBody(w, r, input); err != nil {
			writeError(ctx, w, err)
			return
		}

		output, err := fn(ctx, r, input)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, status, output)
	})
}

// decodeBody reads a size-limited JSON body into input. An empty body leaves
// input untouched.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, input any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	body, err := io.ReadAll(r.Body)
	if err2 := r.Body.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, input); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "Failed to encode response", "err", err)
	}
}
