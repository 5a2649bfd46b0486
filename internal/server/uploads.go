package server

import (
	"net/http"
	"path/filepath"
)

type uploadResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// upload stores the raw request body as a new file in the storage root.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(ctx, w, badRequest("name is required"))
		return
	}
	body := r.Body
	if s.cfg.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
	defer body.Close()

	id, n, err := s.ws.Upload(ctx, name, body)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, uploadResponse{
		ID:   id,
		Name: filepath.Base(id),
		Size: n,
	})
}
