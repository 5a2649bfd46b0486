package server

import (
	"context"
	"net/http"

	"github.com/divehq/dive/internal/plugin"
)

func (s *Server) listPlugins(_ context.Context, _ *http.Request, _ *none) (*[]plugin.Plugin, error) {
	plugins := s.ws.Plugins.Plugins()
	return &plugins, nil
}

func (s *Server) viewsForType(_ context.Context, r *http.Request, _ *none) (*[]plugin.View, error) {
	views := s.ws.Plugins.ViewsForType(r.PathValue("type"))
	return &views, nil
}
