package server

import (
	"context"
	"net/http"

	"github.com/divehq/dive/internal/model"
)

type createRelationRequest struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
	Type     string `json:"type"`
	Data     any    `json:"data"`
}

func (s *Server) createRelation(ctx context.Context, _ *http.Request, in *createRelationRequest) (*model.Relation, error) {
	if in.SourceID == "" || in.TargetID == "" || in.Type == "" {
		return nil, badRequest("sourceId, targetId and type are required")
	}
	return s.ws.Relate(ctx, in.SourceID, in.TargetID, in.Type, in.Data)
}

func (s *Server) deleteRelation(ctx context.Context, r *http.Request, _ *none) (*success, error) {
	if err := s.ws.Unrelate(ctx, r.PathValue("id")); err != nil {
		return nil, err
	}
	return okResponse, nil
}

func (s *Server) listRelations(ctx context.Context, r *http.Request, _ *none) (*[]model.RelationView, error) {
	id, err := objectID(r)
	if err != nil {
		return nil, err
	}
	views, err := s.ws.Relations(ctx, id)
	if err != nil {
		return nil, err
	}
	return &views, nil
}
