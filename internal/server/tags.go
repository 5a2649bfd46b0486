package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/divehq/dive/internal/model"
)

type tagLinkRequest struct {
	TagID string `json:"tagId"`
}

type createTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) listTags(ctx context.Context, _ *http.Request, _ *none) (*[]model.Tag, error) {
	tags, err := s.ws.Store.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	return &tags, nil
}

func (s *Server) createTag(ctx context.Context, _ *http.Request, in *createTagRequest) (*model.Tag, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, badRequest("name is required")
	}
	return s.ws.Store.CreateTag(ctx, in.Name, in.Color)
}

func (s *Server) deleteTag(ctx context.Context, r *http.Request, _ *none) (*success, error) {
	if err := s.ws.Store.DeleteTag(ctx, r.PathValue("id")); err != nil {
		return nil, err
	}
	return okResponse, nil
}

func (s *Server) listObjectTags(ctx context.Context, r *http.Request, _ *none) (*[]model.Tag, error) {
	id, err := objectID(r)
	if err != nil {
		return nil, err
	}
	tags, err := s.ws.ObjectTags(ctx, id)
	if err != nil {
		return nil, err
	}
	return &tags, nil
}

func (s *Server) attachTag(ctx context.Context, r *http.Request, in *tagLinkRequest) (*success, error) {
	id, err := objectID(r)
	if err != nil {
		return nil, err
	}
	if in.TagID == "" {
		return nil, badRequest("tagId is required")
	}
	if err := s.ws.AttachTag(ctx, id, in.TagID); err != nil {
		return nil, err
	}
	return okResponse, nil
}

func (s *Server) detachTag(ctx context.Context, r *http.Request, in *tagLinkRequest) (*success, error) {
	id, err := objectID(r)
	if err != nil {
		return nil, err
	}
	if in.TagID == "" {
		return nil, badRequest("tagId is required")
	}
	if err := s.ws.DetachTag(ctx, id, in.TagID); err != nil {
		return nil, err
	}
	return okResponse, nil
}
