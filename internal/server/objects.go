package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/divehq/dive/internal/object"
	"github.com/divehq/dive/internal/workspace"
)

// filterSpec is one element of the `filters` query parameter.
type filterSpec struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// searchParams parses GET /api/objects query parameters.
func searchParams(r *http.Request) (string, object.Filters, object.SearchOptions, error) {
	q := r.URL.Query()
	var (
		filters object.Filters
		opts    object.SearchOptions
	)

	if raw := q.Get("filters"); raw != "" {
		var specs []filterSpec
		if err := json.Unmarshal([]byte(raw), &specs); err != nil {
			return "", filters, opts, badRequest("filters must be a JSON array: %v", err)
		}
		for _, spec := range specs {
			switch spec.Type {
			case "tag":
				if spec.Value != "" {
					filters.Tags = append(filters.Tags, spec.Value)
				}
			case "type":
				filters.Type = spec.Value
			default:
				return "", filters, opts, badRequest("unknown filter type %q", spec.Type)
			}
		}
	}

	if raw := q.Get("untagged"); raw != "" {
		untagged, err := strconv.ParseBool(raw)
		if err != nil {
			return "", filters, opts, badRequest("untagged must be a boolean")
		}
		filters.Untagged = untagged
	}
	if t := q.Get("type"); t != "" {
		filters.Type = t
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return "", filters, opts, badRequest("limit must be a non-negative integer")
		}
		opts.Limit = limit
	}
	switch sort := q.Get("sort"); sort {
	case "":
	case "recent":
		opts.Recent = true
	default:
		return "", filters, opts, badRequest("unknown sort %q", sort)
	}

	return strings.TrimSpace(q.Get("q")), filters, opts, nil
}

func (s *Server) searchObjects(ctx context.Context, r *http.Request, _ *none) (*[]object.Result, error) {
	query, filters, opts, err := searchParams(r)
	if err != nil {
		return nil, err
	}
	results := s.ws.Search(ctx, query, filters, opts)
	return &results, nil
}

func (s *Server) createObject(ctx context.Context, _ *http.Request, in *object.PutRequest) (*object.Result, error) {
	return s.ws.Create(ctx, *in)
}

func objectID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	if id == "" {
		return "", badRequest("object id is required")
	}
	return id, nil
}

func (s *Server) getObject(ctx context.Context, r *http.Request, _ *none) (*object.Result, error) {
	id, err := objectID(r)
	if err != nil {
		return nil, err
	}
	return s.ws.Get(ctx, id)
}

func (s *Server) putObject(ctx context.Context, r *http.Request, in *object.PutRequest) (*object.Result, error) {
	id, err := objectID(r)
	if err != nil {
		return nil, err
	}
	return s.ws.Put(ctx, id, *in)
}

func (s *Server) renderObject(ctx context.Context, r *http.Request, _ *none) (*workspace.Rendered, error) {
	id, err := objectID(r)
	if err != nil {
		return nil, err
	}
	return s.ws.Render(ctx, id)
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	*workspace.Summary
}

func (s *Server) health(ctx context.Context, _ *http.Request, _ *none) (*healthResponse, error) {
	summary, err := s.ws.Summarize(ctx)
	if err != nil {
		return nil, err
	}
	return &healthResponse{Status: "ok", Version: s.cfg.Version, Summary: summary}, nil
}
