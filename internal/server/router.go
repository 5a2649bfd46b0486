package server

import "net/http"

// routes registers every API endpoint.
//
// Object IDs may contain slashes (filesystem paths). The bare object routes
// take the rest of the path as the ID; sub-resource routes need the ID
// path-escaped into a single segment.
func (s *Server) routes() http.Handler {
	mux := &http.ServeMux{}

	mux.Handle("GET /api/health", wrap(s, http.StatusOK, s.health))

	mux.Handle("GET /api/objects", wrap(s, http.StatusOK, s.searchObjects))
	mux.Handle("POST /api/objects", wrap(s, http.StatusCreated, s.createObject))
	mux.Handle("GET /api/objects/{id...}", wrap(s, http.StatusOK, s.getObject))
	mux.Handle("PUT /api/objects/{id...}", wrap(s, http.StatusOK, s.putObject))
	mux.Handle("GET /api/objects/{id}/render", wrap(s, http.StatusOK, s.renderObject))

	mux.Handle("GET /api/objects/{id}/tags", wrap(s, http.StatusOK, s.listObjectTags))
	mux.Handle("POST /api/objects/{id}/tags", wrap(s, http.StatusOK, s.attachTag))
	mux.Handle("DELETE /api/objects/{id}/tags", wrap(s, http.StatusOK, s.detachTag))
	mux.Handle("GET /api/objects/{id}/relations", wrap(s, http.StatusOK, s.listRelations))

	mux.Handle("GET /api/tags", wrap(s, http.StatusOK, s.listTags))
	mux.Handle("POST /api/tags", wrap(s, http.StatusCreated, s.createTag))
	mux.Handle("DELETE /api/tags/{id}", wrap(s, http.StatusOK, s.deleteTag))

	mux.Handle("POST /api/relations", wrap(s, http.StatusCreated, s.createRelation))
	mux.Handle("DELETE /api/relations/{id}", wrap(s, http.StatusOK, s.deleteRelation))

	mux.HandleFunc("POST /api/uploads", s.upload)

	mux.Handle("GET /api/plugins", wrap(s, http.StatusOK, s.listPlugins))
	mux.Handle("GET /api/types/{type}/views", wrap(s, http.StatusOK, s.viewsForType))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(r.Context(), w, errNotFound)
	})
	return mux
}
