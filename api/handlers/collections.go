package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jalapeno-sdn/jalapeno-api/pkg/arango"
	"github.com/jalapeno-sdn/jalapeno-api/pkg/graph"
)

const (
	defaultDocumentLimit = 100
	maxDocumentLimit     = 1000
)

// GetInstances lists the edge collection names, which is what downstream
// controllers iterate when discovering available graphs.
func (s *Server) GetInstances(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	metas, err := s.db.Collections(ctx)
	if err != nil {
		s.handleError(w, "failed to list collections", err)
		return
	}

	names := []string{}
	for _, m := range metas {
		if m.Kind == arango.KindEdge {
			names = append(names, m.Name)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"instances":   names,
		"total_count": len(names),
	})
}

// GetCollections lists collections. filter_graphs narrows to edge
// collections (true) or document collections (false); absent returns both.
func (s *Server) GetCollections(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var kind arango.CollectionKind
	switch r.URL.Query().Get("filter_graphs") {
	case "":
	case "true":
		kind = arango.KindEdge
	case "false":
		kind = arango.KindDocument
	default:
		s.handleError(w, "list collections", fmt.Errorf("%w: filter_graphs must be true or false", graph.ErrInvalidInput))
		return
	}

	metas, err := s.db.Collections(ctx)
	if err != nil {
		s.handleError(w, "failed to list collections", err)
		return
	}

	out := []arango.CollectionMeta{}
	for _, m := range metas {
		if kind == "" || m.Kind == kind {
			out = append(out, m)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collections": out,
		"total_count": len(out),
	})
}

// GetCollectionDocuments pages through a collection's documents, optionally
// pinned to a single key.
func (s *Server) GetCollectionDocuments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "name")
	if err := s.ensureCollection(ctx, name); err != nil {
		s.handleError(w, "failed to read collection", err)
		return
	}

	limit := intParam(r, "limit", defaultDocumentLimit)
	if limit <= 0 || limit > maxDocumentLimit {
		limit = defaultDocumentLimit
	}
	skip := intParam(r, "skip", 0)
	if skip < 0 {
		skip = 0
	}

	query := "FOR doc IN @@col"
	binds := map[string]any{"@col": name, "skip": skip, "limit": limit}
	if key := r.URL.Query().Get("filter_key"); key != "" {
		query += "\n  FILTER doc._key == @key"
		binds["key"] = key
	}
	query += "\n  LIMIT @skip, @limit\n  RETURN doc"

	docs, err := s.collectDocs(ctx, query, binds)
	if err != nil {
		s.handleError(w, "failed to read collection", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection": name,
		"documents":  docs,
		"count":      len(docs),
		"limit":      limit,
		"skip":       skip,
	})
}

// GetCollectionKeys lists the document keys of a collection.
func (s *Server) GetCollectionKeys(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "name")
	if err := s.ensureCollection(ctx, name); err != nil {
		s.handleError(w, "failed to read collection keys", err)
		return
	}

	cur, err := s.db.Query(ctx, "FOR doc IN @@col SORT doc._key RETURN doc._key",
		map[string]any{"@col": name})
	if err != nil {
		s.handleError(w, "failed to read collection keys", err)
		return
	}
	defer cur.Close()

	keys := []string{}
	for cur.HasMore() {
		var k string
		if err := cur.ReadDocument(ctx, &k); err != nil {
			s.handleError(w, "failed to read collection keys", err)
			return
		}
		keys = append(keys, k)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection": name,
		"keys":       keys,
		"count":      len(keys),
	})
}

// GetCollectionInfo returns one collection's metadata.
func (s *Server) GetCollectionInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "name")
	meta, err := s.collectionMeta(ctx, name)
	if err != nil {
		s.handleError(w, "failed to read collection info", err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) ensureCollection(ctx context.Context, name string) error {
	ok, err := s.db.HasCollection(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: collection %q", arango.ErrNotFound, name)
	}
	return nil
}

func (s *Server) collectionMeta(ctx context.Context, name string) (arango.CollectionMeta, error) {
	metas, err := s.db.Collections(ctx)
	if err != nil {
		return arango.CollectionMeta{}, err
	}
	for _, m := range metas {
		if m.Name == name {
			return m, nil
		}
	}
	return arango.CollectionMeta{}, fmt.Errorf("%w: collection %q", arango.ErrNotFound, name)
}

// collectDocs drains a query cursor into opaque documents.
func (s *Server) collectDocs(ctx context.Context, query string, binds map[string]any) ([]map[string]any, error) {
	cur, err := s.db.Query(ctx, query, binds)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	docs := []map[string]any{}
	for cur.HasMore() {
		var doc map[string]any
		if err := cur.ReadDocument(ctx, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
