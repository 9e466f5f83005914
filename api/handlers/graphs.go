package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jalapeno-sdn/jalapeno-api/pkg/arango"
	"github.com/jalapeno-sdn/jalapeno-api/pkg/graph"
)

// Vertex inventory queries walk the edge collection and dereference the
// endpoint documents, so they only ever see vertices that are actually
// wired into the graph.
const (
	vertexIDsQuery = `LET ids = UNIQUE(FLATTEN(FOR e IN @@graph RETURN [e._from, e._to]))
FOR id IN ids
  SORT id
  LIMIT @limit
  RETURN id`

	verticesQuery = `LET ids = UNIQUE(FLATTEN(FOR e IN @@graph RETURN [e._from, e._to]))
FOR id IN ids
  LET v = DOCUMENT(id)
  FILTER v != null
  LIMIT @limit
  RETURN v`

	verticesByAlgoQuery = `LET ids = UNIQUE(FLATTEN(FOR e IN @@graph RETURN [e._from, e._to]))
FOR id IN ids
  LET v = DOCUMENT(id)
  FILTER v != null
  FILTER LENGTH(v.sids[* FILTER CURRENT.srv6_endpoint_behavior.algo == @algo]) > 0
  LIMIT @limit
  RETURN v`

	edgesQuery = `FOR e IN @@graph
  LIMIT @limit
  RETURN {
    _key: e._key, _from: e._from, _to: e._to,
    latency: e.latency, percent_util_out: e.percent_util_out,
    load: e.load, country_codes: e.country_codes
  }`

	edgesDetailQuery = `FOR e IN @@graph
  LIMIT @limit
  RETURN e`

	topologyQuery = `FOR e IN @@graph
  LIMIT @limit
  RETURN {
    _key: e._key, _from: e._from, _to: e._to,
    source: DOCUMENT(e._from).name, target: DOCUMENT(e._to).name,
    latency: e.latency, percent_util_out: e.percent_util_out,
    load: e.load, country_codes: e.country_codes
  }`
)

const vertexSummaryProjection = `{
    id: v._id, key: v._key, name: v.name, router_id: v.router_id,
    asn: v.asn, prefix: v.prefix, prefix_len: v.prefix_len
  }`

// GetGraphs lists the edge collections with their metadata.
func (s *Server) GetGraphs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	metas, err := s.db.Collections(ctx)
	if err != nil {
		s.handleError(w, "failed to list graphs", err)
		return
	}

	graphs := []arango.CollectionMeta{}
	for _, m := range metas {
		if m.Kind == arango.KindEdge {
			graphs = append(graphs, m)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"graphs":      graphs,
		"total_count": len(graphs),
	})
}

// GetGraphInfo returns one graph collection's metadata. Serves both the bare
// detail route and /info.
func (s *Server) GetGraphInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "graph")
	meta, err := s.collectionMeta(ctx, name)
	if err != nil {
		s.handleError(w, "failed to read graph info", err)
		return
	}
	if meta.Kind != arango.KindEdge {
		s.handleError(w, "failed to read graph info",
			fmt.Errorf("%w: collection %q is not a graph collection", graph.ErrInvalidInput, name))
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) graphDocsResponse(w http.ResponseWriter, r *http.Request, operation, query, itemsKey string, extraBinds map[string]any) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "graph")
	if err := s.ensureCollection(ctx, name); err != nil {
		s.handleError(w, operation, err)
		return
	}

	limit := intParam(r, "limit", defaultDocumentLimit)
	if limit <= 0 || limit > maxDocumentLimit {
		limit = defaultDocumentLimit
	}

	binds := map[string]any{"@graph": name, "limit": limit}
	for k, v := range extraBinds {
		binds[k] = v
	}

	docs, err := s.collectDocs(ctx, query, binds)
	if err != nil {
		s.handleError(w, operation, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"graph":  name,
		itemsKey: docs,
		"count":  len(docs),
	})
}

// GetVertices returns the vertex documents reachable through the graph's
// edges.
func (s *Server) GetVertices(w http.ResponseWriter, r *http.Request) {
	s.graphDocsResponse(w, r, "failed to read vertices", verticesQuery, "vertices", nil)
}

// GetVerticesByAlgo returns the vertices participating in a Flex-Algo.
// Algo 0 means the base topology, so no filter applies.
func (s *Server) GetVerticesByAlgo(w http.ResponseWriter, r *http.Request) {
	algo, err := algoParam(r)
	if err != nil {
		s.handleError(w, "failed to read vertices", err)
		return
	}
	if algo == 0 {
		s.graphDocsResponse(w, r, "failed to read vertices", verticesQuery, "vertices", nil)
		return
	}
	s.graphDocsResponse(w, r, "failed to read vertices", verticesByAlgoQuery, "vertices",
		map[string]any{"algo": algo})
}

// GetVerticesSummary returns a compact projection of the graph's vertices,
// optionally narrowed to one vertex collection.
func (s *Server) GetVerticesSummary(w http.ResponseWriter, r *http.Request) {
	query := `LET ids = UNIQUE(FLATTEN(FOR e IN @@graph RETURN [e._from, e._to]))
FOR id IN ids
  LET v = DOCUMENT(id)
  FILTER v != null
`
	binds := map[string]any{}
	if vc := r.URL.Query().Get("vertex_collection"); vc != "" {
		query += "  FILTER STARTS_WITH(id, @vertex_prefix)\n"
		binds["vertex_prefix"] = vc + "/"
	}
	query += "  LIMIT @limit\n  RETURN " + vertexSummaryProjection

	s.graphDocsResponse(w, r, "failed to read vertex summary", query, "vertices", binds)
}

// GetVertexKeys returns the bare keys of the graph's vertices.
func (s *Server) GetVertexKeys(w http.ResponseWriter, r *http.Request) {
	query := `LET ids = UNIQUE(FLATTEN(FOR e IN @@graph RETURN [e._from, e._to]))
FOR id IN ids
  SORT id
  LIMIT @limit
  RETURN PARSE_IDENTIFIER(id).key`
	s.graphDocsStringsResponse(w, r, "failed to read vertex keys", query, "keys")
}

// GetVertexIDs returns the full document ids of the graph's vertices.
func (s *Server) GetVertexIDs(w http.ResponseWriter, r *http.Request) {
	s.graphDocsStringsResponse(w, r, "failed to read vertex ids", vertexIDsQuery, "ids")
}

func (s *Server) graphDocsStringsResponse(w http.ResponseWriter, r *http.Request, operation, query, itemsKey string) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "graph")
	if err := s.ensureCollection(ctx, name); err != nil {
		s.handleError(w, operation, err)
		return
	}

	limit := intParam(r, "limit", maxDocumentLimit)
	if limit <= 0 || limit > maxDocumentLimit {
		limit = maxDocumentLimit
	}

	cur, err := s.db.Query(ctx, query, map[string]any{"@graph": name, "limit": limit})
	if err != nil {
		s.handleError(w, operation, err)
		return
	}
	defer cur.Close()

	items := []string{}
	for cur.HasMore() {
		var v string
		if err := cur.ReadDocument(ctx, &v); err != nil {
			s.handleError(w, operation, err)
			return
		}
		items = append(items, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"graph":  name,
		itemsKey: items,
		"count":  len(items),
	})
}

// GetEdges returns a compact edge projection.
func (s *Server) GetEdges(w http.ResponseWriter, r *http.Request) {
	s.graphDocsResponse(w, r, "failed to read edges", edgesQuery, "edges", nil)
}

// GetEdgesDetail returns the full edge documents.
func (s *Server) GetEdgesDetail(w http.ResponseWriter, r *http.Request) {
	s.graphDocsResponse(w, r, "failed to read edges", edgesDetailQuery, "edges", nil)
}

// GetTopology returns the node-to-node subgraph: each edge with the names
// of the vertices it connects.
func (s *Server) GetTopology(w http.ResponseWriter, r *http.Request) {
	s.graphDocsResponse(w, r, "failed to read topology", topologyQuery, "links", nil)
}

// GetTopologyNodes returns the IGP nodes present in the graph. By default a
// compact projection; include_all_fields=true returns the full documents.
func (s *Server) GetTopologyNodes(w http.ResponseWriter, r *http.Request) {
	s.topologyNodes(w, r, 0)
}

// GetTopologyNodesByAlgo narrows the IGP node listing to an algo plane.
func (s *Server) GetTopologyNodesByAlgo(w http.ResponseWriter, r *http.Request) {
	algo, err := algoParam(r)
	if err != nil {
		s.handleError(w, "failed to read topology nodes", err)
		return
	}
	s.topologyNodes(w, r, algo)
}

func (s *Server) topologyNodes(w http.ResponseWriter, r *http.Request, algo uint32) {
	query := `LET ids = UNIQUE(FLATTEN(FOR e IN @@graph RETURN [e._from, e._to]))
FOR id IN ids
  FILTER STARTS_WITH(id, "igp_node/")
  LET v = DOCUMENT(id)
  FILTER v != null
`
	binds := map[string]any{}
	if algo != 0 {
		query += "  FILTER LENGTH(v.sids[* FILTER CURRENT.srv6_endpoint_behavior.algo == @algo]) > 0\n"
		binds["algo"] = algo
	}
	query += "  LIMIT @limit\n"
	if r.URL.Query().Get("include_all_fields") == "true" {
		query += "  RETURN v"
	} else {
		query += "  RETURN " + vertexSummaryProjection
	}

	s.graphDocsResponse(w, r, "failed to read topology nodes", query, "nodes", binds)
}
