package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jalapeno-sdn/jalapeno-api/pkg/graph"
	"github.com/jalapeno-sdn/jalapeno-api/pkg/rpo"
)

// GetRPOInfo documents the selector: the metric table and how to call it.
func (s *Server) GetRPOInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"description":       "reverse path optimization: select the best service endpoint and compute the path toward it",
		"supported_metrics": rpo.SupportedMetrics(),
		"endpoints": []string{
			"/api/v1/rpo/{collection}",
			"/api/v1/rpo/{collection}/select-optimal",
			"/api/v1/rpo/{collection}/select-from-list",
		},
	})
}

// GetRPOEndpoints lists the candidate endpoint documents in a collection.
func (s *Server) GetRPOEndpoints(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "collection")
	if err := s.ensureCollection(ctx, name); err != nil {
		s.handleError(w, "failed to read endpoints", err)
		return
	}

	limit := intParam(r, "limit", defaultDocumentLimit)
	if limit <= 0 || limit > maxDocumentLimit {
		limit = defaultDocumentLimit
	}

	docs, err := s.collectDocs(ctx, "FOR doc IN @@col LIMIT @limit RETURN doc",
		map[string]any{"@col": name, "limit": limit})
	if err != nil {
		s.handleError(w, "failed to read endpoints", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection": name,
		"endpoints":  docs,
		"count":      len(docs),
	})
}

type rpoPathSummary struct {
	Destination     string `json:"destination"`
	DestinationName string `json:"destination_name,omitempty"`
	PathFound       bool   `json:"path_found"`
	HopCount        int    `json:"hop_count"`
}

type rpoResponse struct {
	Collection    string            `json:"collection"`
	Source        string            `json:"source"`
	Endpoint      map[string]any    `json:"selected_endpoint"`
	Metric        string            `json:"optimization_metric"`
	MetricValue   any               `json:"metric_value"`
	Strategy      rpo.Strategy      `json:"optimization_strategy"`
	Algo          uint32            `json:"algo"`
	Evaluated     int               `json:"total_endpoints_evaluated"`
	ValidCount    int               `json:"valid_endpoints_count"`
	PathResult    *graph.PathResult `json:"path_result"`
	Summary       rpoPathSummary    `json:"summary"`
}

// GetRPOSelectOptimal scans a candidate collection, picks the endpoint that
// optimizes the requested metric, then computes the path from the source to
// it. A path failure is not fatal; the selection still stands and the path
// result carries found=false.
func (s *Server) GetRPOSelectOptimal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "collection")
	if err := s.ensureCollection(ctx, name); err != nil {
		s.handleError(w, "failed to select endpoint", err)
		return
	}

	limit := intParam(r, "limit", maxDocumentLimit)
	if limit <= 0 || limit > maxDocumentLimit {
		limit = maxDocumentLimit
	}
	candidates, err := s.collectDocs(ctx, "FOR doc IN @@col LIMIT @limit RETURN doc",
		map[string]any{"@col": name, "limit": limit})
	if err != nil {
		s.handleError(w, "failed to select endpoint", err)
		return
	}

	s.selectAndRoute(w, r, name, candidates)
}

// GetRPOSelectFromList selects among an explicit list of candidate document
// ids ("collection/key" entries). Missing documents are skipped.
func (s *Server) GetRPOSelectFromList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "collection")
	if err := s.ensureCollection(ctx, name); err != nil {
		s.handleError(w, "failed to select endpoint", err)
		return
	}

	ids := csvParam(r, "destinations")
	if len(ids) == 0 {
		s.handleError(w, "failed to select endpoint",
			fmt.Errorf("%w: destinations is required", graph.ErrInvalidInput))
		return
	}

	candidates := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		col, key, ok := strings.Cut(id, "/")
		if !ok || col == "" || key == "" {
			s.handleError(w, "failed to select endpoint",
				fmt.Errorf("%w: destination %q must be collection/key", graph.ErrInvalidInput, id))
			return
		}
		var doc map[string]any
		if err := s.db.ReadDocument(ctx, col, key, &doc); err != nil {
			s.log.Warn("skipping unreadable candidate", "id", id, "error", err)
			continue
		}
		candidates = append(candidates, doc)
	}

	s.selectAndRoute(w, r, name, candidates)
}

func (s *Server) selectAndRoute(w http.ResponseWriter, r *http.Request, collection string, candidates []map[string]any) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	source := q.Get("source")
	if source == "" {
		s.handleError(w, "failed to select endpoint",
			fmt.Errorf("%w: source is required", graph.ErrInvalidInput))
		return
	}
	graphName := q.Get("graphs")
	if graphName == "" {
		s.handleError(w, "failed to select endpoint",
			fmt.Errorf("%w: graphs is required", graph.ErrInvalidInput))
		return
	}
	metricName := q.Get("metric")
	if metricName == "" {
		s.handleError(w, "failed to select endpoint",
			fmt.Errorf("%w: metric is required", graph.ErrInvalidInput))
		return
	}
	metric, err := rpo.LookupMetric(metricName)
	if err != nil {
		s.handleError(w, "failed to select endpoint", err)
		return
	}
	algo, err := algoParam(r)
	if err != nil {
		s.handleError(w, "failed to select endpoint", err)
		return
	}

	sel, err := rpo.Select(candidates, metric, q.Get("value"))
	if err != nil {
		s.handleError(w, "failed to select endpoint", err)
		return
	}

	destID, _ := sel.Endpoint["_id"].(string)
	destName, _ := sel.Endpoint["name"].(string)

	pathReq := graph.PathRequest{
		Graph:       graphName,
		Source:      source,
		Destination: destID,
		Direction:   graph.Direction(q.Get("direction")),
		Weight:      graph.Weight(q.Get("weight")),
		Algo:        algo,
	}
	pathRes, err := s.engine.ShortestPath(ctx, pathReq)
	if err != nil {
		// Selection succeeded; the path is advisory. Report the miss instead
		// of failing the whole request.
		s.log.Warn("path computation for selected endpoint failed",
			"source", source, "destination", destID, "error", err)
		pathRes = &graph.PathResult{Found: false, Path: []graph.PathStep{}, Algo: algo}
	}

	writeJSON(w, http.StatusOK, rpoResponse{
		Collection:  collection,
		Source:      source,
		Endpoint:    sel.Endpoint,
		Metric:      metric.Name,
		MetricValue: sel.MetricValue,
		Strategy:    sel.Strategy,
		Algo:        algo,
		Evaluated:   sel.Evaluated,
		ValidCount:  sel.ValidCount,
		PathResult:  pathRes,
		Summary: rpoPathSummary{
			Destination:     destID,
			DestinationName: destName,
			PathFound:       pathRes.Found,
			HopCount:        pathRes.Hopcount,
		},
	})
}
