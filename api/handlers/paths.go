package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jalapeno-sdn/jalapeno-api/pkg/graph"
)

func (s *Server) pathRequest(r *http.Request) (graph.PathRequest, error) {
	algo, err := algoParam(r)
	if err != nil {
		return graph.PathRequest{}, err
	}
	q := r.URL.Query()
	return graph.PathRequest{
		Graph:             chi.URLParam(r, "graph"),
		Source:            q.Get("source"),
		Destination:       q.Get("destination"),
		Direction:         graph.Direction(q.Get("direction")),
		Algo:              algo,
		ExcludedCountries: csvParam(r, "excluded_countries"),
	}, nil
}

// GetShortestPath computes the hop-count shortest path.
func (s *Server) GetShortestPath(w http.ResponseWriter, r *http.Request) {
	s.shortestPath(w, r, graph.WeightNone)
}

// GetShortestPathLatency computes the lowest-latency path. total_latency is
// always present in the response, null when no traversed edge carries a
// latency measurement.
func (s *Server) GetShortestPathLatency(w http.ResponseWriter, r *http.Request) {
	s.shortestPath(w, r, graph.WeightLatency)
}

// GetShortestPathUtilization computes the least-utilized path by outbound
// interface utilization.
func (s *Server) GetShortestPathUtilization(w http.ResponseWriter, r *http.Request) {
	s.shortestPath(w, r, graph.WeightUtilization)
}

func (s *Server) shortestPath(w http.ResponseWriter, r *http.Request, weight graph.Weight) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := s.pathRequest(r)
	if err != nil {
		s.handleError(w, "failed to compute path", err)
		return
	}
	req.Weight = weight

	res, err := s.engine.ShortestPath(ctx, req)
	if err != nil {
		s.handleError(w, "failed to compute path", err)
		return
	}
	writeJSON(w, http.StatusOK, withWeightField(res, weight))
}

// withWeightField forces the aggregate field for the requested weight to
// appear in the JSON body even when its value is null. The outer field
// shadows the embedded omitempty one.
func withWeightField(res *graph.PathResult, weight graph.Weight) any {
	switch weight {
	case graph.WeightLatency:
		return struct {
			*graph.PathResult
			TotalLatency *float64 `json:"total_latency"`
		}{res, res.TotalLatency}
	case graph.WeightUtilization:
		return struct {
			*graph.PathResult
			AverageUtilization *float64 `json:"average_utilization"`
		}{res, res.AverageUtilization}
	case graph.WeightLoad:
		return struct {
			*graph.PathResult
			AverageLoad *float64 `json:"average_load"`
		}{res, res.AverageLoad}
	default:
		return res
	}
}

// GetShortestPathLoad computes the least-loaded path, then feeds the chosen
// path back by bumping every traversed edge's load. The response carries the
// per-edge update report.
func (s *Server) GetShortestPathLoad(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := s.pathRequest(r)
	if err != nil {
		s.handleError(w, "failed to compute path", err)
		return
	}
	req.Weight = graph.WeightLoad

	increment := float64(graph.DefaultLoadIncrement)
	if v := r.URL.Query().Get("load_increment"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			s.handleError(w, "failed to compute path",
				fmt.Errorf("%w: load_increment must be a positive number", graph.ErrInvalidInput))
			return
		}
		increment = f
	}

	res, err := s.engine.ShortestPath(ctx, req)
	if err != nil {
		s.handleError(w, "failed to compute path", err)
		return
	}
	if res.Found {
		res.LoadData = graph.UpdatePathLoad(ctx, s.log, s.db, req.Graph, res.Path, increment)
	}
	writeJSON(w, http.StatusOK, withWeightField(res, graph.WeightLoad))
}

// GetShortestPathSovereignty computes a shortest path that avoids the given
// countries. The exclusion list is mandatory here; without it this endpoint
// would just duplicate shortest_path.
func (s *Server) GetShortestPathSovereignty(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := s.pathRequest(r)
	if err != nil {
		s.handleError(w, "failed to compute path", err)
		return
	}
	if len(req.ExcludedCountries) == 0 {
		s.handleError(w, "failed to compute path",
			fmt.Errorf("%w: excluded_countries is required", graph.ErrInvalidInput))
		return
	}

	res, err := s.engine.ShortestPath(ctx, req)
	if err != nil {
		s.handleError(w, "failed to compute path", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetBestPaths returns up to limit candidate paths in weight order.
func (s *Server) GetBestPaths(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := s.pathRequest(r)
	if err != nil {
		s.handleError(w, "failed to compute best paths", err)
		return
	}
	limit := intParam(r, "limit", graph.DefaultBestPathsLimit)

	paths, err := s.engine.BestPaths(ctx, req, limit)
	if err != nil {
		s.handleError(w, "failed to compute best paths", err)
		return
	}
	if paths == nil {
		paths = []*graph.PathResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"found": len(paths) > 0,
		"count": len(paths),
		"paths": paths,
	})
}

// GetNextBestPath returns the shortest path plus alternates at the same hop
// count and one hop longer.
func (s *Server) GetNextBestPath(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req, err := s.pathRequest(r)
	if err != nil {
		s.handleError(w, "failed to compute alternate paths", err)
		return
	}
	sameHop := intParam(r, "same_hop_limit", graph.DefaultSameHopLimit)
	plusOne := intParam(r, "plus_one_limit", graph.DefaultPlusOneLimit)

	res, err := s.engine.NextBestPaths(ctx, req, sameHop, plusOne)
	if err != nil {
		s.handleError(w, "failed to compute alternate paths", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetTraverse enumerates loop-free walks from a source, optionally pinned to
// a destination.
func (s *Server) GetTraverse(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	walks, graphName, err := s.traverse(ctx, r)
	if err != nil {
		s.handleError(w, "failed to traverse graph", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"graph": graphName,
		"count": len(walks),
		"paths": walks,
	})
}

// GetTraverseSimple is the traversal with each walk reduced to its vertex id
// sequence.
func (s *Server) GetTraverseSimple(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	walks, graphName, err := s.traverse(ctx, r)
	if err != nil {
		s.handleError(w, "failed to traverse graph", err)
		return
	}

	paths := make([][]string, 0, len(walks))
	for _, walk := range walks {
		ids := make([]string, len(walk.Vertices))
		for i, v := range walk.Vertices {
			ids[i] = v.ID
		}
		paths = append(paths, ids)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"graph": graphName,
		"count": len(paths),
		"paths": paths,
	})
}

func (s *Server) traverse(ctx context.Context, r *http.Request) ([]graph.Walk, string, error) {
	q := r.URL.Query()
	req := graph.TraverseRequest{
		Graph:       chi.URLParam(r, "graph"),
		Source:      q.Get("source"),
		Destination: q.Get("destination"),
		MinDepth:    intParam(r, "min_depth", 0),
		MaxDepth:    intParam(r, "max_depth", 0),
		Direction:   graph.Direction(q.Get("direction")),
		Limit:       intParam(r, "limit", 0),
	}
	walks, err := s.engine.Traverse(ctx, req)
	if err != nil {
		return nil, "", err
	}
	if walks == nil {
		walks = []graph.Walk{}
	}
	return walks, req.Graph, nil
}

// GetNeighbors returns the distinct vertices within depth edges of a source.
func (s *Server) GetNeighbors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	req := graph.NeighborsRequest{
		Graph:     chi.URLParam(r, "graph"),
		Source:    q.Get("source"),
		Depth:     intParam(r, "depth", 0),
		Direction: graph.Direction(q.Get("direction")),
		Limit:     intParam(r, "limit", 0),
	}

	neighbors, err := s.engine.Neighbors(ctx, req)
	if err != nil {
		s.handleError(w, "failed to read neighbors", err)
		return
	}
	if neighbors == nil {
		neighbors = []graph.Neighbor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"graph":     req.Graph,
		"source":    req.Source,
		"count":     len(neighbors),
		"neighbors": neighbors,
	})
}
