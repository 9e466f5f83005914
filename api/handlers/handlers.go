// Package handlers implements the HTTP surface of the API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jalapeno-sdn/jalapeno-api/pkg/arango"
	"github.com/jalapeno-sdn/jalapeno-api/pkg/graph"
	"github.com/jalapeno-sdn/jalapeno-api/pkg/rpo"
)

// requestTimeout bounds every handler's database work.
const requestTimeout = 30 * time.Second

// Server holds the handler dependencies. Handlers are methods so tests can
// build a Server around a mock store.
type Server struct {
	db     arango.Client
	engine *graph.Engine
	log    *slog.Logger
}

// New builds the handler set over the given store.
func New(log *slog.Logger, db arango.Client) *Server {
	return &Server{
		db:     db,
		engine: graph.NewEngine(log, db),
		log:    log,
	}
}

// Router mounts every route. Health stays unversioned for probes; the API
// lives under /api/v1.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/instances", s.GetInstances)

		r.Get("/collections", s.GetCollections)
		r.Get("/collections/{name}", s.GetCollectionDocuments)
		r.Get("/collections/{name}/keys", s.GetCollectionKeys)
		r.Get("/collections/{name}/info", s.GetCollectionInfo)

		r.Get("/graphs", s.GetGraphs)
		r.Route("/graphs/{graph}", func(r chi.Router) {
			r.Get("/", s.GetGraphInfo)
			r.Get("/info", s.GetGraphInfo)
			r.Get("/vertices", s.GetVertices)
			r.Get("/vertices/keys", s.GetVertexKeys)
			r.Get("/vertices/ids", s.GetVertexIDs)
			r.Get("/vertices/algo", s.GetVerticesByAlgo)
			r.Get("/vertices/summary", s.GetVerticesSummary)
			r.Get("/edges", s.GetEdges)
			r.Get("/edges/detail", s.GetEdgesDetail)
			r.Get("/topology", s.GetTopology)
			r.Get("/topology/nodes", s.GetTopologyNodes)
			r.Get("/topology/nodes/algo", s.GetTopologyNodesByAlgo)
			r.Get("/shortest_path", s.GetShortestPath)
			r.Get("/shortest_path/latency", s.GetShortestPathLatency)
			r.Get("/shortest_path/utilization", s.GetShortestPathUtilization)
			r.Get("/shortest_path/load", s.GetShortestPathLoad)
			r.Get("/shortest_path/sovereignty", s.GetShortestPathSovereignty)
			r.Get("/shortest_path/best-paths", s.GetBestPaths)
			r.Get("/shortest_path/next-best-path", s.GetNextBestPath)
			r.Get("/traverse", s.GetTraverse)
			r.Get("/traverse/simple", s.GetTraverseSimple)
			r.Get("/neighbors", s.GetNeighbors)
		})

		r.Get("/vpns", s.GetVPNs)
		r.Route("/vpns/{collection}", func(r chi.Router) {
			r.Get("/", s.GetVPNInfo)
			r.Get("/summary", s.GetVPNSummary)
			r.Get("/pe-routers", s.GetVPNPERouters)
			r.Get("/route-targets", s.GetVPNRouteTargets)
			r.Get("/prefixes/by-pe", s.GetVPNPrefixesByPE)
			r.Get("/prefixes/by-rt", s.GetVPNPrefixesByRT)
			r.Get("/prefixes/by-pe-rt", s.GetVPNPrefixesByPERT)
			r.Get("/prefixes/search", s.SearchVPNPrefixes)
		})

		r.Get("/rpo", s.GetRPOInfo)
		r.Route("/rpo/{collection}", func(r chi.Router) {
			r.Get("/", s.GetRPOEndpoints)
			r.Get("/select-optimal", s.GetRPOSelectOptimal)
			r.Get("/select-from-list", s.GetRPOSelectFromList)
		})
	})

	return r
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// handleError maps an error onto the HTTP error kinds. Validation and
// not-found details are safe to echo; backend failures are logged in full
// and surfaced sanitized.
func (s *Server) handleError(w http.ResponseWriter, operation string, err error) {
	switch {
	case errors.Is(err, graph.ErrInvalidInput),
		errors.Is(err, rpo.ErrUnknownMetric),
		errors.Is(err, rpo.ErrValueRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case arango.IsNotFound(err), errors.Is(err, rpo.ErrNoEndpoint):
		writeError(w, http.StatusNotFound, err.Error())
	case arango.IsUnavailable(err):
		s.log.Error(operation, "error", err)
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
	default:
		s.log.Error(operation, "error", err)
		writeError(w, http.StatusInternalServerError, operation+": "+SanitizeError(err))
	}
}

// intParam parses an optional integer query parameter, falling back to def
// on absence or garbage.
func intParam(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// algoParam parses the Flex-Algo parameter; absent means the base topology.
func algoParam(r *http.Request) (uint32, error) {
	v := r.URL.Query().Get("algo")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: algo must be an unsigned integer", graph.ErrInvalidInput)
	}
	return uint32(n), nil
}

// csvParam splits a comma-separated parameter, dropping empty entries.
func csvParam(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
