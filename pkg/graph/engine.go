package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jalapeno-sdn/jalapeno-api/pkg/arango"
	"github.com/jalapeno-sdn/jalapeno-api/pkg/srv6"
)

// ErrInvalidInput marks request validation failures, which map to HTTP 400.
var ErrInvalidInput = errors.New("invalid input")

const (
	// DefaultBestPathsLimit caps a best-paths query when the caller does not
	// ask for a specific count.
	DefaultBestPathsLimit = 4

	// DefaultSameHopLimit and DefaultPlusOneLimit bound the two alternate
	// buckets of the next-best-path search.
	DefaultSameHopLimit = 4
	DefaultPlusOneLimit = 8

	// DefaultWalkLimit caps traversal enumerations.
	DefaultWalkLimit = 100
)

// Engine computes paths against the topology graph. It never retries;
// backend failures surface to the caller, which owns retry policy.
type Engine struct {
	db  arango.Client
	log *slog.Logger
}

// NewEngine builds a path engine over the given store.
func NewEngine(log *slog.Logger, db arango.Client) *Engine {
	return &Engine{db: db, log: log}
}

// PathRequest describes one path computation.
type PathRequest struct {
	Graph             string
	Source            string
	Destination       string
	Direction         Direction
	Weight            Weight
	Algo              uint32
	ExcludedCountries []string
}

// Validate normalizes defaults and rejects malformed requests.
func (r *PathRequest) Validate() error {
	if r.Graph == "" {
		return fmt.Errorf("%w: graph is required", ErrInvalidInput)
	}
	if r.Source == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidInput)
	}
	if r.Destination == "" {
		return fmt.Errorf("%w: destination is required", ErrInvalidInput)
	}
	dir, err := ParseDirection(string(r.Direction))
	if err != nil {
		return err
	}
	r.Direction = dir
	switch r.Weight {
	case "", WeightNone:
		r.Weight = WeightNone
	case WeightLatency, WeightUtilization, WeightLoad:
	default:
		return fmt.Errorf("%w: unknown weight %q", ErrInvalidInput, r.Weight)
	}
	return nil
}

// ShortestPath computes the single best path under the request's weight,
// algo and country constraints. A missing path is not an error: the result
// carries found=false so callers can branch on it.
func (e *Engine) ShortestPath(ctx context.Context, req PathRequest) (*PathResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := e.ensureGraph(ctx, req.Graph); err != nil {
		return nil, err
	}

	var (
		steps []PathStep
		err   error
	)
	if req.Algo == 0 && len(req.ExcludedCountries) == 0 {
		steps, err = e.runShortestPath(ctx, req)
	} else {
		var walks []rawWalk
		walks, err = e.runKShortestPaths(ctx, req, 1)
		if err == nil && len(walks) > 0 {
			steps = walks[0].steps()
		}
	}
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return notFoundResult(req), nil
	}
	return e.finalize(req, steps), nil
}

// BestPaths returns up to limit candidate paths in non-decreasing weight
// order, each with a unique vertex sequence.
func (e *Engine) BestPaths(ctx context.Context, req PathRequest, limit int) ([]*PathResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}
	if limit == 0 {
		return nil, nil
	}
	if err := e.ensureGraph(ctx, req.Graph); err != nil {
		return nil, err
	}

	walks, err := e.runKShortestPaths(ctx, req, limit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(walks))
	paths := make([]*PathResult, 0, len(walks))
	for _, w := range walks {
		steps := w.steps()
		sig := pathSignature(steps)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		paths = append(paths, e.finalize(req, steps))
	}
	return paths, nil
}

// AlternatePaths groups the next-best-path result: the shortest path plus
// alternates at the same hop count and at hop count + 1.
type AlternatePaths struct {
	Found        bool          `json:"found"`
	ShortestPath *PathResult   `json:"shortest_path,omitempty"`
	SameHopPaths []*PathResult `json:"same_hop_paths"`
	PlusOnePaths []*PathResult `json:"plus_one_paths"`
	TotalPaths   int           `json:"total_paths"`
}

// NextBestPaths computes the shortest path and then enumerates alternate
// loop-free walks at the same hop count and one hop longer.
func (e *Engine) NextBestPaths(ctx context.Context, req PathRequest, sameHopLimit, plusOneLimit int) (*AlternatePaths, error) {
	if sameHopLimit <= 0 {
		sameHopLimit = DefaultSameHopLimit
	}
	if plusOneLimit <= 0 {
		plusOneLimit = DefaultPlusOneLimit
	}

	shortest, err := e.ShortestPath(ctx, req)
	if err != nil {
		return nil, err
	}
	if !shortest.Found {
		return &AlternatePaths{Found: false, SameHopPaths: []*PathResult{}, PlusOnePaths: []*PathResult{}}, nil
	}

	base := pathSignature(shortest.Path)
	sameHop, err := e.fixedHopAlternates(ctx, req, shortest.Hopcount, sameHopLimit, base)
	if err != nil {
		return nil, err
	}
	plusOne, err := e.fixedHopAlternates(ctx, req, shortest.Hopcount+1, plusOneLimit, base)
	if err != nil {
		return nil, err
	}

	return &AlternatePaths{
		Found:        true,
		ShortestPath: shortest,
		SameHopPaths: sameHop,
		PlusOnePaths: plusOne,
		TotalPaths:   1 + len(sameHop) + len(plusOne),
	}, nil
}

// TraverseRequest describes an enumeration of loop-free walks.
type TraverseRequest struct {
	Graph       string
	Source      string
	Destination string // optional; empty enumerates all walks
	MinDepth    int
	MaxDepth    int
	Direction   Direction
	Limit       int
}

// Validate normalizes defaults and rejects malformed traversal requests.
func (r *TraverseRequest) Validate() error {
	if r.Graph == "" {
		return fmt.Errorf("%w: graph is required", ErrInvalidInput)
	}
	if r.Source == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidInput)
	}
	if r.MinDepth <= 0 {
		r.MinDepth = 1
	}
	if r.MaxDepth <= 0 {
		r.MaxDepth = 5
	}
	if r.MaxDepth < r.MinDepth {
		return fmt.Errorf("%w: max_depth must be >= min_depth", ErrInvalidInput)
	}
	if r.Direction == "" {
		r.Direction = DirectionAny
	}
	dir, err := ParseDirection(string(r.Direction))
	if err != nil {
		return err
	}
	r.Direction = dir
	if r.Limit <= 0 || r.Limit > DefaultWalkLimit {
		r.Limit = DefaultWalkLimit
	}
	return nil
}

// Traverse enumerates loop-free walks from the source, optionally pinned to
// a destination.
func (e *Engine) Traverse(ctx context.Context, req TraverseRequest) ([]Walk, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := e.ensureGraph(ctx, req.Graph); err != nil {
		return nil, err
	}

	binds := map[string]any{
		"@graph": req.Graph,
		"source": req.Source,
		"min":    req.MinDepth,
		"max":    req.MaxDepth,
		"limit":  req.Limit,
	}
	if req.Destination != "" {
		binds["destination"] = req.Destination
	}

	walks, err := e.collectWalks(ctx, traverseQuery(req.Direction, req.Destination != ""), binds)
	if err != nil {
		return nil, err
	}

	out := make([]Walk, 0, len(walks))
	for _, w := range walks {
		out = append(out, Walk{Vertices: w.Vertices, Edges: w.Edges, Hopcount: len(w.Edges)})
	}
	return out, nil
}

// NeighborsRequest describes a neighborhood lookup.
type NeighborsRequest struct {
	Graph     string
	Source    string
	Depth     int
	Direction Direction
	Limit     int
}

// Neighbors returns the distinct vertices within depth edges of the source.
func (e *Engine) Neighbors(ctx context.Context, req NeighborsRequest) ([]Neighbor, error) {
	if req.Graph == "" {
		return nil, fmt.Errorf("%w: graph is required", ErrInvalidInput)
	}
	if req.Source == "" {
		return nil, fmt.Errorf("%w: source is required", ErrInvalidInput)
	}
	if req.Depth <= 0 {
		req.Depth = 1
	}
	if req.Direction == "" {
		req.Direction = DirectionAny
	}
	dir, err := ParseDirection(string(req.Direction))
	if err != nil {
		return nil, err
	}
	if req.Limit <= 0 || req.Limit > DefaultWalkLimit {
		req.Limit = DefaultWalkLimit
	}
	if err := e.ensureGraph(ctx, req.Graph); err != nil {
		return nil, err
	}

	cur, err := e.db.Query(ctx, neighborsQuery(dir), map[string]any{
		"@graph": req.Graph,
		"source": req.Source,
		"depth":  req.Depth,
		"limit":  req.Limit,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	var neighbors []Neighbor
	for cur.HasMore() {
		var n Neighbor
		if err := cur.ReadDocument(ctx, &n); err != nil {
			return nil, err
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, nil
}

func (e *Engine) ensureGraph(ctx context.Context, name string) error {
	ok, err := e.db.HasCollection(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: graph collection %q", arango.ErrNotFound, name)
	}
	return nil
}

// runShortestPath runs the single-shortest-path query and normalizes the
// per-vertex rows into steps where each edge points toward the next vertex.
func (e *Engine) runShortestPath(ctx context.Context, req PathRequest) ([]PathStep, error) {
	binds := map[string]any{
		"@graph":      req.Graph,
		"source":      req.Source,
		"destination": req.Destination,
	}
	weighted := req.Weight.Attribute() != ""
	if weighted {
		binds["weight"] = req.Weight.Attribute()
	}

	cur, err := e.db.Query(ctx, shortestPathQuery(req.Direction, weighted), binds)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	var (
		vertices []Vertex
		inbound  []*Edge // inbound[i] is the edge that led into vertices[i]
	)
	for cur.HasMore() {
		var row struct {
			Vertex Vertex `json:"vertex"`
			Edge   *Edge  `json:"edge"`
		}
		if err := cur.ReadDocument(ctx, &row); err != nil {
			return nil, err
		}
		vertices = append(vertices, row.Vertex)
		inbound = append(inbound, row.Edge)
	}
	if len(vertices) == 0 {
		return nil, nil
	}

	steps := make([]PathStep, len(vertices))
	for i := range vertices {
		steps[i] = PathStep{Vertex: vertices[i]}
		if i+1 < len(inbound) {
			steps[i].Edge = inbound[i+1]
		}
	}
	return steps, nil
}

// rawWalk is the wire shape of one K-shortest-paths or traversal result.
type rawWalk struct {
	Vertices []Vertex `json:"vertices"`
	Edges    []Edge   `json:"edges"`
}

func (w rawWalk) steps() []PathStep {
	steps := make([]PathStep, len(w.Vertices))
	for i := range w.Vertices {
		steps[i] = PathStep{Vertex: w.Vertices[i]}
		if i < len(w.Edges) {
			steps[i].Edge = &w.Edges[i]
		}
	}
	return steps
}

func (e *Engine) runKShortestPaths(ctx context.Context, req PathRequest, limit int) ([]rawWalk, error) {
	binds := map[string]any{
		"@graph":      req.Graph,
		"source":      req.Source,
		"destination": req.Destination,
		"limit":       limit,
	}
	weighted := req.Weight.Attribute() != ""
	if weighted {
		binds["weight"] = req.Weight.Attribute()
	}
	withAlgo := req.Algo != 0
	if withAlgo {
		binds["algo"] = req.Algo
	}
	withCountries := len(req.ExcludedCountries) > 0
	if withCountries {
		binds["excluded_countries"] = req.ExcludedCountries
	}

	return e.collectWalks(ctx, kShortestPathsQuery(req.Direction, weighted, withAlgo, withCountries), binds)
}

func (e *Engine) collectWalks(ctx context.Context, query string, binds map[string]any) ([]rawWalk, error) {
	cur, err := e.db.Query(ctx, query, binds)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	var walks []rawWalk
	for cur.HasMore() {
		var w rawWalk
		if err := cur.ReadDocument(ctx, &w); err != nil {
			return nil, err
		}
		walks = append(walks, w)
	}
	return walks, nil
}

// fixedHopAlternates enumerates walks of exactly hops edges ending at the
// destination, dropping the base path and duplicate vertex sequences.
func (e *Engine) fixedHopAlternates(ctx context.Context, req PathRequest, hops, limit int, baseSignature string) ([]*PathResult, error) {
	if hops <= 0 {
		return []*PathResult{}, nil
	}

	// Fetch one extra so the base path can be dropped without starving the
	// bucket.
	walks, err := e.collectWalks(ctx, fixedHopPathsQuery(req.Direction), map[string]any{
		"@graph":      req.Graph,
		"source":      req.Source,
		"destination": req.Destination,
		"hops":        hops,
		"limit":       limit + 1,
	})
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{baseSignature: true}
	paths := make([]*PathResult, 0, len(walks))
	for _, w := range walks {
		steps := w.steps()
		sig := pathSignature(steps)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		paths = append(paths, e.finalize(req, steps))
		if len(paths) == limit {
			break
		}
	}
	return paths, nil
}

// finalize normalizes raw steps into the canonical path record: endpoints,
// hop counts, the weight aggregate, country tags and the uSID carrier.
func (e *Engine) finalize(req PathRequest, steps []PathStep) *PathResult {
	res := &PathResult{
		Found:       true,
		Path:        steps,
		Hopcount:    len(steps) - 1,
		VertexCount: len(steps),
		Direction:   req.Direction,
		Algo:        req.Algo,
	}
	if len(steps) > 0 {
		src := steps[0].Vertex
		dst := steps[len(steps)-1].Vertex
		res.SourceInfo = &src
		res.DestinationInfo = &dst
	}

	switch req.Weight {
	case WeightLatency:
		res.TotalLatency = sumEdges(steps, func(e *Edge) *float64 { return e.Latency })
	case WeightUtilization:
		res.AverageUtilization = meanEdges(steps, func(e *Edge) *float64 { return e.PercentUtilOut })
	case WeightLoad:
		res.AverageLoad = meanEdges(steps, func(e *Edge) *float64 { return e.Load })
	}

	if len(req.ExcludedCountries) > 0 {
		res.ExcludedCountries = req.ExcludedCountries
		res.CountriesTraversed = CountriesOnPath(steps)
	}

	carrier := srv6.Synthesize(pathSIDs(steps, req.Algo), "", req.Algo)
	res.SRv6 = &carrier
	return res
}

// CountriesOnPath returns the distinct country codes tagged on the path's
// edges, in traversal order.
func CountriesOnPath(steps []PathStep) []string {
	seen := make(map[string]bool)
	countries := []string{}
	for _, step := range steps {
		if step.Edge == nil {
			continue
		}
		for _, cc := range step.Edge.CountryCodes {
			if !seen[cc] {
				seen[cc] = true
				countries = append(countries, cc)
			}
		}
	}
	return countries
}

func notFoundResult(req PathRequest) *PathResult {
	return &PathResult{
		Found:     false,
		Path:      []PathStep{},
		Direction: req.Direction,
		Algo:      req.Algo,
	}
}

func pathSignature(steps []PathStep) string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.Vertex.ID
	}
	return strings.Join(ids, ">")
}

// sumEdges sums an edge attribute over the path; nil when no edge carries
// the attribute.
func sumEdges(steps []PathStep, get func(*Edge) *float64) *float64 {
	var (
		total float64
		n     int
	)
	for _, step := range steps {
		if step.Edge == nil {
			continue
		}
		if v := get(step.Edge); v != nil {
			total += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &total
}

// meanEdges averages an edge attribute over the path; nil when no edge
// carries the attribute.
func meanEdges(steps []PathStep, get func(*Edge) *float64) *float64 {
	var (
		total float64
		n     int
	)
	for _, step := range steps {
		if step.Edge == nil {
			continue
		}
		if v := get(step.Edge); v != nil {
			total += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := total / float64(n)
	return &avg
}
