package graph

import (
	"fmt"
	"strings"
)

// AQL query builders. Direction keywords and depth expressions come from
// validated enums; every user-supplied value travels as a bind variable, and
// the edge collection is bound with @@graph.

// shortestPathQuery is the single-shortest-path form used when no algo or
// country constraint applies. The cursor yields one row per visited vertex,
// with the edge that led into it (null on the first row).
func shortestPathQuery(dir Direction, weighted bool) string {
	opts := ""
	if weighted {
		opts = "\n  OPTIONS { weightAttribute: @weight, defaultWeight: 1 }"
	}
	return fmt.Sprintf(`FOR v, e IN %s SHORTEST_PATH @source TO @destination @@graph%s
  RETURN { vertex: v, edge: e }`, dir.keyword(), opts)
}

// kShortestPathsQuery enumerates candidate paths in non-decreasing weight
// order and filters them server-side:
//   - withAlgo drops any path containing an IGP node that does not advertise
//     a SID for the requested Flex-Algo;
//   - withCountries drops any path touching an edge tagged with an excluded
//     country code.
func kShortestPathsQuery(dir Direction, weighted, withAlgo, withCountries bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FOR p IN %s K_SHORTEST_PATHS @source TO @destination @@graph\n", dir.keyword())
	if weighted {
		b.WriteString("  OPTIONS { weightAttribute: @weight, defaultWeight: 1 }\n")
	}
	if withAlgo {
		b.WriteString(`  FILTER LENGTH(
    FOR v IN p.vertices
      FILTER STARTS_WITH(v._id, "igp_node/")
      FILTER LENGTH(v.sids[* FILTER CURRENT.srv6_endpoint_behavior.algo == @algo]) == 0
      RETURN v
  ) == 0
`)
	}
	if withCountries {
		b.WriteString("  FILTER LENGTH(INTERSECTION(FLATTEN(p.edges[*].country_codes), @excluded_countries)) == 0\n")
	}
	b.WriteString("  LIMIT @limit\n  RETURN { vertices: p.vertices, edges: p.edges }")
	return b.String()
}

// fixedHopPathsQuery enumerates loop-free walks of exactly @hops edges that
// terminate at the destination. Used for the same-hop and hop-plus-one
// buckets of the next-best-path search.
func fixedHopPathsQuery(dir Direction) string {
	return fmt.Sprintf(`FOR v, e, p IN @hops..@hops %s @source @@graph
  OPTIONS { uniqueVertices: "path", bfs: true }
  FILTER v._id == @destination
  LIMIT @limit
  RETURN { vertices: p.vertices, edges: p.edges }`, dir.keyword())
}

// traverseQuery enumerates loop-free walks between @min and @max edges deep,
// optionally pinned to a destination.
func traverseQuery(dir Direction, withDestination bool) string {
	filter := ""
	if withDestination {
		filter = "\n  FILTER v._id == @destination"
	}
	return fmt.Sprintf(`FOR v, e, p IN @min..@max %s @source @@graph
  OPTIONS { uniqueVertices: "path", bfs: true }%s
  LIMIT @limit
  RETURN { vertices: p.vertices, edges: p.edges }`, dir.keyword(), filter)
}

// neighborsQuery returns the distinct vertices reachable within @depth edges
// of the source, with the edge that reached each one.
func neighborsQuery(dir Direction) string {
	return fmt.Sprintf(`FOR v, e IN 1..@depth %s @source @@graph
  OPTIONS { uniqueVertices: "global", bfs: true }
  LIMIT @limit
  RETURN { vertex: v, edge: e }`, dir.keyword())
}
