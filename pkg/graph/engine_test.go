package graph

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jalapeno-sdn/jalapeno-api/pkg/arango"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testVertex builds a vertex document with a single SID advertisement.
func testVertex(key, sid string, algo uint32) map[string]any {
	return map[string]any{
		"_id":  "igp_node/" + key,
		"_key": key,
		"name": key,
		"sids": []map[string]any{
			{"srv6_sid": sid, "srv6_endpoint_behavior": map[string]any{"algo": algo}},
		},
	}
}

func testEdge(key string, latency float64, countries ...string) map[string]any {
	e := map[string]any{
		"_id":     "ipv6_graph/" + key,
		"_key":    key,
		"latency": latency,
	}
	if len(countries) > 0 {
		e["country_codes"] = countries
	}
	return e
}

// shortestPathRows mimics the per-vertex rows of a SHORTEST_PATH cursor,
// where each row carries the edge that led into its vertex.
func shortestPathRows(vertices []map[string]any, edges []map[string]any) []any {
	rows := make([]any, len(vertices))
	for i, v := range vertices {
		row := map[string]any{"vertex": v, "edge": nil}
		if i > 0 {
			row["edge"] = edges[i-1]
		}
		rows[i] = row
	}
	return rows
}

func fourNodeRows() []any {
	return shortestPathRows(
		[]map[string]any{
			testVertex("A", "fc00:0:1::", 0),
			testVertex("B", "fc00:0:2::", 0),
			testVertex("C", "fc00:0:3::", 0),
			testVertex("D", "fc00:0:4::", 0),
		},
		[]map[string]any{
			testEdge("ab", 10),
			testEdge("bc", 10),
			testEdge("cd", 10),
		},
	)
}

func TestShortestPath_SimpleOutbound(t *testing.T) {
	db := &arango.MockClient{
		QueryFunc: func(_ context.Context, query string, binds map[string]any) (arango.Cursor, error) {
			require.Contains(t, query, "SHORTEST_PATH")
			require.NotContains(t, query, "K_SHORTEST_PATHS")
			require.Equal(t, "ipv6_graph", binds["@graph"])
			require.Equal(t, "igp_node/A", binds["source"])
			return arango.NewDocCursor(fourNodeRows()...), nil
		},
	}
	eng := NewEngine(testLogger(), db)

	res, err := eng.ShortestPath(context.Background(), PathRequest{
		Graph:       "ipv6_graph",
		Source:      "igp_node/A",
		Destination: "igp_node/D",
		Direction:   DirectionOutbound,
	})
	require.NoError(t, err)

	require.True(t, res.Found)
	require.Equal(t, 3, res.Hopcount)
	require.Equal(t, 4, res.VertexCount)
	require.Equal(t, uint32(0), res.Algo)
	require.Equal(t, "igp_node/A", res.SourceInfo.ID)
	require.Equal(t, "igp_node/D", res.DestinationInfo.ID)

	// Edges point toward the next vertex; the terminal step has none.
	require.Equal(t, "ab", res.Path[0].Edge.Key)
	require.Equal(t, "cd", res.Path[2].Edge.Key)
	require.Nil(t, res.Path[3].Edge)

	require.NotNil(t, res.SRv6)
	require.Equal(t, "fc00:0:", res.SRv6.Block)
	require.Equal(t, "fc00:0:1:2:3:4::", res.SRv6.USID)
	require.Len(t, res.SRv6.SIDList, 4)
}

func TestShortestPath_SourceEqualsDestination(t *testing.T) {
	db := &arango.MockClient{
		QueryFunc: func(_ context.Context, query string, binds map[string]any) (arango.Cursor, error) {
			require.Contains(t, query, "SHORTEST_PATH")
			require.Equal(t, binds["source"], binds["destination"])
			rows := shortestPathRows([]map[string]any{testVertex("A", "fc00:0:1::", 0)}, nil)
			return arango.NewDocCursor(rows...), nil
		},
	}
	eng := NewEngine(testLogger(), db)

	res, err := eng.ShortestPath(context.Background(), PathRequest{
		Graph: "ipv6_graph", Source: "igp_node/A", Destination: "igp_node/A",
	})
	require.NoError(t, err)

	require.True(t, res.Found)
	require.Equal(t, 0, res.Hopcount)
	require.Equal(t, 1, res.VertexCount)
	require.Len(t, res.Path, 1)
	require.Nil(t, res.Path[0].Edge)
	require.Equal(t, "igp_node/A", res.SourceInfo.ID)
	require.Equal(t, "igp_node/A", res.DestinationInfo.ID)

	require.NotNil(t, res.SRv6)
	require.Equal(t, []string{"fc00:0:1::"}, res.SRv6.SIDList)
	require.Equal(t, "fc00:0:1::", res.SRv6.USID)
}

func TestShortestPath_NotFound(t *testing.T) {
	db := &arango.MockClient{
		QueryFunc: func(_ context.Context, _ string, _ map[string]any) (arango.Cursor, error) {
			return arango.NewDocCursor(), nil
		},
	}
	eng := NewEngine(testLogger(), db)

	res, err := eng.ShortestPath(context.Background(), PathRequest{
		Graph: "ipv6_graph", Source: "igp_node/A", Destination: "igp_node/Z",
	})
	require.NoError(t, err)
	require.False(t, res.Found)
	require.Empty(t, res.Path)
}

func TestShortestPath_Validation(t *testing.T) {
	eng := NewEngine(testLogger(), &arango.MockClient{})

	_, err := eng.ShortestPath(context.Background(), PathRequest{Graph: "g", Destination: "d"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = eng.ShortestPath(context.Background(), PathRequest{
		Graph: "g", Source: "s", Destination: "d", Direction: "sideways",
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = eng.ShortestPath(context.Background(), PathRequest{
		Graph: "g", Source: "s", Destination: "d", Weight: "hops",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestShortestPath_GraphMissing(t *testing.T) {
	db := &arango.MockClient{
		HasCollectionFunc: func(_ context.Context, _ string) (bool, error) { return false, nil },
	}
	eng := NewEngine(testLogger(), db)

	_, err := eng.ShortestPath(context.Background(), PathRequest{
		Graph: "nope", Source: "s", Destination: "d",
	})
	require.ErrorIs(t, err, arango.ErrNotFound)
}

func TestShortestPath_AlgoConstraint(t *testing.T) {
	walk := map[string]any{
		"vertices": []map[string]any{
			testVertex("A", "fc00:0:101::", 128),
			testVertex("B", "fc00:0:102::", 128),
			testVertex("C", "fc00:0:103::", 128),
			testVertex("D", "fc00:0:104::", 128),
		},
		"edges": []map[string]any{
			testEdge("ab", 10), testEdge("bc", 10), testEdge("cd", 10),
		},
	}
	db := &arango.MockClient{
		QueryFunc: func(_ context.Context, query string, binds map[string]any) (arango.Cursor, error) {
			require.Contains(t, query, "K_SHORTEST_PATHS")
			require.Contains(t, query, "srv6_endpoint_behavior.algo == @algo")
			require.Equal(t, uint32(128), binds["algo"])
			require.Equal(t, 1, binds["limit"])
			return arango.NewDocCursor(walk), nil
		},
	}
	eng := NewEngine(testLogger(), db)

	res, err := eng.ShortestPath(context.Background(), PathRequest{
		Graph: "ipv6_graph", Source: "igp_node/A", Destination: "igp_node/D", Algo: 128,
	})
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, uint32(128), res.Algo)
	require.Equal(t, 3, res.Hopcount)
	require.Equal(t, "fc00:0:101:102:103:104::", res.SRv6.USID)
	require.Equal(t, uint32(128), res.SRv6.Algo)
}

func TestShortestPath_SovereigntyExclusion(t *testing.T) {
	walk := map[string]any{
		"vertices": []map[string]any{
			testVertex("A", "fc00:0:1::", 0),
			testVertex("Y", "fc00:0:9::", 0),
			testVertex("D", "fc00:0:4::", 0),
		},
		"edges": []map[string]any{
			testEdge("ay", 10, "DE"), testEdge("yd", 10, "DE"),
		},
	}
	db := &arango.MockClient{
		QueryFunc: func(_ context.Context, query string, binds map[string]any) (arango.Cursor, error) {
			require.Contains(t, query, "INTERSECTION(FLATTEN(p.edges[*].country_codes), @excluded_countries)")
			require.Equal(t, []string{"US"}, binds["excluded_countries"])
			return arango.NewDocCursor(walk), nil
		},
	}
	eng := NewEngine(testLogger(), db)

	res, err := eng.ShortestPath(context.Background(), PathRequest{
		Graph: "ipv6_graph", Source: "igp_node/A", Destination: "igp_node/D",
		ExcludedCountries: []string{"US"},
	})
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, []string{"DE"}, res.CountriesTraversed)
	require.Equal(t, []string{"US"}, res.ExcludedCountries)
}

func TestShortestPath_LatencyAggregate(t *testing.T) {
	db := &arango.MockClient{
		QueryFunc: func(_ context.Context, query string, binds map[string]any) (arango.Cursor, error) {
			require.Contains(t, query, "weightAttribute: @weight")
			require.Equal(t, "latency", binds["weight"])
			return arango.NewDocCursor(fourNodeRows()...), nil
		},
	}
	eng := NewEngine(testLogger(), db)

	res, err := eng.ShortestPath(context.Background(), PathRequest{
		Graph: "ipv6_graph", Source: "igp_node/A", Destination: "igp_node/D",
		Weight: WeightLatency,
	})
	require.NoError(t, err)
	require.NotNil(t, res.TotalLatency)
	require.InDelta(t, 30, *res.TotalLatency, 1e-9)
}

func TestShortestPath_AggregateNilWithoutWeightedEdges(t *testing.T) {
	rows := shortestPathRows(
		[]map[string]any{
			testVertex("A", "fc00:0:1::", 0),
			testVertex("B", "fc00:0:2::", 0),
		},
		[]map[string]any{
			{"_id": "ipv6_graph/ab", "_key": "ab"}, // no load attribute
		},
	)
	db := &arango.MockClient{
		QueryFunc: func(_ context.Context, _ string, _ map[string]any) (arango.Cursor, error) {
			return arango.NewDocCursor(rows...), nil
		},
	}
	eng := NewEngine(testLogger(), db)

	res, err := eng.ShortestPath(context.Background(), PathRequest{
		Graph: "ipv6_graph", Source: "igp_node/A", Destination: "igp_node/B",
		Weight: WeightLoad,
	})
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Nil(t, res.AverageLoad)
}

func TestBestPaths_UniqueSequences(t *testing.T) {
	mk := func(keys ...string) map[string]any {
		vertices := make([]map[string]any, len(keys))
		for i, k := range keys {
			vertices[i] = testVertex(k, "fc00:0:"+k+"::", 0)
		}
		edges := make([]map[string]any, len(keys)-1)
		for i := range edges {
			edges[i] = testEdge(keys[i]+keys[i+1], 10)
		}
		return map[string]any{"vertices": vertices, "edges": edges}
	}

	db := &arango.MockClient{
		QueryFunc: func(_ context.Context, _ string, binds map[string]any) (arango.Cursor, error) {
			require.Equal(t, 3, binds["limit"])
			return arango.NewDocCursor(mk("1", "2", "4"), mk("1", "2", "4"), mk("1", "3", "4")), nil
		},
	}
	eng := NewEngine(testLogger(), db)
	req := PathRequest{Graph: "ipv6_graph", Source: "igp_node/1", Destination: "igp_node/4"}

	paths, err := eng.BestPaths(context.Background(), req, 3)
	require.NoError(t, err)
	require.Len(t, paths, 2, "duplicate vertex sequences are dropped")

	paths, err = eng.BestPaths(context.Background(), req, 0)
	require.NoError(t, err)
	require.Empty(t, paths)

	_, err = eng.BestPaths(context.Background(), req, -1)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestNextBestPaths(t *testing.T) {
	alt := map[string]any{
		"vertices": []map[string]any{
			testVertex("A", "fc00:0:1::", 0),
			testVertex("X", "fc00:0:8::", 0),
			testVertex("C", "fc00:0:3::", 0),
			testVertex("D", "fc00:0:4::", 0),
		},
		"edges": []map[string]any{
			testEdge("ax", 10), testEdge("xc", 10), testEdge("cd", 10),
		},
	}
	// Same vertex sequence as the shortest path; must be filtered out.
	dup := map[string]any{
		"vertices": []map[string]any{
			testVertex("A", "fc00:0:1::", 0),
			testVertex("B", "fc00:0:2::", 0),
			testVertex("C", "fc00:0:3::", 0),
			testVertex("D", "fc00:0:4::", 0),
		},
		"edges": []map[string]any{
			testEdge("ab", 10), testEdge("bc", 10), testEdge("cd", 10),
		},
	}

	db := &arango.MockClient{
		QueryFunc: func(_ context.Context, query string, binds map[string]any) (arango.Cursor, error) {
			if strings.Contains(query, "SHORTEST_PATH") {
				return arango.NewDocCursor(fourNodeRows()...), nil
			}
			switch binds["hops"] {
			case 3:
				return arango.NewDocCursor(dup, alt), nil
			case 4:
				return arango.NewDocCursor(), nil
			}
			t.Fatalf("unexpected hops bind: %v", binds["hops"])
			return nil, nil
		},
	}
	eng := NewEngine(testLogger(), db)

	res, err := eng.NextBestPaths(context.Background(), PathRequest{
		Graph: "ipv6_graph", Source: "igp_node/A", Destination: "igp_node/D",
	}, 4, 8)
	require.NoError(t, err)

	require.True(t, res.Found)
	require.Equal(t, 3, res.ShortestPath.Hopcount)
	require.Len(t, res.SameHopPaths, 1, "base path excluded from the same-hop bucket")
	require.Equal(t, "igp_node/X", res.SameHopPaths[0].Path[1].Vertex.ID)
	require.Empty(t, res.PlusOnePaths)
	require.Equal(t, 2, res.TotalPaths)
}

func TestTraverse(t *testing.T) {
	walk := map[string]any{
		"vertices": []map[string]any{
			testVertex("A", "fc00:0:1::", 0),
			testVertex("B", "fc00:0:2::", 0),
		},
		"edges": []map[string]any{testEdge("ab", 10)},
	}
	db := &arango.MockClient{
		QueryFunc: func(_ context.Context, query string, binds map[string]any) (arango.Cursor, error) {
			require.Contains(t, query, "@min..@max")
			require.Equal(t, 1, binds["min"])
			require.Equal(t, 5, binds["max"])
			require.NotContains(t, query, "@destination")
			return arango.NewDocCursor(walk), nil
		},
	}
	eng := NewEngine(testLogger(), db)

	walks, err := eng.Traverse(context.Background(), TraverseRequest{
		Graph: "ipv6_graph", Source: "igp_node/A",
	})
	require.NoError(t, err)
	require.Len(t, walks, 1)
	require.Equal(t, 1, walks[0].Hopcount)
	require.Len(t, walks[0].Vertices, 2)
}

func TestTraverse_BadDepths(t *testing.T) {
	eng := NewEngine(testLogger(), &arango.MockClient{})
	_, err := eng.Traverse(context.Background(), TraverseRequest{
		Graph: "g", Source: "s", MinDepth: 4, MaxDepth: 2,
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestNeighbors(t *testing.T) {
	db := &arango.MockClient{
		QueryFunc: func(_ context.Context, query string, binds map[string]any) (arango.Cursor, error) {
			require.Contains(t, query, "1..@depth")
			require.Equal(t, 1, binds["depth"])
			return arango.NewDocCursor(
				map[string]any{"vertex": testVertex("B", "fc00:0:2::", 0), "edge": testEdge("ab", 10)},
			), nil
		},
	}
	eng := NewEngine(testLogger(), db)

	neighbors, err := eng.Neighbors(context.Background(), NeighborsRequest{
		Graph: "ipv6_graph", Source: "igp_node/A",
	})
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	require.Equal(t, "igp_node/B", neighbors[0].Vertex.ID)
}
