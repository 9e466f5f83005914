package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jalapeno-sdn/jalapeno-api/pkg/arango"
)

// loadStore is an in-memory edge store exposing only the load attribute.
type loadStore struct {
	loads map[string]float64
}

func (s *loadStore) client() *arango.MockClient {
	return &arango.MockClient{
		ReadDocumentFunc: func(_ context.Context, _ string, key string, out any) error {
			raw, _ := json.Marshal(map[string]any{"load": s.loads[key]})
			return json.Unmarshal(raw, out)
		},
		UpdateDocumentFunc: func(_ context.Context, _ string, key string, patch any) error {
			s.loads[key] = patch.(map[string]any)["load"].(float64)
			return nil
		},
	}
}

func loadPath(keys ...string) []PathStep {
	steps := make([]PathStep, 0, len(keys)+1)
	for i, k := range keys {
		steps = append(steps, PathStep{
			Vertex: Vertex{ID: fmt.Sprintf("igp_node/v%d", i)},
			Edge:   &Edge{Key: k},
		})
	}
	steps = append(steps, PathStep{Vertex: Vertex{ID: "igp_node/last"}})
	return steps
}

func TestUpdatePathLoad_Monotonic(t *testing.T) {
	store := &loadStore{loads: map[string]float64{"ab": 0, "bc": 0, "cd": 0}}
	db := store.client()
	path := loadPath("ab", "bc", "cd")

	report := UpdatePathLoad(context.Background(), testLogger(), db, "ipv6_graph", path, 10)
	require.Equal(t, []string{"ab", "bc", "cd"}, report.UpdatedEdges)
	require.Equal(t, 3, report.EdgeCount)
	require.InDelta(t, 30, report.TotalLoad, 1e-9)
	require.InDelta(t, 10, report.AverageLoad, 1e-9)

	report = UpdatePathLoad(context.Background(), testLogger(), db, "ipv6_graph", path, 10)
	require.InDelta(t, 20, store.loads["ab"], 1e-9)
	require.InDelta(t, 20, store.loads["cd"], 1e-9)
	require.NotNil(t, report.HighestLoad)
	require.InDelta(t, 20, report.HighestLoad.LoadValue, 1e-9)
	require.InDelta(t, report.TotalLoad/float64(report.EdgeCount), report.AverageLoad, 1e-9)
}

func TestUpdatePathLoad_DefaultIncrement(t *testing.T) {
	store := &loadStore{loads: map[string]float64{"ab": 5}}

	report := UpdatePathLoad(context.Background(), testLogger(), store.client(), "ipv6_graph", loadPath("ab"), 0)
	require.InDelta(t, 5+DefaultLoadIncrement, store.loads["ab"], 1e-9)
	require.Equal(t, 1, report.EdgeCount)
}

func TestUpdatePathLoad_SkipsFailingEdges(t *testing.T) {
	store := &loadStore{loads: map[string]float64{"ab": 0, "bc": 0}}
	db := store.client()
	inner := db.ReadDocumentFunc
	db.ReadDocumentFunc = func(ctx context.Context, col, key string, out any) error {
		if key == "ab" {
			return fmt.Errorf("read failed")
		}
		return inner(ctx, col, key, out)
	}

	report := UpdatePathLoad(context.Background(), testLogger(), db, "ipv6_graph", loadPath("ab", "bc"), 10)
	require.Equal(t, []string{"bc"}, report.UpdatedEdges)
	require.Equal(t, 1, report.EdgeCount)
	require.InDelta(t, 0, store.loads["ab"], 1e-9)
	require.InDelta(t, 10, store.loads["bc"], 1e-9)
}

func TestUpdatePathLoad_CancelledContextKeepsPartialUpdates(t *testing.T) {
	store := &loadStore{loads: map[string]float64{"ab": 0, "bc": 0}}
	db := store.client()

	ctx, cancel := context.WithCancel(context.Background())
	inner := db.UpdateDocumentFunc
	db.UpdateDocumentFunc = func(ctx context.Context, col, key string, patch any) error {
		cancel() // cancel after the first write
		return inner(ctx, col, key, patch)
	}

	report := UpdatePathLoad(ctx, testLogger(), db, "ipv6_graph", loadPath("ab", "bc"), 10)
	require.Equal(t, []string{"ab"}, report.UpdatedEdges)
	require.InDelta(t, 10, store.loads["ab"], 1e-9, "applied update is not rolled back")
	require.InDelta(t, 0, store.loads["bc"], 1e-9)
}
