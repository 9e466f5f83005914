package graph

import (
	"context"
	"log/slog"

	"github.com/jalapeno-sdn/jalapeno-api/pkg/arango"
)

// DefaultLoadIncrement is added to each path edge's load counter when the
// caller does not specify an increment.
const DefaultLoadIncrement = 10

// UpdatePathLoad applies the load feedback increment to every edge on the
// path and reports the resulting load distribution. The read-modify-write
// per edge is deliberately not transactional: load is a back-pressure hint
// and the store's per-document last-writer-wins is the serialization point.
//
// Edges that fail to update are logged and skipped; a cancelled context
// stops the pass without rolling back edges already written.
func UpdatePathLoad(ctx context.Context, log *slog.Logger, db arango.Client, graph string, path []PathStep, increment float64) *LoadReport {
	if increment <= 0 {
		increment = DefaultLoadIncrement
	}

	report := &LoadReport{
		UpdatedEdges: []string{},
		EdgeLoads:    []EdgeLoad{},
	}

	for _, step := range path {
		if step.Edge == nil {
			continue
		}
		if ctx.Err() != nil {
			log.Warn("load update interrupted, partial updates kept",
				"graph", graph, "updated", len(report.UpdatedEdges), "error", ctx.Err())
			break
		}

		key := step.Edge.Key
		var doc struct {
			Load float64 `json:"load"`
		}
		if err := db.ReadDocument(ctx, graph, key, &doc); err != nil {
			log.Warn("load update: failed to read edge", "graph", graph, "edge", key, "error", err)
			continue
		}

		newLoad := doc.Load + increment
		if err := db.UpdateDocument(ctx, graph, key, map[string]any{"load": newLoad}); err != nil {
			log.Warn("load update: failed to write edge", "graph", graph, "edge", key, "error", err)
			continue
		}

		report.UpdatedEdges = append(report.UpdatedEdges, key)
		report.EdgeLoads = append(report.EdgeLoads, EdgeLoad{EdgeKey: key, Load: newLoad})
	}

	report.EdgeCount = len(report.EdgeLoads)
	for _, el := range report.EdgeLoads {
		report.TotalLoad += el.Load
		if report.HighestLoad == nil || el.Load > report.HighestLoad.LoadValue {
			report.HighestLoad = &HighestLoad{EdgeKey: el.EdgeKey, LoadValue: el.Load}
		}
	}
	if report.EdgeCount > 0 {
		report.AverageLoad = report.TotalLoad / float64(report.EdgeCount)
	}
	return report
}
