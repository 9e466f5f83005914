package rpo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func host(key string, attrs map[string]any) map[string]any {
	doc := map[string]any{"_id": "hosts/" + key, "_key": key, "name": key}
	for k, v := range attrs {
		doc[k] = v
	}
	return doc
}

func TestLookupMetric(t *testing.T) {
	m, err := LookupMetric("cpu_utilization")
	require.NoError(t, err)
	require.Equal(t, StrategyMinimize, m.Strategy)
	require.Equal(t, "numeric", m.Type)

	m, err = LookupMetric("language_model")
	require.NoError(t, err)
	require.Equal(t, StrategyExactMatch, m.Strategy)

	_, err = LookupMetric("disk_io")
	require.ErrorIs(t, err, ErrUnknownMetric)
}

func TestSelect_NumericMinimize(t *testing.T) {
	candidates := []map[string]any{
		host("a", map[string]any{"cpu_utilization": 0.4}),
		host("b", map[string]any{"cpu_utilization": 0.1}),
		host("c", map[string]any{"cpu_utilization": 0.7}),
	}
	m, _ := LookupMetric("cpu_utilization")

	sel, err := Select(candidates, m, "")
	require.NoError(t, err)
	require.Equal(t, "hosts/b", sel.Endpoint["_id"])
	require.Equal(t, 0.1, sel.MetricValue)
	require.Equal(t, StrategyMinimize, sel.Strategy)
	require.Equal(t, 3, sel.Evaluated)
	require.Equal(t, 3, sel.ValidCount)
}

func TestSelect_MissingMetricDropped(t *testing.T) {
	candidates := []map[string]any{
		host("a", nil),
		host("b", map[string]any{"response_time": 20.0}),
		host("c", map[string]any{"response_time": "fast"}),
	}
	m, _ := LookupMetric("response_time")

	sel, err := Select(candidates, m, "")
	require.NoError(t, err)
	require.Equal(t, "hosts/b", sel.Endpoint["_id"])
	require.Equal(t, 3, sel.Evaluated)
	require.Equal(t, 1, sel.ValidCount)
}

func TestSelect_TieKeepsCandidateOrder(t *testing.T) {
	candidates := []map[string]any{
		host("a", map[string]any{"language_model": "Llama"}),
		host("b", map[string]any{"language_model": "GPT"}),
		host("c", map[string]any{"language_model": "Llama"}),
	}
	m, _ := LookupMetric("language_model")

	sel, err := Select(candidates, m, "Llama")
	require.NoError(t, err)
	require.Equal(t, "hosts/a", sel.Endpoint["_id"])
	require.Equal(t, 2, sel.ValidCount)
}

func TestSelect_ExactMatchRequiresValue(t *testing.T) {
	m, _ := LookupMetric("gpu_model")
	_, err := Select([]map[string]any{host("a", map[string]any{"gpu_model": "H100"})}, m, "")
	require.ErrorIs(t, err, ErrValueRequired)
}

func TestSelect_NoCandidateSatisfies(t *testing.T) {
	m, _ := LookupMetric("gpu_utilization")
	_, err := Select([]map[string]any{host("a", nil)}, m, "")
	require.ErrorIs(t, err, ErrNoEndpoint)

	_, err = Select(nil, m, "")
	require.ErrorIs(t, err, ErrNoEndpoint)
}

func TestSelect_NumericTieKeepsFirst(t *testing.T) {
	candidates := []map[string]any{
		host("a", map[string]any{"cost_per_hour": 2.5}),
		host("b", map[string]any{"cost_per_hour": 2.5}),
	}
	m, _ := LookupMetric("cost_per_hour")

	sel, err := Select(candidates, m, "")
	require.NoError(t, err)
	require.Equal(t, "hosts/a", sel.Endpoint["_id"])
}
