// Package rpo implements reverse-path-optimization endpoint selection:
// given a set of candidate service endpoints and an optimization metric,
// pick the best destination to route toward.
package rpo

import (
	"errors"
	"fmt"
)

// Strategy is how a metric's values are compared.
type Strategy string

const (
	StrategyMinimize   Strategy = "minimize"
	StrategyMaximize   Strategy = "maximize"
	StrategyExactMatch Strategy = "exact_match"
)

// Metric is one supported optimization metric.
type Metric struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"` // numeric or string
	Strategy Strategy `json:"strategy"`
}

// The metric table is closed: unknown metrics are a validation error, never
// a passthrough to the database.
var supportedMetrics = []Metric{
	{Name: "cpu_utilization", Type: "numeric", Strategy: StrategyMinimize},
	{Name: "gpu_utilization", Type: "numeric", Strategy: StrategyMinimize},
	{Name: "memory_utilization", Type: "numeric", Strategy: StrategyMinimize},
	{Name: "time_to_first_token", Type: "numeric", Strategy: StrategyMinimize},
	{Name: "cost_per_million_tokens", Type: "numeric", Strategy: StrategyMinimize},
	{Name: "cost_per_hour", Type: "numeric", Strategy: StrategyMinimize},
	{Name: "response_time", Type: "numeric", Strategy: StrategyMinimize},
	{Name: "gpu_model", Type: "string", Strategy: StrategyExactMatch},
	{Name: "language_model", Type: "string", Strategy: StrategyExactMatch},
}

var (
	// ErrUnknownMetric marks a metric outside the supported table.
	ErrUnknownMetric = errors.New("unsupported metric")

	// ErrValueRequired marks an exact-match metric queried without a value.
	ErrValueRequired = errors.New("metric requires a value")

	// ErrNoEndpoint means no candidate satisfied the metric.
	ErrNoEndpoint = errors.New("no endpoint satisfies the metric")
)

// SupportedMetrics returns the metric table in its documented order.
func SupportedMetrics() []Metric {
	out := make([]Metric, len(supportedMetrics))
	copy(out, supportedMetrics)
	return out
}

// LookupMetric resolves a metric by name.
func LookupMetric(name string) (Metric, error) {
	for _, m := range supportedMetrics {
		if m.Name == name {
			return m, nil
		}
	}
	return Metric{}, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// Selection is the outcome of evaluating candidates against a metric.
type Selection struct {
	Endpoint    map[string]any `json:"selected_endpoint"`
	MetricValue any            `json:"metric_value"`
	Strategy    Strategy       `json:"optimization_strategy"`
	Evaluated   int            `json:"total_endpoints_evaluated"`
	ValidCount  int            `json:"valid_endpoints_count"`
}

// Select evaluates candidates in order and returns the winner. Candidates
// missing the metric (numeric) or not equal to the wanted value (exact
// match) are dropped; ties keep the earliest candidate.
func Select(candidates []map[string]any, metric Metric, value string) (*Selection, error) {
	if metric.Strategy == StrategyExactMatch && value == "" {
		return nil, fmt.Errorf("%w: %s", ErrValueRequired, metric.Name)
	}

	sel := &Selection{
		Strategy:  metric.Strategy,
		Evaluated: len(candidates),
	}

	var (
		best     map[string]any
		bestNum  float64
		bestVal  any
		haveBest bool
	)
	for _, cand := range candidates {
		raw, ok := cand[metric.Name]
		if !ok || raw == nil {
			continue
		}

		switch metric.Strategy {
		case StrategyExactMatch:
			s, ok := raw.(string)
			if !ok || s != value {
				continue
			}
			sel.ValidCount++
			if !haveBest {
				best, bestVal, haveBest = cand, s, true
			}
		case StrategyMinimize, StrategyMaximize:
			n, ok := asNumber(raw)
			if !ok {
				continue
			}
			sel.ValidCount++
			better := !haveBest ||
				(metric.Strategy == StrategyMinimize && n < bestNum) ||
				(metric.Strategy == StrategyMaximize && n > bestNum)
			if better {
				best, bestNum, bestVal, haveBest = cand, n, n, true
			}
		}
	}

	if !haveBest {
		return nil, fmt.Errorf("%w: %s", ErrNoEndpoint, metric.Name)
	}
	sel.Endpoint = best
	sel.MetricValue = bestVal
	return sel, nil
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
