// Package graph implements path computation over the topology graph:
// weighted shortest paths, K-shortest-path variants, Flex-Algo filtering,
// country exclusion and the load feedback update.
package graph

import (
	"fmt"

	"github.com/jalapeno-sdn/jalapeno-api/pkg/srv6"
)

// Direction controls how edges are followed during search.
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
	DirectionAny      Direction = "any"
)

// ParseDirection validates a direction parameter. Empty defaults to outbound.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "":
		return DirectionOutbound, nil
	case DirectionOutbound, DirectionInbound, DirectionAny:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("%w: direction must be one of outbound, inbound, any", ErrInvalidInput)
	}
}

// keyword returns the AQL traversal keyword. Directions are a closed enum so
// interpolating the keyword into a query is safe.
func (d Direction) keyword() string {
	switch d {
	case DirectionInbound:
		return "INBOUND"
	case DirectionAny:
		return "ANY"
	default:
		return "OUTBOUND"
	}
}

// Weight names the edge attribute used as the search cost.
type Weight string

const (
	WeightNone        Weight = "none"
	WeightLatency     Weight = "latency"
	WeightUtilization Weight = "percent_util_out"
	WeightLoad        Weight = "load"
)

// Attribute returns the edge attribute backing the weight, or "" for an
// unweighted (hop count) search.
func (w Weight) Attribute() string {
	if w == WeightNone || w == "" {
		return ""
	}
	return string(w)
}

// Vertex is a graph node. Only the attributes the engine relies on are
// typed; everything else stays in the store.
type Vertex struct {
	ID          string     `json:"_id"`
	Key         string     `json:"_key"`
	Name        string     `json:"name,omitempty"`
	RouterID    string     `json:"router_id,omitempty"`
	ASN         uint32     `json:"asn,omitempty"`
	Prefix      string     `json:"prefix,omitempty"`
	PrefixLen   int        `json:"prefix_len,omitempty"`
	IPv4Address string     `json:"ipv4_address,omitempty"`
	IPv6Address string     `json:"ipv6_address,omitempty"`
	SIDs        []srv6.SID `json:"sids,omitempty"`
}

// Edge is a graph link. Load is the only attribute the service mutates.
type Edge struct {
	ID             string   `json:"_id"`
	Key            string   `json:"_key"`
	From           string   `json:"_from"`
	To             string   `json:"_to"`
	Name           string   `json:"name,omitempty"`
	Protocol       string   `json:"protocol,omitempty"`
	Latency        *float64 `json:"latency,omitempty"`
	PercentUtilOut *float64 `json:"percent_util_out,omitempty"`
	PercentUtilIn  *float64 `json:"percent_util_in,omitempty"`
	Load           *float64 `json:"load,omitempty"`
	CountryCodes   []string `json:"country_codes,omitempty"`
}

// PathStep pairs a vertex with the edge leaving it toward the next vertex.
// Edge is nil on the terminal step.
type PathStep struct {
	Vertex Vertex `json:"vertex"`
	Edge   *Edge  `json:"edge"`
}

// PathResult is the normalized outcome of one path computation.
type PathResult struct {
	Found              bool          `json:"found"`
	Path               []PathStep    `json:"path"`
	Hopcount           int           `json:"hopcount"`
	VertexCount        int           `json:"vertex_count"`
	SourceInfo         *Vertex       `json:"source_info,omitempty"`
	DestinationInfo    *Vertex       `json:"destination_info,omitempty"`
	Direction          Direction     `json:"direction"`
	Algo               uint32        `json:"algo"`
	TotalLatency       *float64      `json:"total_latency,omitempty"`
	AverageUtilization *float64      `json:"average_utilization,omitempty"`
	AverageLoad        *float64      `json:"average_load,omitempty"`
	CountriesTraversed []string      `json:"countries_traversed,omitempty"`
	ExcludedCountries  []string      `json:"excluded_countries,omitempty"`
	SRv6               *srv6.Carrier `json:"srv6_data,omitempty"`
	LoadData           *LoadReport   `json:"load_data,omitempty"`
}

// EdgeLoad is one edge's load value after an update pass.
type EdgeLoad struct {
	EdgeKey string  `json:"edge_key"`
	Load    float64 `json:"load"`
}

// HighestLoad identifies the hottest edge on the updated path.
type HighestLoad struct {
	EdgeKey   string  `json:"edge_key"`
	LoadValue float64 `json:"load_value"`
}

// LoadReport summarizes a load feedback update over one path.
type LoadReport struct {
	UpdatedEdges []string     `json:"updated_edges"`
	EdgeLoads    []EdgeLoad   `json:"edge_loads"`
	AverageLoad  float64      `json:"average_load"`
	TotalLoad    float64      `json:"total_load"`
	EdgeCount    int          `json:"edge_count"`
	HighestLoad  *HighestLoad `json:"highest_load"`
}

// Walk is one enumerated traversal result.
type Walk struct {
	Vertices []Vertex `json:"vertices"`
	Edges    []Edge   `json:"edges"`
	Hopcount int      `json:"hopcount"`
}

// Neighbor is one vertex in the immediate neighborhood of a source, with the
// edge that reached it.
type Neighbor struct {
	Vertex Vertex `json:"vertex"`
	Edge   *Edge  `json:"edge"`
}
